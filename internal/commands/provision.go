package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/polyglot/internal/config"
	"evalgo.org/polyglot/internal/logging"
	"evalgo.org/polyglot/internal/orchestration"
	"evalgo.org/polyglot/internal/runner"
	"evalgo.org/polyglot/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup [postgres|mongodb|neo4j]",
	Short: "Create database containers and register this host",
	Long: `Create the container of one service, or of every service when no
target is given. The Postgres container also gets its schema.

Services are created one after another; a failing service does not stop
the others. After the run this host is registered with the backend once,
provided at least one service was created.`,
	Args: targetArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		return provision(cmd.Context(), cmd.OutOrStdout(), cfg, models.Setup, args, strict)
	},
}

var teardownCmd = &cobra.Command{
	Use:   "teardown [postgres|mongodb|neo4j]",
	Short: "Stop and remove database containers",
	Args:  targetArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		return provision(cmd.Context(), cmd.OutOrStdout(), cfg, models.Teardown, args, strict)
	},
}

func init() {
	setupCmd.Flags().Bool("strict", false, "exit non-zero when any container command fails")
	teardownCmd.Flags().Bool("strict", false, "exit non-zero when any container command fails")
}

// targetArgs accepts at most one service name.
func targetArgs(cmd *cobra.Command, args []string) error {
	_, err := parseTarget(args)
	return err
}

func parseTarget(args []string) (models.Target, error) {
	switch len(args) {
	case 0:
		return models.All, nil
	case 1:
		t, err := models.ParseTarget(args[0])
		if err != nil {
			return models.All, fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return t, nil
	default:
		return models.All, fmt.Errorf("%w: expected at most one target, got %d arguments", ErrUsage, len(args))
	}
}

// provision runs one action end to end. Configuration problems are reported
// before any container command is issued.
//
// A container command exiting non-zero only fails the command in strict
// mode; every other per-service failure (launch, timeout, cancellation,
// credentials, schema connectivity) always does. A canceled run is never
// registered.
func provision(ctx context.Context, out io.Writer, c *config.Config, kind models.ActionKind, args []string, strict bool) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
	}
	if err := c.RequireRegistration(); err != nil {
		return err
	}

	logger := logging.New(c.Logging)
	env, err := newEnvironment(c, logger)
	if err != nil {
		return err
	}

	report := orchestration.New(logger, env.drivers()...).Start(ctx, models.Action{Kind: kind, Target: target})
	printReport(out, report)

	var errs []error
	for _, o := range report.Failed() {
		if strict || !errors.Is(o.Err, runner.ErrNonZeroExit) {
			errs = append(errs, fmt.Errorf("%s %s: %w", kind, o.Target, o.Err))
		}
	}

	if kind == models.Setup {
		switch {
		case ctx.Err() != nil:
			logger.Warn("run canceled, skipping registration")
		case len(report.Succeeded()) == 0:
			logger.Warn("no service was created, skipping registration")
		default:
			if err := register(ctx, out, c, logger); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func printReport(out io.Writer, report orchestration.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tRESULT\tDURATION")
	for _, o := range report.Outcomes {
		result := "ok"
		if !o.OK() {
			result = "failed: " + o.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Target.DisplayName(), result, o.Duration.Round(time.Millisecond))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%s: %d succeeded, %d failed\n", report.Action, len(report.Succeeded()), len(report.Failed()))
}
