package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/polyglot/internal/config"
	"evalgo.org/polyglot/internal/logging"
	"evalgo.org/polyglot/internal/probe"
)

var statusCmd = &cobra.Command{
	Use:   "status [postgres|mongodb|neo4j]",
	Short: "Show container state and database connectivity",
	Args:  targetArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return status(cmd.Context(), cmd.OutOrStdout(), cfg, args)
	},
}

func status(ctx context.Context, out io.Writer, c *config.Config, args []string) error {
	target, err := parseTarget(args)
	if err != nil {
		return err
	}

	logger := logging.New(c.Logging)
	loader, err := newCredentials(c.Credentials)
	if err != nil {
		return err
	}

	prober := &probe.Prober{
		Pingers: pingers(c, loader, logger),
		Timeout: c.Postgres.ConnectTimeout,
	}

	client, err := newInspector()
	if err != nil {
		logger.WithError(err).Warn("container state unavailable")
	} else {
		defer client.Close()
		prober.Inspector = client
	}

	statuses := prober.CheckAll(ctx, target)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCONTAINER\tSTATE\tPORTS\tREACHABLE")
	for _, s := range statuses {
		reachable := "no"
		if s.Reachable {
			reachable = "yes"
		}
		if s.Err != nil {
			reachable = "error: " + s.Err.Error()
		}
		ports := strings.Join(s.Ports, ",")
		if ports == "" {
			ports = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Target.DisplayName(), s.Container, s.State, ports, reachable)
	}
	return w.Flush()
}
