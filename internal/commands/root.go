package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"evalgo.org/polyglot/internal/config"
	"evalgo.org/polyglot/internal/version"
)

// ErrUsage is returned for arguments the command line does not accept.
var ErrUsage = errors.New("usage error")

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "polyglot",
	Short: "Provision a local Postgres, MongoDB and Neo4j environment",
	Long: `Polyglot creates and removes the database containers of a local
multi-database development environment and registers this host with the
coordination backend.

  polyglot setup              create every service, then register
  polyglot setup postgres     create a single service
  polyglot teardown [target]  stop and remove containers

BACKEND_ADDR and DB_ADDR must be set for setup, teardown and register.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command; an interrupt cancels the running command's context.
func Execute() error {
	rootCmd.Version = version.Get().Short()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./polyglot.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json, text)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "print container commands instead of running them")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolP("verbose", "v", false, "show build details")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg, rootCmd)
}

// applyFlagOverrides lets explicitly set persistent flags win over every
// other configuration source.
func applyFlagOverrides(c *config.Config, cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	if flags.Changed("log-level") {
		c.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		c.Logging.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("dry-run") {
		c.Runtime.DryRun, _ = flags.GetBool("dry-run")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, info.String())

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintf(out, "\nDetails:\n")
			fmt.Fprintf(out, "  Version:    %s\n", info.Version)
			fmt.Fprintf(out, "  Git Commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "  Built:      %s\n", info.BuildTime)
			fmt.Fprintf(out, "  Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "  Platform:   %s\n", info.Platform)
		}
	},
}
