package commands

import (
	"github.com/spf13/cobra"

	"evalgo.org/polyglot/internal/logging"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this host with the backend without touching containers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireRegistration(); err != nil {
			return err
		}
		return register(cmd.Context(), cmd.OutOrStdout(), cfg, logging.New(cfg.Logging))
	},
}
