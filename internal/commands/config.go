package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runShowConfig,
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	RunE:  runInitConfig,
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(initConfigCmd)

	initConfigCmd.Flags().StringP("output", "o", "polyglot.yaml", "file to write")
	initConfigCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func runShowConfig(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

const defaultConfig = `# Polyglot Configuration
#
# BACKEND_ADDR and DB_ADDR are read from the environment.

runtime:
  binary: docker
  timeout: 10m
  dry_run: false

credentials:
  source: file # or keyring
  postgres_file: ./POSTGRES_PASSWORD
  neo4j_file: ./NEO4J_PASSWORD
  keyring_service: polyglot

postgres:
  image: postgres
  host: localhost
  host_port: 5433
  user: postgres
  database: postgres
  ready_timeout: 60s
  connect_timeout: 10s

mongodb:
  image: mongodb/mongodb-community-server:latest
  host: localhost
  port: 27017

neo4j:
  image: neo4j:5.24.1
  host: localhost
  http_port: 7474
  bolt_port: 7687
  user: neo4j

schema:
  transactional: true

backend:
  port: 8000
  path: /api/add-db
  timeout: 30s

logging:
  level: info
  format: text
  output: stderr
`

func runInitConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
	return nil
}
