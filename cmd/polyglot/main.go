package main

import (
	"errors"
	"fmt"
	"os"

	"evalgo.org/polyglot/internal/commands"
	"evalgo.org/polyglot/internal/version"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime
	version.GitCommit = GitCommit

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, commands.ErrUsage) {
			fmt.Fprintln(os.Stderr, "Usage: polyglot <setup|teardown> [postgres|mongodb|neo4j]")
		}
		os.Exit(1)
	}
}
