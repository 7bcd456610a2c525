package services

import (
	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/config"
	"evalgo.org/polyglot/internal/credentials"
	"evalgo.org/polyglot/internal/platform"
	"evalgo.org/polyglot/internal/runner"
	"evalgo.org/polyglot/internal/schema"
)

// Deps are the collaborators shared by all drivers of one run.
type Deps struct {
	// Runtime is the container CLI binary
	Runtime  string
	Platform platform.HostPlatform
	Runner   runner.Runner

	Credentials credentials.Loader
	Schema      schema.Initializer

	// PostgresReady is polled between container start and schema step
	PostgresReady ReadinessCheck

	Logger logrus.FieldLogger
}

// PostgresTarget is the schema connection target described by cfg.
func PostgresTarget(cfg config.PostgresConfig) schema.Target {
	return schema.Target{
		Host:     cfg.Host,
		Port:     cfg.HostPort,
		User:     cfg.User,
		Database: cfg.Database,
	}
}

// FromConfig builds one driver per managed service.
func FromConfig(cfg *config.Config, deps Deps) []Driver {
	if deps.Runtime == "" {
		deps.Runtime = cfg.Runtime.Binary
	}
	return []Driver{
		NewMongoDB(cfg.MongoDB.Image, cfg.MongoDB.Port, deps),
		NewNeo4j(cfg.Neo4j.Image, cfg.Neo4j.HTTPPort, cfg.Neo4j.BoltPort, cfg.Neo4j.User, deps),
		NewPostgres(cfg.Postgres.Image, cfg.Postgres.HostPort, PostgresTarget(cfg.Postgres), cfg.Postgres.ReadyTimeout, deps),
	}
}
