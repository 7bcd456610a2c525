package commands

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/config"
	"evalgo.org/polyglot/internal/credentials"
	"evalgo.org/polyglot/internal/platform"
	"evalgo.org/polyglot/internal/probe"
	"evalgo.org/polyglot/internal/registrar"
	"evalgo.org/polyglot/internal/runner"
	"evalgo.org/polyglot/internal/schema"
	"evalgo.org/polyglot/internal/services"
	"evalgo.org/polyglot/internal/version"
	"evalgo.org/polyglot/models"
)

// Constructors for the collaborators of a run. Tests replace them.
var (
	newRunner = func(p platform.HostPlatform, c *config.Config, logger logrus.FieldLogger) runner.Runner {
		r := runner.NewShellRunner(p, c.Runtime.Timeout, logger)
		r.DryRun = c.Runtime.DryRun
		return r
	}

	newSchema = func(c *config.Config, logger logrus.FieldLogger) schema.Initializer {
		return &schema.PostgresInitializer{
			Transactional:  c.Schema.Transactional,
			ConnectTimeout: c.Postgres.ConnectTimeout,
			Logger:         logger,
		}
	}

	newRegistrar = func(c config.BackendConfig, logger logrus.FieldLogger) registrar.Registrar {
		return registrar.New(c, logger)
	}

	newCredentials = credentials.NewLoader

	newInspector = func() (inspector, error) {
		return probe.NewDockerInspector()
	}
)

type inspector interface {
	probe.ContainerInspector
	Close() error
}

// environment holds what one provisioning run shares across services.
type environment struct {
	config      *config.Config
	logger      *logrus.Logger
	platform    platform.HostPlatform
	runner      runner.Runner
	credentials credentials.Loader
}

func newEnvironment(c *config.Config, logger *logrus.Logger) (*environment, error) {
	loader, err := newCredentials(c.Credentials)
	if err != nil {
		return nil, err
	}

	p := platform.Detect()
	logger.WithFields(version.Get().Fields()).WithFields(logrus.Fields{
		"shell":   p.String(),
		"runtime": c.Runtime.Binary,
		"dry_run": c.Runtime.DryRun,
	}).Debug("environment ready")

	return &environment{
		config:      c,
		logger:      logger,
		platform:    p,
		runner:      newRunner(p, c, logger),
		credentials: loader,
	}, nil
}

// drivers builds one driver per service. In dry-run mode the Postgres
// readiness wait and schema step are left out since no container exists.
func (e *environment) drivers() []services.Driver {
	deps := services.Deps{
		Runtime:     e.config.Runtime.Binary,
		Platform:    e.platform,
		Runner:      e.runner,
		Credentials: e.credentials,
		Logger:      e.logger,
	}

	if !e.config.Runtime.DryRun {
		deps.Schema = newSchema(e.config, e.logger)
		target := services.PostgresTarget(e.config.Postgres)
		deps.PostgresReady = func(ctx context.Context, password credentials.Secret) error {
			return probe.WaitReady(ctx, probe.PostgresPinger{DSN: schema.DSN(target, password)}, time.Second)
		}
	}

	return services.FromConfig(e.config, deps)
}

// pingers builds a connectivity check per service. A service whose
// credential cannot be loaded gets no pinger.
func pingers(c *config.Config, loader credentials.Loader, logger logrus.FieldLogger) map[models.Target]probe.Pinger {
	out := map[models.Target]probe.Pinger{
		models.MongoDB: probe.MongoPinger{
			URI: "mongodb://" + net.JoinHostPort(c.MongoDB.Host, strconv.Itoa(c.MongoDB.Port)) + "/?directConnection=true",
		},
	}

	if pw, err := loader.Load(models.Postgres); err == nil {
		out[models.Postgres] = probe.PostgresPinger{DSN: schema.DSN(services.PostgresTarget(c.Postgres), pw)}
	} else {
		logger.WithError(err).Warn("PostgreSQL connectivity check disabled")
	}

	if pw, err := loader.Load(models.Neo4j); err == nil {
		out[models.Neo4j] = probe.Neo4jPinger{
			URI:      "bolt://" + net.JoinHostPort(c.Neo4j.Host, strconv.Itoa(c.Neo4j.BoltPort)),
			User:     c.Neo4j.User,
			Password: pw,
		}
	} else {
		logger.WithError(err).Warn("Neo4j connectivity check disabled")
	}

	return out
}

// register announces DB_ADDR to the backend at BACKEND_ADDR.
func register(ctx context.Context, out io.Writer, c *config.Config, logger logrus.FieldLogger) error {
	if c.Runtime.DryRun {
		fmt.Fprintf(out, "+ POST %s {\"ipAddr\":%q}\n", c.Backend.BackendURL(), c.Backend.DBAddr)
		return nil
	}

	result, err := newRegistrar(c.Backend, logger).RegisterDatabase(ctx, c.Backend.Address, c.Backend.DBAddr)
	if err != nil {
		return fmt.Errorf("registration with %s failed: %w", c.Backend.Address, err)
	}

	fmt.Fprintf(out, "Registered %s with %s: %s\n", c.Backend.DBAddr, c.Backend.Address, result)
	return nil
}
