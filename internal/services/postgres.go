package services

import (
	"context"
	"fmt"
	"time"

	"evalgo.org/polyglot/internal/credentials"
	"evalgo.org/polyglot/internal/schema"
	"evalgo.org/polyglot/models"
)

// ReadinessCheck blocks until the database accepts connections or ctx ends.
type ReadinessCheck func(ctx context.Context, password credentials.Secret) error

// Postgres runs the container, waits for it to accept connections and then
// applies the schema.
type Postgres struct {
	base
	Image    string
	HostPort int

	// SchemaTarget is where the schema step connects
	SchemaTarget schema.Target

	// ReadyTimeout bounds the readiness wait; zero skips it
	ReadyTimeout time.Duration

	credentials credentials.Loader
	schema      schema.Initializer
	ready       ReadinessCheck
}

// NewPostgres creates the Postgres driver.
func NewPostgres(image string, hostPort int, target schema.Target, readyTimeout time.Duration, deps Deps) *Postgres {
	return &Postgres{
		base:         newBase(models.Postgres, deps),
		Image:        image,
		HostPort:     hostPort,
		SchemaTarget: target,
		ReadyTimeout: readyTimeout,
		credentials:  deps.Credentials,
		schema:       deps.Schema,
		ready:        deps.PostgresReady,
	}
}

// Setup runs the container detached, then initializes the schema.
func (p *Postgres) Setup(ctx context.Context) error {
	password, err := p.credentials.Load(models.Postgres)
	if err != nil {
		return fmt.Errorf("%s: %w", p.target.DisplayName(), err)
	}

	p.logger.Info("Creating PostgreSQL container...")
	err = p.run(ctx, p.command([]string{
		"run",
		"--name=" + p.target.ContainerName(),
		"-p", fmt.Sprintf("%d:5432", p.HostPort),
		"-e", "POSTGRES_PASSWORD=" + password.Reveal(),
		"-d",
		p.Image,
	}, password.Reveal()))
	if err != nil {
		return err
	}

	if p.ready != nil && p.ReadyTimeout > 0 {
		p.logger.WithField("timeout", p.ReadyTimeout).Info("Waiting for PostgreSQL to accept connections...")
		readyCtx, cancel := context.WithTimeout(ctx, p.ReadyTimeout)
		err := p.ready(readyCtx, password)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", p.target.DisplayName(), err)
		}
	}

	if p.schema == nil {
		return nil
	}
	if err := p.schema.Apply(ctx, password, p.SchemaTarget); err != nil {
		return fmt.Errorf("%s: %w", p.target.DisplayName(), err)
	}
	return nil
}
