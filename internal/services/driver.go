// Package services holds one driver per managed database. Each driver knows
// the exact container-creation and container-removal commands for its
// service and runs them through a runner.Runner.
//
// Container names are fixed (see models.Target.ContainerName), which is what
// lets teardown find exactly what setup created. Drivers do not special-case
// duplicate names or missing containers; the container runtime's answer is
// reported as the service's error.
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/platform"
	"evalgo.org/polyglot/internal/runner"
	"evalgo.org/polyglot/models"
)

// Driver creates and removes the container of one service.
type Driver interface {
	Target() models.Target
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error
}

// base carries what every driver shares.
type base struct {
	target   models.Target
	runtime  string
	platform platform.HostPlatform
	runner   runner.Runner
	logger   logrus.FieldLogger
}

func newBase(target models.Target, deps Deps) base {
	runtime := deps.Runtime
	if runtime == "" {
		runtime = "docker"
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return base{
		target:   target,
		runtime:  runtime,
		platform: deps.Platform,
		runner:   deps.Runner,
		logger:   logger.WithField("service", target.String()),
	}
}

func (b base) Target() models.Target {
	return b.target
}

// command prefixes words with the runtime binary and quotes each word for
// the platform shell. secrets are masked in the printable form.
func (b base) command(words []string, secrets ...string) runner.Command {
	return runner.Words(b.platform.Quote, append([]string{b.runtime}, words...), secrets...)
}

func (b base) run(ctx context.Context, cmd runner.Command) error {
	if _, err := b.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%s: %w", b.target.DisplayName(), err)
	}
	return nil
}

// Teardown stops then removes the named container. Removal is attempted
// even when stop fails; the first error is returned.
func (b base) Teardown(ctx context.Context) error {
	name := b.target.ContainerName()
	b.logger.Infof("Tearing down %s container...", b.target.DisplayName())

	stopErr := b.run(ctx, b.command([]string{"stop", name}))
	rmErr := b.run(ctx, b.command([]string{"rm", name}))
	if stopErr != nil {
		return stopErr
	}
	return rmErr
}
