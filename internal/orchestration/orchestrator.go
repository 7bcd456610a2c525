// Package orchestration maps a provisioning Action onto service drivers.
//
// Dispatch is best-effort and sequential: when an action targets All, every
// service is attempted exactly once, in models.Services order, whether or not
// an earlier one failed. Once the context is done the remaining services are
// recorded as ErrCanceled without being dispatched. There is no retry and no
// rollback. Per-service
// failures are logged and collected in the Report; they are never turned
// into a process-level error by Start.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/services"
	"evalgo.org/polyglot/models"
)

var (
	// ErrNoDriver is recorded for a target that has no registered driver.
	ErrNoDriver = errors.New("no driver registered")

	// ErrCanceled is recorded for services skipped after the run's context ended.
	ErrCanceled = errors.New("run canceled before dispatch")
)

// Outcome is the result of one service within a run.
type Outcome struct {
	Target   models.Target
	Err      error
	Duration time.Duration
}

// OK reports whether the service action succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report collects the outcomes of one Start call, in dispatch order.
type Report struct {
	RunID    string
	Action   models.Action
	Outcomes []Outcome
}

// Failed returns the outcomes that carry an error.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Succeeded returns the outcomes without error.
func (r Report) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Canceled reports whether any service was skipped because the run's
// context ended.
func (r Report) Canceled() bool {
	for _, o := range r.Outcomes {
		if errors.Is(o.Err, ErrCanceled) {
			return true
		}
	}
	return false
}

// Err joins every per-service error, or returns nil when all succeeded.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s %s: %w", r.Action.Kind, o.Target, o.Err))
	}
	return errors.Join(errs...)
}

// Orchestrator owns the lifetime of a provisioning run.
type Orchestrator struct {
	drivers map[models.Target]services.Driver
	logger  logrus.FieldLogger
}

// New creates an orchestrator over the given drivers. A later driver for
// the same target replaces an earlier one.
func New(logger logrus.FieldLogger, drivers ...services.Driver) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	o := &Orchestrator{
		drivers: make(map[models.Target]services.Driver, len(drivers)),
		logger:  logger,
	}
	for _, d := range drivers {
		o.drivers[d.Target()] = d
	}
	return o
}

// Start dispatches action and returns the per-service report.
func (o *Orchestrator) Start(ctx context.Context, action models.Action) Report {
	report := Report{RunID: models.GenerateID("run"), Action: action}
	log := o.logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"action": action.Kind.String(),
		"target": action.Target.String(),
	})

	log.Debug("starting provisioning run")
	for _, target := range action.Target.Expand() {
		if err := ctx.Err(); err != nil {
			report.Outcomes = append(report.Outcomes, Outcome{
				Target: target,
				Err:    fmt.Errorf("%w: %w", ErrCanceled, err),
			})
			log.WithField("service", target.String()).Warnf("%s skipped, run canceled", action.Kind)
			continue
		}

		outcome := o.dispatch(ctx, action.Kind, target)
		report.Outcomes = append(report.Outcomes, outcome)

		entry := log.WithFields(logrus.Fields{
			"service":  target.String(),
			"duration": outcome.Duration.Round(time.Millisecond),
		})
		if outcome.Err != nil {
			entry.WithError(outcome.Err).Errorf("%s failed", action.Kind)
			continue
		}
		entry.Infof("%s finished", action.Kind)
	}

	return report
}

func (o *Orchestrator) dispatch(ctx context.Context, kind models.ActionKind, target models.Target) Outcome {
	start := time.Now()
	err := o.invoke(ctx, kind, target)
	return Outcome{Target: target, Err: err, Duration: time.Since(start)}
}

func (o *Orchestrator) invoke(ctx context.Context, kind models.ActionKind, target models.Target) error {
	driver, ok := o.drivers[target]
	if !ok {
		return fmt.Errorf("%w for %s", ErrNoDriver, target)
	}

	switch kind {
	case models.Setup:
		return driver.Setup(ctx)
	case models.Teardown:
		return driver.Teardown(ctx)
	default:
		return fmt.Errorf("unsupported action %s", kind)
	}
}
