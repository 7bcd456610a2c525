package orchestration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/polyglot/internal/runner"
	"evalgo.org/polyglot/models"
)

// fakeDriver counts calls and returns a fixed error per action.
type fakeDriver struct {
	target      models.Target
	setupErr    error
	teardownErr error
	setups      int
	teardowns   int
	calls       *[]string
	// onSetup runs inside Setup before it returns
	onSetup func()
}

func (d *fakeDriver) Target() models.Target { return d.target }

func (d *fakeDriver) Setup(context.Context) error {
	d.setups++
	*d.calls = append(*d.calls, "setup "+d.target.String())
	if d.onSetup != nil {
		d.onSetup()
	}
	return d.setupErr
}

func (d *fakeDriver) Teardown(context.Context) error {
	d.teardowns++
	*d.calls = append(*d.calls, "teardown "+d.target.String())
	return d.teardownErr
}

func newFakes() (map[models.Target]*fakeDriver, *[]string) {
	calls := &[]string{}
	fakes := map[models.Target]*fakeDriver{}
	for _, t := range models.Services {
		fakes[t] = &fakeDriver{target: t, calls: calls}
	}
	return fakes, calls
}

func newOrchestrator(fakes map[models.Target]*fakeDriver) (*Orchestrator, *test.Hook) {
	logger, hook := test.NewNullLogger()
	var drivers []*fakeDriver
	for _, t := range models.Services {
		drivers = append(drivers, fakes[t])
	}
	o := New(logger)
	for _, d := range drivers {
		o.drivers[d.target] = d
	}
	return o, hook
}

func TestSetupAllInvokesEveryServiceOnce(t *testing.T) {
	fakes, calls := newFakes()
	o, _ := newOrchestrator(fakes)

	report := o.Start(context.Background(), models.SetupOf(models.All))

	for _, f := range fakes {
		assert.Equal(t, 1, f.setups, f.target.String())
		assert.Zero(t, f.teardowns, f.target.String())
	}
	assert.Equal(t, []string{"setup mongodb", "setup neo4j", "setup postgres"}, *calls)
	assert.Len(t, report.Outcomes, 3)
	assert.Empty(t, report.Failed())
	assert.NoError(t, report.Err())
	assert.NotEmpty(t, report.RunID)
}

func TestFailedServiceDoesNotStopSiblings(t *testing.T) {
	for _, failing := range models.Services {
		t.Run(failing.String(), func(t *testing.T) {
			fakes, _ := newFakes()
			fakes[failing].setupErr = fmt.Errorf("%s: %w", failing, runner.ErrLaunch)
			o, hook := newOrchestrator(fakes)

			report := o.Start(context.Background(), models.SetupOf(models.All))

			for _, f := range fakes {
				assert.Equal(t, 1, f.setups, "setup count for %s", f.target)
			}

			failed := report.Failed()
			require.Len(t, failed, 1)
			assert.Equal(t, failing, failed[0].Target)
			assert.True(t, errors.Is(failed[0].Err, runner.ErrLaunch))
			assert.Len(t, report.Succeeded(), 2)

			var errorEntries int
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.ErrorLevel {
					errorEntries++
					assert.Equal(t, failing.String(), e.Data["service"])
				}
			}
			assert.Equal(t, 1, errorEntries)
		})
	}
}

func TestPostgresSetupFailureStillRunsMongoAndNeo4j(t *testing.T) {
	fakes, _ := newFakes()
	fakes[models.Postgres].setupErr = errors.New("connection refused")
	o, _ := newOrchestrator(fakes)

	report := o.Start(context.Background(), models.SetupOf(models.All))

	assert.Equal(t, 1, fakes[models.MongoDB].setups)
	assert.Equal(t, 1, fakes[models.Neo4j].setups)
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "setup postgres")
}

func TestAllServicesFailing(t *testing.T) {
	fakes, calls := newFakes()
	for _, f := range fakes {
		f.teardownErr = &runner.ExitError{Result: runner.Result{ExitCode: 1}}
	}
	o, _ := newOrchestrator(fakes)

	// Teardown of containers that were never created fails per service, not for the run.
	report := o.Start(context.Background(), models.TeardownOf(models.All))

	assert.Len(t, *calls, 3)
	assert.Len(t, report.Failed(), 3)
	for _, out := range report.Failed() {
		assert.True(t, errors.Is(out.Err, runner.ErrNonZeroExit))
	}
}

func TestSingleTargetDispatch(t *testing.T) {
	fakes, calls := newFakes()
	o, _ := newOrchestrator(fakes)

	report := o.Start(context.Background(), models.TeardownOf(models.Neo4j))

	assert.Equal(t, []string{"teardown neo4j"}, *calls)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, models.Neo4j, report.Outcomes[0].Target)
	assert.True(t, report.Outcomes[0].OK())
}

func TestMissingDriverIsContained(t *testing.T) {
	fakes, calls := newFakes()
	o := New(nil, fakes[models.MongoDB], fakes[models.Postgres])

	report := o.Start(context.Background(), models.SetupOf(models.All))

	assert.Equal(t, []string{"setup mongodb", "setup postgres"}, *calls)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, models.Neo4j, failed[0].Target)
	assert.True(t, errors.Is(failed[0].Err, ErrNoDriver))
}

func TestCancellationStopsDispatch(t *testing.T) {
	fakes, calls := newFakes()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fakes[models.MongoDB].onSetup = cancel
	o, _ := newOrchestrator(fakes)

	report := o.Start(ctx, models.SetupOf(models.All))

	assert.Equal(t, []string{"setup mongodb"}, *calls)
	require.Len(t, report.Outcomes, 3)
	assert.True(t, report.Outcomes[0].OK())
	for _, out := range report.Outcomes[1:] {
		assert.True(t, errors.Is(out.Err, ErrCanceled), out.Target.String())
		assert.True(t, errors.Is(out.Err, context.Canceled), out.Target.String())
	}
	assert.True(t, report.Canceled())
	assert.Len(t, report.Succeeded(), 1)
}

func TestDoneContextDispatchesNothing(t *testing.T) {
	fakes, calls := newFakes()
	o, _ := newOrchestrator(fakes)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := o.Start(ctx, models.TeardownOf(models.All))

	assert.Empty(t, *calls)
	assert.Len(t, report.Failed(), 3)
	assert.True(t, report.Canceled())
}
