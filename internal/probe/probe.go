// Package probe reports the live state of the managed services: the
// container as the Docker Engine sees it, and whether the database inside
// accepts connections.
package probe

import (
	"context"
	"fmt"
	"sort"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"

	"evalgo.org/polyglot/models"
)

// ContainerInspector is the subset of the Docker client used here.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
}

// Pinger checks that a database accepts connections.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Container states reported when the engine has nothing better to say.
const (
	StateMissing = "missing"
	StateUnknown = "unknown"
)

// Status is the observed state of one service.
type Status struct {
	Target    models.Target
	Container string
	State     string
	Ports     []string
	Reachable bool
	Err       error
}

// Prober checks containers and databases.
type Prober struct {
	Inspector ContainerInspector
	Pingers   map[models.Target]Pinger

	// Timeout bounds each inspect and ping
	Timeout time.Duration
}

// Check probes a single service. All is not a valid argument.
func (p *Prober) Check(ctx context.Context, target models.Target) Status {
	st := Status{Target: target, Container: target.ContainerName(), State: StateUnknown}

	if p.Inspector != nil {
		ictx, cancel := p.withTimeout(ctx)
		info, err := p.Inspector.ContainerInspect(ictx, st.Container)
		cancel()
		switch {
		case cerrdefs.IsNotFound(err):
			st.State = StateMissing
			return st
		case err != nil:
			st.Err = fmt.Errorf("failed to inspect %s: %w", st.Container, err)
			return st
		}
		st.State, st.Ports = describe(info)
		if st.State != "running" {
			return st
		}
	}

	pinger, ok := p.Pingers[target]
	if !ok {
		return st
	}

	pctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := pinger.Ping(pctx); err != nil {
		st.Err = err
		return st
	}
	st.Reachable = true
	return st
}

// CheckAll probes every service selected by target.
func (p *Prober) CheckAll(ctx context.Context, target models.Target) []Status {
	var out []Status
	for _, t := range target.Expand() {
		out = append(out, p.Check(ctx, t))
	}
	return out
}

func (p *Prober) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

func describe(info container.InspectResponse) (string, []string) {
	state := StateUnknown
	if info.ContainerJSONBase != nil && info.State != nil && info.State.Status != "" {
		state = string(info.State.Status)
	}

	if info.NetworkSettings == nil {
		return state, nil
	}
	return state, formatPorts(info.NetworkSettings.Ports)
}

// formatPorts renders published ports as "host:port->container/proto".
func formatPorts(ports nat.PortMap) []string {
	var out []string
	for port, bindings := range ports {
		for _, b := range bindings {
			host := b.HostIP
			if host == "" {
				host = "0.0.0.0"
			}
			out = append(out, fmt.Sprintf("%s:%s->%s", host, b.HostPort, port))
		}
	}
	sort.Strings(out)
	return out
}

// WaitReady polls pinger until it succeeds or ctx is done.
func WaitReady(ctx context.Context, pinger Pinger, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = pinger.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service not ready: %w (last error: %v)", ctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}
