package probe

import (
	"fmt"

	dockerclient "github.com/docker/docker/client"
)

// NewDockerInspector returns a client for the local Docker daemon, configured
// from DOCKER_HOST and related environment variables. The caller closes it.
func NewDockerInspector() (*dockerclient.Client, error) {
	client, err := dockerclient.NewClientWithOpts(
		dockerclient.FromEnv,
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create local Docker client: %w", err)
	}
	return client, nil
}
