package services

import (
	"context"
	"fmt"

	"evalgo.org/polyglot/internal/credentials"
	"evalgo.org/polyglot/models"
)

// Neo4j runs the graph database with auth taken from the loaded credential.
type Neo4j struct {
	base
	Image    string
	HTTPPort int
	BoltPort int
	User     string

	credentials credentials.Loader
}

// NewNeo4j creates the Neo4j driver.
func NewNeo4j(image string, httpPort, boltPort int, user string, deps Deps) *Neo4j {
	return &Neo4j{
		base:        newBase(models.Neo4j, deps),
		Image:       image,
		HTTPPort:    httpPort,
		BoltPort:    boltPort,
		User:        user,
		credentials: deps.Credentials,
	}
}

// Setup loads the password and runs the container detached.
func (n *Neo4j) Setup(ctx context.Context) error {
	password, err := n.credentials.Load(models.Neo4j)
	if err != nil {
		return fmt.Errorf("%s: %w", n.target.DisplayName(), err)
	}

	n.logger.Info("Creating Neo4j container...")
	return n.run(ctx, n.command([]string{
		"run",
		"--name=" + n.target.ContainerName(),
		fmt.Sprintf("--publish=%d:7474", n.HTTPPort),
		fmt.Sprintf("--publish=%d:7687", n.BoltPort),
		"--env", fmt.Sprintf("NEO4J_AUTH=%s/%s", n.User, password.Reveal()),
		"-d",
		n.Image,
	}, password.Reveal()))
}
