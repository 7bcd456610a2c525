package services

import (
	"context"
	"fmt"

	"evalgo.org/polyglot/models"
)

// MongoDB pulls and runs the community server image.
type MongoDB struct {
	base
	Image string
	Port  int
}

// NewMongoDB creates the MongoDB driver.
func NewMongoDB(image string, port int, deps Deps) *MongoDB {
	return &MongoDB{base: newBase(models.MongoDB, deps), Image: image, Port: port}
}

// Setup pulls the image, then runs the container detached with 27017 published.
func (m *MongoDB) Setup(ctx context.Context) error {
	m.logger.Info("Creating MongoDB container...")

	if err := m.run(ctx, m.command([]string{"pull", m.Image})); err != nil {
		return err
	}

	return m.run(ctx, m.command([]string{
		"run",
		"--name", m.target.ContainerName(),
		"-p", fmt.Sprintf("%d:27017", m.Port),
		"-d",
		m.Image,
	}))
}
