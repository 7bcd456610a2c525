package probe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"evalgo.org/polyglot/internal/credentials"
)

// PostgresPinger opens a connection and pings the server.
type PostgresPinger struct {
	DSN string
}

func (p PostgresPinger) Ping(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, p.DSN)
	if err != nil {
		return fmt.Errorf("error connecting to postgres: %w", err)
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("error pinging postgres: %w", err)
	}
	return nil
}

// MongoPinger pings the primary of a MongoDB deployment.
type MongoPinger struct {
	URI string
}

func (p MongoPinger) Ping(ctx context.Context) error {
	client, err := mongo.Connect(options.Client().ApplyURI(p.URI))
	if err != nil {
		return fmt.Errorf("error connecting to mongodb: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("error pinging mongodb: %w", err)
	}
	return nil
}

// Neo4jPinger verifies Bolt connectivity with basic auth.
type Neo4jPinger struct {
	URI      string
	User     string
	Password credentials.Secret
}

func (p Neo4jPinger) Ping(ctx context.Context) error {
	driver, err := neo4j.NewDriverWithContext(p.URI, neo4j.BasicAuth(p.User, p.Password.Reveal(), ""))
	if err != nil {
		return fmt.Errorf("error creating neo4j driver: %w", err)
	}
	defer driver.Close(context.Background())

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("error connecting to neo4j: %w", err)
	}
	return nil
}
