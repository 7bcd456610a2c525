// Package schema applies the fixed relational schema to a freshly created
// Postgres instance.
//
// The schema is dropped and recreated on every run, so applying it twice
// leaves the same three empty tables. Tables are dropped in dependency order
// (TRANSACTIONS references USERS and PRODUCTS) and recreated in reverse.
package schema

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/credentials"
)

var (
	// ErrConnect means the database could not be reached. There is no retry.
	ErrConnect = errors.New("failed to connect to postgres")

	// ErrStatement means one of the schema statements failed.
	ErrStatement = errors.New("schema statement failed")
)

// Statements is the ordered drop-then-create sequence.
var Statements = []string{
	`DROP TABLE IF EXISTS TRANSACTIONS;`,
	`DROP TABLE IF EXISTS PRODUCTS;`,
	`DROP TABLE IF EXISTS USERS;`,
	`CREATE TABLE USERS (
		username VARCHAR(50) PRIMARY KEY,
		first_name VARCHAR(50),
		last_name VARCHAR(50)
	);`,
	`CREATE TABLE PRODUCTS (
		product_id INT PRIMARY KEY,
		price FLOAT(2),
		name VARCHAR(255)
	);`,
	`CREATE TABLE TRANSACTIONS (
		transaction_id INT PRIMARY KEY,
		username VARCHAR(50) REFERENCES USERS,
		product_id INT REFERENCES PRODUCTS,
		card_num BIGINT,
		address_line VARCHAR(100),
		city VARCHAR(35),
		state CHAR(2),
		zip INT
	);`,
}

// Target is where the schema is applied.
type Target struct {
	Host     string
	Port     int
	User     string
	Database string
}

// DSN builds the connection string for t with the given password.
func DSN(t Target, password credentials.Secret) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(t.User, password.Reveal()),
		Host:     net.JoinHostPort(t.Host, strconv.Itoa(t.Port)),
		Path:     "/" + t.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Execer is satisfied by *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Migrate runs Statements in order against exec and stops at the first failure.
func Migrate(ctx context.Context, exec Execer) error {
	for i, stmt := range Statements {
		if _, err := exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w (step %d of %d): %v", ErrStatement, i+1, len(Statements), err)
		}
	}
	return nil
}

// Initializer applies the schema to a Postgres instance.
type Initializer interface {
	Apply(ctx context.Context, password credentials.Secret, target Target) error
}

// PostgresInitializer connects with pgx and runs Migrate.
type PostgresInitializer struct {
	// Transactional wraps the whole sequence in a single transaction
	Transactional bool

	// ConnectTimeout bounds the single connection attempt
	ConnectTimeout time.Duration

	Logger logrus.FieldLogger
}

// Apply connects once and applies the schema.
func (i *PostgresInitializer) Apply(ctx context.Context, password credentials.Secret, target Target) error {
	log := i.logger().WithFields(logrus.Fields{
		"host": target.Host,
		"port": target.Port,
	})
	log.Info("setting PostgreSQL schema")

	connCtx := ctx
	if i.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, i.ConnectTimeout)
		defer cancel()
	}

	conn, err := pgx.Connect(connCtx, DSN(target, password))
	if err != nil {
		return fmt.Errorf("%w at %s:%d: %v", ErrConnect, target.Host, target.Port, err)
	}
	defer conn.Close(context.Background())
	log.Debug("connected to postgres")

	if !i.Transactional {
		return Migrate(ctx, conn)
	}

	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		return Migrate(ctx, tx)
	})
}

func (i *PostgresInitializer) logger() logrus.FieldLogger {
	if i.Logger == nil {
		return logrus.StandardLogger()
	}
	return i.Logger
}
