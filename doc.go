// Package polyglot provisions a local multi-database development
// environment.
//
// # Overview
//
// Polyglot drives the host's container runtime to create and remove three
// database services, initializes the Postgres schema, and registers the
// host with a coordination backend over HTTP.
//
//	┌─────────────────┐
//	│  polyglot CLI   │
//	│    (cobra)      │
//	└────────┬────────┘
//	         │ Action{Setup|Teardown, Target}
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Orchestrator   │──────►│    Registrar    │──► POST /api/add-db
//	└────────┬────────┘       └─────────────────┘
//	         │ one driver per service
//	┌────────▼────────┐       ┌─────────────────┐
//	│ Service Drivers │──────►│  Shell Runner   │──► sh -c / cmd /C
//	└────────┬────────┘       └─────────────────┘
//	         │
//	┌────────▼────────┐
//	│ Schema (pgx)    │
//	└─────────────────┘
//
// # Services
//
//   - MongoDB: polyglot-mongodb, mongodb/mongodb-community-server:latest
//   - Neo4j: polyglot-neo4j, neo4j:5.24.1, ports 7474 and 7687
//   - PostgreSQL: polyglot-postgres, postgres, published on 5433
//
// An action on all services attempts each one exactly once, in that order,
// and never stops at the first failure. Nothing is rolled back.
//
// # Usage
//
//	export BACKEND_ADDR=backend.internal DB_ADDR=10.0.0.7
//	polyglot setup               # every service, then register
//	polyglot setup neo4j         # a single service
//	polyglot teardown            # stop and remove every container
//	polyglot status              # container state and connectivity
//	polyglot register            # registration only
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (./polyglot.yaml, see "polyglot config init")
//   - Environment variables (POLYGLOT_ prefix)
//   - .env file
//
// Passwords live in ./POSTGRES_PASSWORD and ./NEO4J_PASSWORD, or in the OS
// keyring when credentials.source is keyring.
//
// # Development
//
// Run unit tests:
//
//	go test -short ./...
//
// Run the schema integration test (requires Docker):
//
//	go test ./internal/schema/...
//
// Build the binary:
//
//	go build -o polyglot ./cmd/polyglot
package polyglot
