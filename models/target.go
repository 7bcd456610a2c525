package models

import (
	"errors"
	"fmt"
)

// Target selects the database service(s) an action applies to.
type Target int

const (
	// All expands to every managed service.
	All Target = iota
	Postgres
	MongoDB
	Neo4j
)

// ErrUnknownTarget is returned by ParseTarget for tokens that name no service.
var ErrUnknownTarget = errors.New("unknown target")

// Services lists the concrete services All expands to, in dispatch order.
var Services = []Target{MongoDB, Neo4j, Postgres}

// ParseTarget maps a CLI token onto a Target. The empty token selects All;
// tokens are matched exactly.
func ParseTarget(token string) (Target, error) {
	switch token {
	case "":
		return All, nil
	case "postgres":
		return Postgres, nil
	case "mongodb":
		return MongoDB, nil
	case "neo4j":
		return Neo4j, nil
	default:
		return All, fmt.Errorf("%w: %q (expected postgres, mongodb or neo4j)", ErrUnknownTarget, token)
	}
}

// Expand returns the concrete services selected by t.
func (t Target) Expand() []Target {
	if t == All {
		out := make([]Target, len(Services))
		copy(out, Services)
		return out
	}
	return []Target{t}
}

func (t Target) String() string {
	switch t {
	case All:
		return "all"
	case Postgres:
		return "postgres"
	case MongoDB:
		return "mongodb"
	case Neo4j:
		return "neo4j"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// DisplayName is the human readable product name.
func (t Target) DisplayName() string {
	switch t {
	case Postgres:
		return "PostgreSQL"
	case MongoDB:
		return "MongoDB"
	case Neo4j:
		return "Neo4j"
	default:
		return t.String()
	}
}

// ContainerName is the fixed container name used by both setup and teardown.
// All has no container and returns an empty string.
func (t Target) ContainerName() string {
	if t == All {
		return ""
	}
	return ContainerPrefix + t.String()
}

// ContainerPrefix namespaces every container this tool creates.
const ContainerPrefix = "polyglot-"
