// Package credentials loads per-service secrets at the point of use.
//
// Secrets are opaque: nothing beyond a trailing line break is stripped, and
// the only check is that the value is not empty. A Secret never renders its value through fmt, logrus or
// encoding; Reveal is the only way to get at it.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"evalgo.org/polyglot/internal/config"
	"evalgo.org/polyglot/models"
)

// ErrNoCredential is returned when no secret is configured or stored for a service.
var ErrNoCredential = errors.New("no credential configured")

const redacted = "[REDACTED]"

// Secret is an opaque credential value.
type Secret struct {
	value string
}

// NewSecret wraps a raw value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the raw value. Only use it to build commands or DSNs.
func (s Secret) Reveal() string {
	return s.value
}

// IsEmpty reports whether the secret holds no value.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

// Format keeps every fmt verb from printing the value.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Loader returns the secret for a service.
type Loader interface {
	Load(target models.Target) (Secret, error)
}

// FileLoader reads single-line secret files.
type FileLoader struct {
	Paths map[models.Target]string
}

// Load reads the file configured for target on every call.
func (l FileLoader) Load(target models.Target) (Secret, error) {
	path, ok := l.Paths[target]
	if !ok || path == "" {
		return Secret{}, fmt.Errorf("%w for %s", ErrNoCredential, target)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Secret{}, fmt.Errorf("failed to read %s credential file %s: %w", target, path, err)
	}

	return nonEmpty(target, path, NewSecret(firstLine(string(data))))
}

// KeyringLoader reads secrets from the OS keyring, one entry per service
// under a shared keyring service name.
type KeyringLoader struct {
	Service string
}

// Load fetches the keyring entry named after target.
func (l KeyringLoader) Load(target models.Target) (Secret, error) {
	value, err := keyring.Get(l.Service, target.String())
	if errors.Is(err, keyring.ErrNotFound) {
		return Secret{}, fmt.Errorf("%w for %s in keyring %q", ErrNoCredential, target, l.Service)
	}
	if err != nil {
		return Secret{}, fmt.Errorf("failed to read %s credential from keyring: %w", target, err)
	}
	return nonEmpty(target, "keyring "+l.Service, NewSecret(firstLine(value)))
}

// NewLoader selects the loader configured in cfg.
func NewLoader(cfg config.CredentialsConfig) (Loader, error) {
	switch cfg.Source {
	case "", "file":
		return FileLoader{Paths: map[models.Target]string{
			models.Postgres: cfg.PostgresFile,
			models.Neo4j:    cfg.Neo4jFile,
		}}, nil
	case "keyring":
		return KeyringLoader{Service: cfg.KeyringService}, nil
	default:
		return nil, fmt.Errorf("unknown credential source %q", cfg.Source)
	}
}

// nonEmpty rejects a blank secret.
func nonEmpty(target models.Target, source string, s Secret) (Secret, error) {
	if s.IsEmpty() {
		return Secret{}, fmt.Errorf("%w for %s: %s is empty", ErrNoCredential, target, source)
	}
	return s, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "\r")
}
