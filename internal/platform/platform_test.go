package platform

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGOOS(t *testing.T) {
	assert.Equal(t, Windows, FromGOOS("windows"))
	for _, goos := range []string{"linux", "darwin", "freebsd"} {
		assert.Equal(t, Unix, FromGOOS(goos), goos)
	}
}

func TestArgv(t *testing.T) {
	line := "docker run --name polyglot-mongodb -d mongo"

	assert.Equal(t, []string{"sh", "-c", line}, Unix.Argv(line))
	assert.Equal(t, []string{"cmd", "/C", line}, Windows.Argv(line))
}

func TestDetectMatchesRuntime(t *testing.T) {
	assert.Equal(t, FromGOOS(runtime.GOOS), Detect())
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		unix    string
		windows string
	}{
		{"plain", "hunter2", "hunter2", "hunter2"},
		{"image ref", "mongodb/mongodb-community-server:latest", "mongodb/mongodb-community-server:latest", "mongodb/mongodb-community-server:latest"},
		{"space", "two words", "'two words'", `"two words"`},
		{"single quote", "it's", `'it'\''s'`, `"it's"`},
		{"double quote", `say "hi"`, `'say "hi"'`, `"say ""hi"""`},
		{"shell meta", "a;rm -rf", "'a;rm -rf'", `"a;rm -rf"`},
		{"empty", "", "''", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unix, Unix.Quote(tt.in))
			assert.Equal(t, tt.windows, Windows.Quote(tt.in))
		})
	}
}
