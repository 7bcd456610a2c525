// Package version carries build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Set by cmd/polyglot from -X linker flags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type Info struct {
	Version   string `json:"version" yaml:"version"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func Get() Info {
	return Info{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short is the version with an abbreviated commit, e.g. "1.2.0+3f9c2ab".
func (i Info) Short() string {
	commit := i.GitCommit
	if commit == "" || commit == "unknown" {
		return i.Version
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return i.Version + "+" + commit
}

// Dev reports whether the binary was built without release metadata.
func (i Info) Dev() bool {
	return i.Version == "dev" || strings.HasSuffix(i.Version, "-dirty")
}

// Fields attaches the build to a log entry.
func (i Info) Fields() logrus.Fields {
	return logrus.Fields{
		"version":  i.Short(),
		"platform": i.Platform,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Polyglot %s built at %s with %s on %s",
		i.Short(),
		i.BuildTime,
		i.GoVersion,
		i.Platform,
	)
}
