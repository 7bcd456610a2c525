// Package platform resolves the host shell convention.
//
// The platform is detected once at process start and passed explicitly to
// every component that spawns commands, so that all services in one run
// target the same shell even if detection changes later.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// HostPlatform selects how command lines are handed to the OS shell.
type HostPlatform int

const (
	Unix HostPlatform = iota
	Windows
)

// Detect resolves the platform of the running process.
func Detect() HostPlatform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value onto a HostPlatform.
func FromGOOS(goos string) HostPlatform {
	if goos == "windows" {
		return Windows
	}
	return Unix
}

// Shell returns the interpreter and its "run string and exit" flag.
func (p HostPlatform) Shell() (name, flag string) {
	if p == Windows {
		return "cmd", "/C"
	}
	return "sh", "-c"
}

// Argv builds the full argument vector that runs line under the shell.
// The line is passed as one opaque argument.
func (p HostPlatform) Argv(line string) []string {
	name, flag := p.Shell()
	return []string{name, flag, line}
}

func (p HostPlatform) String() string {
	switch p {
	case Unix:
		return "unix"
	case Windows:
		return "windows"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// Quote makes s safe to embed as one word in a command line for this
// platform's shell. Plain words are returned unchanged.
func (p HostPlatform) Quote(s string) string {
	if s != "" && !strings.ContainsFunc(s, needsQuote) {
		return s
	}
	if p == Windows {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func needsQuote(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=@%+,", r):
		return false
	}
	return true
}
