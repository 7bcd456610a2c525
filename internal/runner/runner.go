package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/polyglot/internal/platform"
)

var (
	// ErrLaunch means the shell could not be spawned at all.
	ErrLaunch = errors.New("failed to launch command interpreter")

	// ErrNonZeroExit means the command ran but reported failure.
	ErrNonZeroExit = errors.New("command exited with non-zero status")

	// ErrTimeout means the command did not finish before its deadline.
	ErrTimeout = errors.New("command timed out")

	// ErrCanceled means the caller's context ended before or during the run.
	ErrCanceled = errors.New("command canceled")
)

// Mask replaces secrets in printable command lines.
const Mask = "****"

// Command is a fully formatted command line plus the form that is safe to
// print. Display is used wherever the command is logged or echoed.
type Command struct {
	Line    string
	Display string
}

// Cmd builds a Command whose Display has every non-empty secret masked.
func Cmd(line string, secrets ...string) Command {
	return Command{Line: line, Display: mask(line, secrets)}
}

// Words joins words into one line, passing each through quote. Secrets are
// masked per word before quoting, so quoting cannot split a secret.
func Words(quote func(string) string, words []string, secrets ...string) Command {
	line := make([]string, len(words))
	display := make([]string, len(words))
	for i, w := range words {
		line[i] = quote(w)
		display[i] = quote(mask(w, secrets))
	}
	return Command{Line: strings.Join(line, " "), Display: strings.Join(display, " ")}
}

func mask(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, Mask)
		}
	}
	return s
}

// String renders the printable form.
func (c Command) String() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Line
}

// Result is the outcome of one invocation.
type Result struct {
	// Command is the masked command line
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// ExitError is returned when the command ran and exited non-zero.
type ExitError struct {
	Result Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%q exited with status %d", e.Result.Command, e.Result.ExitCode)
	if stderr := strings.TrimSpace(e.Result.Stderr); stderr != "" {
		msg += ": " + lastLine(stderr)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return ErrNonZeroExit
}

// Runner executes a single command line.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ShellRunner runs commands through the platform shell, capturing their
// output while reprinting it to Stdout and Stderr.
type ShellRunner struct {
	// Platform selects the shell convention
	Platform platform.HostPlatform

	// Interpreter overrides the platform shell binary when set
	Interpreter string

	// Stdout and Stderr receive the child's streams (default: os.Stdout, os.Stderr)
	Stdout io.Writer
	Stderr io.Writer

	// Timeout bounds each invocation; zero disables it
	Timeout time.Duration

	// DryRun prints commands instead of executing them
	DryRun bool

	Logger logrus.FieldLogger
}

// NewShellRunner creates a runner for the given platform.
func NewShellRunner(p platform.HostPlatform, timeout time.Duration, logger logrus.FieldLogger) *ShellRunner {
	return &ShellRunner{
		Platform: p,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Timeout:  timeout,
		Logger:   logger,
	}
}

// Run executes cmd and blocks until it exits.
func (r *ShellRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Command: cmd.String()}
	log := r.logger().WithField("command", res.Command)

	if r.DryRun {
		fmt.Fprintf(r.stderr(), "+ %s\n", res.Command)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%w: %s: %w", ErrCanceled, res.Command, err)
	}

	parent := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := r.Platform.Argv(cmd.Line)
	if r.Interpreter != "" {
		argv[0] = r.Interpreter
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdout = io.MultiWriter(r.stdout(), &stdout)
	c.Stderr = io.MultiWriter(r.stderr(), &stderr)
	c.WaitDelay = time.Second

	log.Debug("running command")
	start := time.Now()
	err := c.Run()
	res.Duration = time.Since(start)
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if err == nil {
		log.WithField("duration", res.Duration).Debug("command finished")
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if parent.Err() == nil && errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s: %s", ErrTimeout, r.Timeout, res.Command)
		}
		log.WithError(ctxErr).Warn("command canceled")
		return res, fmt.Errorf("%w: %s: %w", ErrCanceled, res.Command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		log.WithField("exit_code", res.ExitCode).Warn("command failed")
		return res, &ExitError{Result: res}
	}

	res.ExitCode = -1
	return res, fmt.Errorf("%w: %s: %v", ErrLaunch, argv[0], err)
}

func (r *ShellRunner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *ShellRunner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

func (r *ShellRunner) logger() logrus.FieldLogger {
	if r.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return r.Logger
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
