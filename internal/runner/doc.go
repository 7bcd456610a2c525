// Package runner executes host command lines under the platform shell.
//
// A command line is always handed to the shell as a single opaque string
// (`sh -c <line>` or `cmd /C <line>`), so callers pre-format it completely,
// including any embedded secrets. Cmd and Words replace secrets with Mask in
// Command.Display, which is the only form that reaches logs and the Result.
//
// Failure classes are kept apart:
//   - ErrLaunch: the interpreter itself could not be started
//   - ErrNonZeroExit: the command ran and exited with a non-zero status
//   - ErrTimeout: the runner's own deadline expired
//   - ErrCanceled: the caller's context was done before or during the run
//
// Callers decide how fatal each one is.
package runner
