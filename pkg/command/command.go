// Package command executes user-configured shell commands for pulsebar
// blocks. Every command runs as `$SHELL -c <command>`, falling back to `sh`
// when the environment does not name a shell. Stdout is captured and decoded
// as UTF-8 with invalid sequences replaced; stderr is ignored.
package command

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// fallbackShell is used when $SHELL is unset or empty.
const fallbackShell = "sh"

// Operation tags for Error.Op.
const (
	OpSpawn   = "spawn"
	OpIO      = "io"
	OpExit    = "exit"
	OpTimeout = "timeout"
)

// Error describes a failed command invocation. Op is one of the Op*
// constants; Cmd is the shell command string as configured.
type Error struct {
	Op  string
	Cmd string
	Err error
}

func (e *Error) Error() string {
	return "command " + e.Op + " (" + e.Cmd + "): " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner abstracts shell execution so blocks can be tested without spawning
// processes.
type Runner interface {
	// Run executes cmd and returns its trimmed stdout. The exit status is
	// not inspected; state-probe utilities may exit non-zero while still
	// producing meaningful output.
	Run(cmd string) (string, error)

	// RunChecked executes cmd and requires exit status zero.
	RunChecked(cmd string) error
}

// ShellRunner runs commands through the user's preferred shell. A zero
// Timeout disables the deadline.
type ShellRunner struct {
	// Timeout bounds each invocation. Zero means wait indefinitely; a
	// wedged command then stalls its block.
	Timeout time.Duration
}

// shell resolves the shell binary for a single invocation. $SHELL is read
// each time rather than cached so a changed environment takes effect on the
// next poll.
func shell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return fallbackShell
}

// Run implements Runner. Output is decoded lossily and trimmed of
// surrounding whitespace.
func (r ShellRunner) Run(cmd string) (string, error) {
	ctx, cancel := r.deadline()
	defer cancel()

	out, err := exec.CommandContext(ctx, shell(), "-c", cmd).Output()
	if err != nil && (ctx.Err() != nil || !isExitError(err)) {
		return "", classifyErr(ctx, cmd, err)
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(out), "�")), nil
}

// RunChecked implements Runner.
func (r ShellRunner) RunChecked(cmd string) error {
	ctx, cancel := r.deadline()
	defer cancel()

	if err := exec.CommandContext(ctx, shell(), "-c", cmd).Run(); err != nil {
		return classifyErr(ctx, cmd, err)
	}
	return nil
}

func (r ShellRunner) deadline() (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), r.Timeout)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// classifyErr maps an exec failure onto the command error taxonomy.
func classifyErr(ctx context.Context, cmd string, err error) error {
	switch {
	case ctx.Err() != nil:
		return &Error{Op: OpTimeout, Cmd: cmd, Err: ctx.Err()}
	case isExitError(err):
		return &Error{Op: OpExit, Cmd: cmd, Err: err}
	default:
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return &Error{Op: OpSpawn, Cmd: cmd, Err: err}
		}
		return &Error{Op: OpIO, Cmd: cmd, Err: err}
	}
}

var _ Runner = ShellRunner{}
