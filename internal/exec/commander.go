// Package exec provides interfaces and implementations for command execution.
// Every external tool subtreesync drives goes through a Commander, which keeps
// the git layer and the subtree operations testable without a real git.
package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "github.com/naoray/subtreesync/internal/errors"
)

// DefaultGracePeriod is how long a cancelled child gets between SIGTERM and SIGKILL.
const DefaultGracePeriod = 500 * time.Millisecond

// Mode selects how a command's output reaches the user.
type Mode int

const (
	// ModeBuffered runs the command to completion and only returns its output.
	ModeBuffered Mode = iota
	// ModeStream forwards every output line to the commander's writer as it arrives.
	ModeStream
)

func (m Mode) String() string {
	switch m {
	case ModeBuffered:
		return "buffered"
	case ModeStream:
		return "stream"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Request describes a single command invocation.
type Request struct {
	Dir     string
	Command string
	Args    []string
	Mode    Mode
	// ShowCommand prints "$ <command line>" before the command starts.
	ShowCommand bool
}

// CommandLine renders the request the way a user would type it.
func (r Request) CommandLine() string {
	if len(r.Args) == 0 {
		return r.Command
	}
	return r.Command + " " + strings.Join(r.Args, " ")
}

// Result is the outcome of a command that was started.
type Result struct {
	// Success is true iff the process exited with status zero.
	Success bool
	// Output holds combined stdout and stderr, decoded as UTF-8 and trimmed.
	Output   string
	ExitCode int
}

// Commander defines the interface for executing commands.
// Implementations can provide real command execution or mock behavior for testing.
type Commander interface {
	// Run executes the request. A non-zero exit is reported through Result with a
	// nil error; the error is reserved for commands that could not be started or
	// were interrupted.
	Run(ctx context.Context, req Request) (Result, error)
}

// RealCommander executes commands using the real operating system.
type RealCommander struct {
	// Out receives streamed output and the echoed command line. Defaults to os.Stdout.
	Out io.Writer
	// GracePeriod bounds the wait between SIGTERM and SIGKILL after cancellation.
	GracePeriod time.Duration
}

// Run starts the command with stdout and stderr sharing one pipe and reads it
// line by line until the command has exited and the pipe is drained.
func (c *RealCommander) Run(ctx context.Context, req Request) (Result, error) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	grace := c.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	if req.ShowCommand {
		fmt.Fprintf(out, "$ %s\n", req.CommandLine())
	}

	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	cmd.Dir = req.Dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = grace

	// An io.Pipe rather than cmd.StdoutPipe: exec then owns the copy, and
	// WaitDelay can close it when a grandchild keeps the descriptor open.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return failedLaunch(req, err)
	}

	waitDone := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitDone <- err
	}()

	reader := bufio.NewReader(transform.NewReader(pr, unicode.UTF8.NewDecoder()))
	var buf strings.Builder
	var readErr error
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			buf.WriteString(line)
			if req.Mode == ModeStream {
				io.WriteString(out, line)
				if !strings.HasSuffix(line, "\n") {
					io.WriteString(out, "\n")
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}
	pr.Close()

	waitErr := <-waitDone
	output := strings.TrimSpace(buf.String())

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{Output: output, ExitCode: -1}, fmt.Errorf("%s interrupted: %w", req.Command, ctxErr)
	}
	if waitErr != nil {
		if code, ok := exitCode(waitErr); ok {
			return Result{Output: output, ExitCode: code}, nil
		}
		return Result{Output: output, ExitCode: -1}, fmt.Errorf("waiting for %s: %w", req.Command, waitErr)
	}
	if readErr != nil {
		return Result{Output: output, ExitCode: -1}, fmt.Errorf("reading output of %s: %w", req.Command, readErr)
	}

	return Result{Success: true, Output: output}, nil
}

func failedLaunch(req Request, err error) (Result, error) {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return Result{
			Output:   fmt.Sprintf("command not found: %s (is it installed and on PATH?)", req.Command),
			ExitCode: -1,
		}, fmt.Errorf("%s: %w", req.Command, apperrors.ErrCommandNotFound)
	}
	return Result{
		Output:   fmt.Sprintf("failed to start %s: %v", req.Command, err),
		ExitCode: -1,
	}, fmt.Errorf("starting %s: %w", req.Command, err)
}

func exitCode(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

// CommandExecutor provides a higher-level interface for common execution patterns.
// It wraps a Commander and provides convenience methods.
type CommandExecutor struct {
	commander Commander
}

// NewCommandExecutor creates a new CommandExecutor with the given Commander.
// If commander is nil, a RealCommander is used.
func NewCommandExecutor(commander Commander) *CommandExecutor {
	if commander == nil {
		commander = &RealCommander{}
	}
	return &CommandExecutor{commander: commander}
}

// Commander returns the wrapped Commander.
func (e *CommandExecutor) Commander() Commander {
	return e.commander
}

// RunBinary executes a binary command with arguments.
// The binary can contain spaces (e.g., "git -c core.quotepath=off") and will be properly split.
func (e *CommandExecutor) RunBinary(ctx context.Context, dir string, binary string, args []string, mode Mode) (Result, error) {
	binaryParts := strings.Fields(binary)
	if len(binaryParts) == 0 {
		return Result{ExitCode: -1}, fmt.Errorf("empty binary command")
	}

	allArgs := append(binaryParts[1:], args...)

	return e.commander.Run(ctx, Request{
		Dir:         dir,
		Command:     binaryParts[0],
		Args:        allArgs,
		Mode:        mode,
		ShowCommand: mode == ModeStream,
	})
}
