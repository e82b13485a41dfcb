// Package git wraps the git commands subtreesync needs. All of them run through
// an exec.CommandExecutor so callers can swap in a MockCommander.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/exec"
)

// CommandError reports a git invocation that exited non-zero.
type CommandError struct {
	Args   []string
	Result exec.Result
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed (exit %d)", strings.Join(e.Args, " "), e.Result.ExitCode)
	if e.Result.Output != "" {
		msg += ": " + e.Result.Output
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return apperrors.ErrCommandFailed
}

// Repo is a git working tree driven through the git binary.
type Repo struct {
	Dir    string
	Binary string

	executor *exec.CommandExecutor
}

// NewRepo returns a Repo rooted at dir. An empty binary means "git".
func NewRepo(dir, binary string, executor *exec.CommandExecutor) *Repo {
	if binary == "" {
		binary = "git"
	}
	if executor == nil {
		executor = exec.NewCommandExecutor(nil)
	}
	return &Repo{Dir: dir, Binary: binary, executor: executor}
}

// Run executes git with args in the given mode and returns the raw result.
func (r *Repo) Run(ctx context.Context, mode exec.Mode, args ...string) (exec.Result, error) {
	return r.executor.RunBinary(ctx, r.Dir, r.Binary, args, mode)
}

// output runs a buffered git command and turns a non-zero exit into a *CommandError.
func (r *Repo) output(ctx context.Context, args ...string) (string, error) {
	result, err := r.Run(ctx, exec.ModeBuffered, args...)
	if err != nil {
		return "", err
	}
	if !result.Success {
		return "", &CommandError{Args: args, Result: result}
	}
	return result.Output, nil
}

// CommandLine renders git args the way they are shown to the user.
func (r *Repo) CommandLine(args ...string) string {
	return exec.Request{Command: r.Binary, Args: args}.CommandLine()
}

// TopLevel returns the absolute path of the working tree root.
func (r *Repo) TopLevel(ctx context.Context) (string, error) {
	result, err := r.Run(ctx, exec.ModeBuffered, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	if !result.Success || result.Output == "" {
		return "", fmt.Errorf("%s: %w", r.Dir, apperrors.ErrNotGitRepo)
	}
	return filepath.Clean(result.Output), nil
}

// StatusShort returns the porcelain status of tracked files.
func (r *Repo) StatusShort(ctx context.Context) (string, error) {
	return r.output(ctx, "status", "--porcelain", "--untracked-files=no")
}

// IsDirty reports whether tracked files have uncommitted changes.
func (r *Repo) IsDirty(ctx context.Context) (bool, error) {
	status, err := r.StatusShort(ctx)
	if err != nil {
		return false, fmt.Errorf("checking working tree: %w", err)
	}
	return status != "", nil
}

// CommitAll stages every change and commits it with message.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if _, err := r.output(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}
	if _, err := r.output(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	return nil
}

// Stash stashes tracked changes under message.
func (r *Repo) Stash(ctx context.Context, message string) error {
	if _, err := r.output(ctx, "stash", "push", "-m", message); err != nil {
		return fmt.Errorf("stashing changes: %w", err)
	}
	return nil
}

// RevParse resolves rev to a commit hash.
func (r *Repo) RevParse(ctx context.Context, rev string) (string, error) {
	return r.output(ctx, "rev-parse", "--verify", "--quiet", rev)
}

// LogGrep returns the hashes of commits whose message matches any of patterns.
func (r *Repo) LogGrep(ctx context.Context, patterns ...string) ([]string, error) {
	args := []string{"log"}
	for _, p := range patterns {
		args = append(args, "--grep="+p)
	}
	args = append(args, "--pretty=format:%H")

	out, err := r.output(ctx, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RemoveDir deletes a directory below the repository root.
func (r *Repo) RemoveDir(rel string) error {
	path := filepath.Join(r.Dir, rel)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
