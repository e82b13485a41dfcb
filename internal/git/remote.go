package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/naoray/subtreesync/internal/exec"
)

// GetRemoteURL retrieves the remote URL for a given remote name.
// Returns empty string and nil error if remote is not configured.
func (r *Repo) GetRemoteURL(ctx context.Context, remote string) (string, error) {
	result, err := r.Run(ctx, exec.ModeBuffered, "config", "--get", fmt.Sprintf("remote.%s.url", remote))
	if err != nil {
		return "", fmt.Errorf("getting remote URL: %w", err)
	}
	if !result.Success {
		// git config exits 1 when the key is unset
		if result.ExitCode == 1 {
			return "", nil
		}
		return "", fmt.Errorf("getting remote URL: %w", &CommandError{Args: []string{"config", "--get", "remote." + remote + ".url"}, Result: result})
	}
	return strings.TrimSpace(result.Output), nil
}

// AddRemote registers a new remote.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	if _, err := r.output(ctx, "remote", "add", name, url); err != nil {
		return fmt.Errorf("adding remote %s: %w", name, err)
	}
	return nil
}

// SetRemoteURL points an existing remote at url.
func (r *Repo) SetRemoteURL(ctx context.Context, name, url string) error {
	if _, err := r.output(ctx, "remote", "set-url", name, url); err != nil {
		return fmt.Errorf("updating remote %s: %w", name, err)
	}
	return nil
}

// EnsureRemote makes sure remote name exists and points at url.
// This is idempotent - safe to call multiple times.
func (r *Repo) EnsureRemote(ctx context.Context, name, url string) error {
	current, err := r.GetRemoteURL(ctx, name)
	if err != nil {
		return err
	}
	switch current {
	case url:
		return nil
	case "":
		return r.AddRemote(ctx, name, url)
	default:
		return r.SetRemoteURL(ctx, name, url)
	}
}

// LsRemoteHead returns the commit a remote branch points at, or "" when it does not exist.
func (r *Repo) LsRemoteHead(ctx context.Context, remote, branch string) (string, error) {
	out, err := r.output(ctx, "ls-remote", remote, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("querying %s/%s: %w", remote, branch, err)
	}
	for _, line := range splitLines(out) {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "refs/heads/"+branch {
			return fields[0], nil
		}
	}
	return "", nil
}
