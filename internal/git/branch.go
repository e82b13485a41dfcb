package git

import (
	"context"
	"fmt"
)

// ListLocalBranches returns all local branch names.
func (r *Repo) ListLocalBranches(ctx context.Context) ([]string, error) {
	out, err := r.output(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, fmt.Errorf("listing local branches: %w", err)
	}
	return splitLines(out), nil
}

// BranchExists checks if a local branch exists.
func (r *Repo) BranchExists(ctx context.Context, branch string) bool {
	_, err := r.RevParse(ctx, "refs/heads/"+branch)
	return err == nil
}

// DeleteBranch deletes a local branch.
func (r *Repo) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := r.output(ctx, "branch", flag, branch); err != nil {
		return fmt.Errorf("deleting branch %s: %w", branch, err)
	}
	return nil
}
