package subtree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/exec"
	"github.com/naoray/subtreesync/internal/ui"
)

const (
	remedyCommit = "commit"
	remedyStash  = "stash"
	remedyCancel = "cancel"
)

// IsWorkingTreeModified reports whether git refused to run because of local changes.
func IsWorkingTreeModified(output string) bool {
	out := strings.ToLower(output)
	return strings.Contains(out, "working tree has modifications") ||
		strings.Contains(out, "your local changes") ||
		strings.Contains(out, "uncommitted changes")
}

// IsConflict reports whether git stopped on a merge conflict.
func IsConflict(output string) bool {
	return strings.Contains(strings.ToLower(output), "conflict")
}

// IsUpToDate reports whether a pull found nothing new.
func IsUpToDate(output string) bool {
	return strings.Contains(output, "Already up to date") || strings.Contains(output, "Already up-to-date")
}

// ensureClean checks the working tree before op. A dirty tree is offered the
// commit/stash/cancel remediation when someone can answer, and is an error otherwise.
func (s *Service) ensureClean(ctx context.Context, op string, yes bool) error {
	dirty, err := s.repo.IsDirty(ctx)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if yes || s.prompter == nil {
		s.out.Hint("Commit or stash your changes first:", "  git add -A && git commit", "  git stash")
		return fmt.Errorf("%s: %w", op, apperrors.ErrDirtyWorkingTree)
	}
	return s.remediate(ctx, op)
}

// remediate lets the user commit or stash local changes, or cancel op.
func (s *Service) remediate(ctx context.Context, op string) error {
	s.out.Warning("The working tree has uncommitted changes")

	choice, err := s.prompter.Select("How do you want to continue?", []ui.Option{
		{Label: "Commit all changes", Value: remedyCommit},
		{Label: "Stash changes", Value: remedyStash},
		{Label: "Cancel", Value: remedyCancel},
	})
	if err != nil {
		return err
	}

	switch choice {
	case remedyCommit:
		message, err := s.prompter.Input("Commit message", "", fmt.Sprintf("Auto commit before %s subtree", op), requireText)
		if err != nil {
			return err
		}
		if err := s.repo.CommitAll(ctx, message); err != nil {
			return err
		}
		s.out.Success("Changes committed")
	case remedyStash:
		if err := s.repo.Stash(ctx, fmt.Sprintf("subtreesync: before %s", op)); err != nil {
			return err
		}
		s.out.Success("Changes stashed")
		s.out.Hint("Restore them afterwards with: git stash pop")
	default:
		return ui.ErrUserAborted
	}
	return nil
}

// runWithRemediation runs args and, when git rejects them because of local
// changes, offers the remediation and retries once.
func (s *Service) runWithRemediation(ctx context.Context, op, title string, args []string, yes bool) (exec.Result, error) {
	result, err := s.runGit(ctx, title, args)
	if err != nil || result.Success {
		return result, err
	}
	if !IsWorkingTreeModified(result.Output) || yes || s.prompter == nil {
		return result, nil
	}

	if err := s.remediate(ctx, op); err != nil {
		return result, err
	}
	s.out.Info("Retrying " + op)
	return s.runGit(ctx, title, args)
}

func requireText(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("must not be empty")
	}
	return nil
}
