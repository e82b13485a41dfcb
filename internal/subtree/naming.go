package subtree

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/git"
)

const (
	splitMarker = "#ST"
	tempMarker  = "#TMP"

	// subtreeTrailer is the commit message key git subtree writes on split and rejoin commits.
	subtreeTrailer = "git-subtree-dir"
)

// SplitBranchName derives the dated split branch for name, e.g. lib#ST240305.
func SplitBranchName(name string, t time.Time) string {
	return name + splitMarker + t.Format("060102")
}

// ResolveSplitBranch returns the configured split branch, or the derived one for t.
func ResolveSplitBranch(e config.SubtreeEntry, t time.Time) string {
	if e.SplitBranch != "" {
		return e.SplitBranch
	}
	return SplitBranchName(e.Name, t)
}

// RequireSplitBranch returns the configured split branch and fails when there is none.
func RequireSplitBranch(e config.SubtreeEntry) (string, error) {
	if strings.TrimSpace(e.SplitBranch) == "" {
		return "", fmt.Errorf("%s: %w", e.Name, apperrors.ErrMissingSplitBranch)
	}
	return e.SplitBranch, nil
}

// TempBranchName returns a unique throwaway branch name used by ephemeral pushes.
func TempBranchName(name string, t time.Time) string {
	return name + tempMarker + strconv.FormatInt(t.UnixNano(), 10)
}

// DetectPriorSplit reports whether a split already exists for e. A local branch
// named like the split branch, or any <name>#ST branch, counts; failing that,
// commit messages carrying git subtree metadata for the prefix do. The returned
// branch is the matching local branch, or the split branch for t.
func DetectPriorSplit(ctx context.Context, repo *git.Repo, e config.SubtreeEntry, t time.Time) (bool, string, error) {
	want := ResolveSplitBranch(e, t)

	branches, err := repo.ListLocalBranches(ctx)
	if err != nil {
		return false, want, err
	}
	for _, b := range branches {
		if b == want {
			return true, b, nil
		}
	}
	for _, b := range branches {
		if strings.HasPrefix(b, e.Name+splitMarker) {
			return true, b, nil
		}
	}

	hashes, err := repo.LogGrep(ctx, subtreeTrailer, e.Prefix)
	if err != nil {
		return false, want, err
	}
	return len(hashes) > 0, want, nil
}
