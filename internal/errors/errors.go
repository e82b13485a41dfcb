// Package errors defines the sentinel errors shared across subtreesync.
package errors

import "errors"

var (
	ErrEntryNotFound      = errors.New("subtree entry not found")
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrNoWorkspace        = errors.New("no workspace configured")
	ErrMissingSplitBranch = errors.New("split branch not configured")
	ErrNotGitRepo         = errors.New("not a git repository")
	ErrDirtyWorkingTree   = errors.New("working tree has uncommitted changes")
	ErrUnsafePrefix       = errors.New("refusing to operate on unsafe prefix")
	ErrCommandNotFound    = errors.New("command not found")
	ErrCommandFailed      = errors.New("command failed")
	ErrInvalidEntry       = errors.New("invalid subtree entry")

	ErrConfirmationRequired = errors.New("confirmation required: rerun with --yes")
)
