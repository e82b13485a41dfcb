package subtree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/taskfile"
	"github.com/naoray/subtreesync/internal/ui"
	"github.com/naoray/subtreesync/internal/utils"
)

// BatchRemovePhrase has to be typed to remove every subtree at once.
const BatchRemovePhrase = "DELETE ALL SUBTREES"

const (
	removeConfig = "config"
	removeAll    = "all"
	removeCancel = "cancel"
)

// RemoveOptions configures Remove and RemoveAll.
type RemoveOptions struct {
	Name         string
	KeepConfig   bool
	KeepTaskfile bool
	KeepFiles    bool
	Yes          bool
	// Names limits RemoveAll to these entries.
	Names []string
}

// Remove drops an entry: first from the registry, then from the Taskfile, then
// its files under the prefix. The prefix is checked before anything changes.
func (s *Service) Remove(ctx context.Context, opts RemoveOptions) error {
	entry, err := s.ResolveEntry(opts.Name, "Which subtree do you want to remove?")
	if err != nil {
		return err
	}

	if !opts.Yes && s.prompter != nil && !opts.KeepFiles {
		s.out.Block(ui.RenderEntryDetail(entry, ResolveSplitBranch(entry, s.now())))
		choice, err := s.prompter.Select(fmt.Sprintf("What should be removed for %s?", entry.Name), []ui.Option{
			{Label: "Registry and Taskfile entries only, keep the files", Value: removeConfig},
			{Label: fmt.Sprintf("Everything, including the files under %s", entry.Prefix), Value: removeAll},
			{Label: "Cancel", Value: removeCancel},
		})
		if err != nil {
			return err
		}
		switch choice {
		case removeConfig:
			opts.KeepFiles = true
		case removeCancel:
			return ui.ErrUserAborted
		}
	}

	title := fmt.Sprintf("Remove %s from the registry?", entry.Name)
	if !opts.KeepFiles {
		title = fmt.Sprintf("Remove %s and delete %s?", entry.Name, entry.Prefix)
	}
	if err := s.confirm(opts.Yes, title, "", false); err != nil {
		return err
	}

	return s.removeEntry(ctx, entry, opts)
}

// RemoveAll removes every entry (or opts.Names) after the user typed
// BatchRemovePhrase.
func (s *Service) RemoveAll(ctx context.Context, opts RemoveOptions) (Summary, error) {
	entries, err := s.batchEntries(opts.Names)
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		s.out.Warning("No subtrees registered")
		return Summary{}, nil
	}

	s.out.Block(ui.RenderEntriesTable(entries))
	if !opts.Yes {
		if s.prompter == nil {
			return Summary{}, fmt.Errorf("removing all subtrees: %w", apperrors.ErrConfirmationRequired)
		}
		ok, err := s.prompter.TypedConfirm(fmt.Sprintf("Type %q to remove %d subtrees", BatchRemovePhrase, len(entries)), BatchRemovePhrase)
		if err != nil {
			return Summary{}, err
		}
		if !ok {
			return Summary{}, ui.ErrUserAborted
		}
	}

	summary := s.runBatch(ctx, "Remove", entries, func(ctx context.Context, e config.SubtreeEntry) error {
		return s.removeEntry(ctx, e, opts)
	})
	return summary, summary.Err()
}

func (s *Service) removeEntry(ctx context.Context, entry config.SubtreeEntry, opts RemoveOptions) error {
	if !opts.KeepFiles {
		if err := utils.CheckPrefixSafe(entry.Prefix, s.settings.ProtectedPrefixes); err != nil {
			return err
		}
	}

	if !opts.KeepConfig {
		removed, err := s.registry.Delete(entry.Name)
		if err != nil {
			return fmt.Errorf("removing %s from the registry: %w", entry.Name, err)
		}
		if removed {
			s.out.Success(fmt.Sprintf("Removed %s from the registry", entry.Name))
		}
	}

	if !opts.KeepTaskfile && s.settings.Taskfile.Enabled {
		s.removeFromTaskfile(entry)
	}

	if opts.KeepFiles {
		return nil
	}
	return s.deleteFiles(ctx, entry)
}

func (s *Service) removeFromTaskfile(entry config.SubtreeEntry) {
	path := s.taskfilePath()
	removed, err := taskfile.Remove(path, entry.Prefix)
	switch {
	case errors.Is(err, taskfile.ErrNotFound), errors.Is(err, taskfile.ErrSectionNotFound):
		s.logger.Debug("nothing to remove from taskfile", "path", path, "err", err)
	case err != nil:
		s.logger.Warn("updating taskfile", "path", path, "err", err)
		s.out.Warning(fmt.Sprintf("Could not update %s: %v", filepath.Base(path), err))
	case removed:
		s.out.Success(fmt.Sprintf("Removed %s from %s", entry.Prefix, filepath.Base(path)))
	}
}

func (s *Service) deleteFiles(ctx context.Context, entry config.SubtreeEntry) error {
	prefix := utils.NormalizePrefix(entry.Prefix)
	if _, err := os.Stat(filepath.Join(s.repo.Dir, prefix)); errors.Is(err, os.ErrNotExist) {
		s.out.Info(fmt.Sprintf("%s does not exist, no files to delete", prefix))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.repo.RemoveDir(prefix); err != nil {
		return err
	}

	s.out.Success(fmt.Sprintf("Deleted %s", prefix))
	s.out.Hint(
		"Commit the removal with:",
		fmt.Sprintf("  git add -A %s && git commit -m \"Remove subtree %s\"", prefix, entry.Name),
	)
	return nil
}
