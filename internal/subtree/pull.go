package subtree

import (
	"context"
	"fmt"

	"github.com/naoray/subtreesync/internal/config"
	"github.com/naoray/subtreesync/internal/ui"
)

// PullOptions configures Pull and PullAll.
type PullOptions struct {
	Name string
	// Names limits PullAll to these entries.
	Names []string
	Yes   bool
}

// Pull merges the latest commits of the entry's remote branch into its prefix.
func (s *Service) Pull(ctx context.Context, opts PullOptions) error {
	entry, err := s.ResolveEntry(opts.Name, "Which subtree do you want to pull?")
	if err != nil {
		return err
	}
	s.warnIfDirty(ctx)
	return s.pullEntry(ctx, entry, opts.Yes)
}

// PullAll pulls every registered entry (or opts.Names) in order and keeps
// going after failures.
func (s *Service) PullAll(ctx context.Context, opts PullOptions) (Summary, error) {
	entries, err := s.batchEntries(opts.Names)
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		s.out.Warning("No subtrees registered")
		return Summary{}, nil
	}

	s.out.Block(ui.RenderEntriesTable(entries))

	if s.warnIfDirty(ctx) {
		if err := s.confirm(opts.Yes, "Continue with uncommitted changes?", "", false); err != nil {
			return Summary{}, err
		}
	}
	if err := s.confirm(opts.Yes, batchTitle("Pull", len(entries), opts.Names), "", true); err != nil {
		return Summary{}, err
	}

	summary := s.runBatch(ctx, "Pull", entries, func(ctx context.Context, e config.SubtreeEntry) error {
		return s.pullEntry(ctx, e, opts.Yes)
	})
	return summary, summary.Err()
}

func (s *Service) pullEntry(ctx context.Context, entry config.SubtreeEntry, yes bool) error {
	s.out.Header(fmt.Sprintf("Pulling %s into %s", entry.Name, entry.Prefix))

	if err := s.repo.EnsureRemote(ctx, entry.Name, entry.Remote); err != nil {
		return err
	}

	args := PullArgs(entry.Prefix, entry.Name, entry.Branch)
	result, err := s.runWithRemediation(ctx, "pulling", "Pulling "+entry.Name, args, yes)
	if err != nil {
		return err
	}
	if !result.Success {
		s.out.Error(fmt.Sprintf("Pulling %s failed", entry.Name))
		if IsConflict(result.Output) {
			s.out.Hint("The pull stopped on conflicts. Resolve them manually, then inspect with:", "  git status")
		}
		return commandFailed("pull", entry.Name, result)
	}

	if IsUpToDate(result.Output) {
		s.out.Info(fmt.Sprintf("%s is already up to date", entry.Prefix))
	} else {
		s.out.Success(fmt.Sprintf("Pulled %s", entry.Name))
	}
	entry.SetExtra("last_pull", s.timestamp())
	s.save(entry)
	return nil
}

// warnIfDirty warns about local changes and reports whether there were any.
func (s *Service) warnIfDirty(ctx context.Context) bool {
	dirty, err := s.repo.IsDirty(ctx)
	if err != nil {
		s.logger.Debug("checking working tree", "err", err)
		return false
	}
	if dirty {
		s.out.Warning("The working tree has uncommitted changes; committing or stashing them first is recommended")
	}
	return dirty
}
