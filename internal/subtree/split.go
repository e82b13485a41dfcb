package subtree

import (
	"context"
	"fmt"

	"github.com/naoray/subtreesync/internal/config"
	"github.com/naoray/subtreesync/internal/ui"
)

// SplitOptions configures Split and SplitAll.
type SplitOptions struct {
	Name   string
	Rejoin bool
	Yes    bool
	// Copy puts the git command on the clipboard instead of running it.
	Copy bool
	// Names limits SplitAll to these entries.
	Names []string
}

// Split extracts the history of the entry's prefix into its split branch.
func (s *Service) Split(ctx context.Context, opts SplitOptions) error {
	entry, err := s.ResolveEntry(opts.Name, "Which subtree do you want to split?")
	if err != nil {
		return err
	}
	return s.splitEntry(ctx, entry, opts)
}

// SplitAll splits every registered entry (or opts.Names) in order.
func (s *Service) SplitAll(ctx context.Context, opts SplitOptions) (Summary, error) {
	entries, err := s.batchEntries(opts.Names)
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		s.out.Warning("No subtrees registered")
		return Summary{}, nil
	}

	s.out.Block(ui.RenderEntriesTable(entries))
	if !opts.Copy {
		if err := s.confirm(opts.Yes, batchTitle("Split", len(entries), opts.Names), "", true); err != nil {
			return Summary{}, err
		}
	}

	summary := s.runBatch(ctx, "Split", entries, func(ctx context.Context, e config.SubtreeEntry) error {
		return s.splitEntry(ctx, e, opts)
	})
	return summary, summary.Err()
}

func (s *Service) splitEntry(ctx context.Context, entry config.SubtreeEntry, opts SplitOptions) error {
	now := s.now()
	branch := ResolveSplitBranch(entry, now)
	args := SplitArgs(entry.Prefix, branch, opts.Rejoin)

	if opts.Copy {
		s.copyCommands(s.repo.CommandLine(args...))
		return nil
	}

	s.out.Header(fmt.Sprintf("Splitting %s into %s", entry.Prefix, branch))

	found, existing, err := DetectPriorSplit(ctx, s.repo, entry, now)
	if err != nil {
		s.logger.Debug("detecting prior split", "name", entry.Name, "err", err)
	}
	if found {
		s.out.Info(fmt.Sprintf("A split already exists for %s (%s)", entry.Prefix, existing))
		ok, err := s.ask(opts.Yes, "Split again?", "", true)
		if err != nil {
			return err
		}
		if !ok {
			return ui.ErrUserAborted
		}
	}

	_, err = s.runSplit(ctx, entry, branch, opts.Rejoin, opts.Yes)
	return err
}

// runSplit runs git subtree split into branch and records it on the entry,
// which is returned updated.
func (s *Service) runSplit(ctx context.Context, entry config.SubtreeEntry, branch string, rejoin, yes bool) (config.SubtreeEntry, error) {
	if rejoin {
		if err := s.ensureClean(ctx, "splitting", yes); err != nil {
			return entry, err
		}
	}

	args := SplitArgs(entry.Prefix, branch, rejoin)
	result, err := s.runWithRemediation(ctx, "splitting", "Splitting "+entry.Name, args, yes)
	if err != nil {
		return entry, err
	}
	if !result.Success {
		s.out.Error(fmt.Sprintf("Splitting %s failed", entry.Name))
		return entry, commandFailed("split", entry.Name, result)
	}

	s.out.Success(fmt.Sprintf("Split %s into %s", entry.Prefix, branch))
	entry.SetExtra("last_split", s.timestamp())
	entry.SetExtra("last_split_branch", branch)
	s.save(entry)
	return entry, nil
}
