package subtree

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/ui"
)

// PushOptions configures Push and PushAll.
type PushOptions struct {
	Name string
	// CheckChanges skips the push when the remote branch already points at the split.
	CheckChanges bool
	// ForceSplit splits even when the split branch exists.
	ForceSplit bool
	// SkipSplit pushes the configured split branch as is.
	SkipSplit bool
	Rejoin    bool
	Yes       bool
	Copy      bool
	// Names limits PushAll to these entries.
	Names []string
}

func (o PushOptions) validate() error {
	if o.ForceSplit && o.SkipSplit {
		return errors.New("--force-split and --skip-split cannot be combined")
	}
	return nil
}

// Push publishes the prefix's history to the entry's remote branch.
//
// The working tree has to be clean. Depending on the configured strategy the
// prefix is split into the dated split branch which is then pushed (persistent),
// or into a throwaway branch that is pushed with a refspec and deleted afterwards
// (ephemeral).
func (s *Service) Push(ctx context.Context, opts PushOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	entry, err := s.ResolveEntry(opts.Name, "Which subtree do you want to push?")
	if err != nil {
		return err
	}
	if !opts.Copy {
		if err := s.requireClean(ctx); err != nil {
			return err
		}
	}
	return s.pushEntry(ctx, entry, opts)
}

// PushAll pushes every registered entry (or opts.Names) in order. A dirty working tree stops it up front.
func (s *Service) PushAll(ctx context.Context, opts PushOptions) (Summary, error) {
	if err := opts.validate(); err != nil {
		return Summary{}, err
	}
	if !opts.Copy {
		if err := s.requireClean(ctx); err != nil {
			return Summary{}, err
		}
	}

	entries, err := s.batchEntries(opts.Names)
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		s.out.Warning("No subtrees registered")
		return Summary{}, nil
	}

	s.out.Block(s.renderPushTable(entries))
	if err := s.confirm(opts.Yes, batchTitle("Push", len(entries), opts.Names), "", true); err != nil {
		return Summary{}, err
	}

	summary := s.runBatch(ctx, "Push", entries, func(ctx context.Context, e config.SubtreeEntry) error {
		return s.pushEntry(ctx, e, opts)
	})
	return summary, summary.Err()
}

func (s *Service) pushEntry(ctx context.Context, entry config.SubtreeEntry, opts PushOptions) error {
	if s.settings.Push.Strategy == config.PushStrategyEphemeral && !opts.SkipSplit {
		return s.pushEphemeral(ctx, entry, opts)
	}
	return s.pushPersistent(ctx, entry, opts)
}

func (s *Service) pushPersistent(ctx context.Context, entry config.SubtreeEntry, opts PushOptions) error {
	var (
		branch string
		split  bool
		err    error
	)
	if opts.SkipSplit {
		if branch, err = RequireSplitBranch(entry); err != nil {
			return err
		}
	} else {
		branch = ResolveSplitBranch(entry, s.now())
		if split, branch, err = s.needsSplit(ctx, entry, branch, opts); err != nil {
			return err
		}
	}

	if opts.Copy {
		var lines []string
		if split {
			lines = append(lines, s.repo.CommandLine(SplitArgs(entry.Prefix, branch, opts.Rejoin)...))
		}
		lines = append(lines, s.repo.CommandLine(PushArgs(entry.Name, branch, entry.Branch)...))
		s.copyCommands(lines...)
		return nil
	}

	s.out.Header(fmt.Sprintf("Pushing %s to %s (%s, via %s)", entry.Prefix, entry.Name, entry.Branch, branch))
	if err := s.repo.EnsureRemote(ctx, entry.Name, entry.Remote); err != nil {
		return err
	}

	if split {
		if entry, err = s.runSplit(ctx, entry, branch, opts.Rejoin, opts.Yes); err != nil {
			s.out.Error("Split failed, nothing was pushed")
			return err
		}
	}

	return s.pushBranch(ctx, entry, branch, opts)
}

// needsSplit decides whether push has to split first and which local branch
// is pushed. An earlier split branch is pushed as is unless the user asks for
// a fresh split into branch. Split history without any split branch leaves
// nothing to push, so it always splits.
func (s *Service) needsSplit(ctx context.Context, entry config.SubtreeEntry, branch string, opts PushOptions) (bool, string, error) {
	if opts.ForceSplit {
		s.out.Info("Forcing a fresh split")
		return true, branch, nil
	}

	if s.repo.BranchExists(ctx, branch) {
		refresh, err := s.ask(opts.Yes, fmt.Sprintf("Refresh %s with a new split before pushing?", branch), "", false)
		return refresh, branch, err
	}

	found, existing, err := DetectPriorSplit(ctx, s.repo, entry, s.now())
	if err != nil {
		s.logger.Debug("detecting prior split", "name", entry.Name, "err", err)
	}
	switch {
	case !found:
		s.out.Info(fmt.Sprintf("No split found for %s", entry.Prefix))
		if err := s.confirm(opts.Yes, "Split before pushing?", "", true); err != nil {
			return false, branch, err
		}
		return true, branch, nil
	case existing != branch:
		s.out.Info(fmt.Sprintf("Found earlier split branch %s", existing))
		refresh, err := s.ask(opts.Yes, fmt.Sprintf("Split again into %s before pushing?", branch), "", false)
		if err != nil {
			return false, branch, err
		}
		if refresh {
			return true, branch, nil
		}
		s.out.Info(fmt.Sprintf("Pushing %s as is, use --force-split for a fresh split", existing))
		return false, existing, nil
	default:
		s.out.Info(fmt.Sprintf("Found split history for %s but no split branch, splitting into %s", entry.Prefix, branch))
		return true, branch, nil
	}
}

func (s *Service) pushEphemeral(ctx context.Context, entry config.SubtreeEntry, opts PushOptions) error {
	tmp := TempBranchName(entry.Name, s.now())
	splitArgs := SplitArgs(entry.Prefix, tmp, false)

	if opts.Copy {
		s.copyCommands(
			s.repo.CommandLine(splitArgs...),
			s.repo.CommandLine(PushArgs(entry.Name, tmp, entry.Branch)...),
			s.repo.CommandLine("branch", "-D", tmp),
		)
		return nil
	}

	s.out.Header(fmt.Sprintf("Pushing %s to %s (%s)", entry.Prefix, entry.Name, entry.Branch))
	if err := s.repo.EnsureRemote(ctx, entry.Name, entry.Remote); err != nil {
		return err
	}

	result, err := s.runGit(ctx, "Splitting "+entry.Name, splitArgs)
	if err != nil {
		return err
	}
	if !result.Success {
		s.out.Error("Split failed, nothing was pushed")
		return commandFailed("split", entry.Name, result)
	}

	defer func() {
		if err := s.repo.DeleteBranch(context.WithoutCancel(ctx), tmp, true); err != nil {
			s.logger.Warn("deleting temporary branch", "branch", tmp, "err", err)
			s.out.Warning(fmt.Sprintf("Could not delete temporary branch %s", tmp))
		}
	}()

	return s.pushBranch(ctx, entry, tmp, opts)
}

// pushBranch pushes local to the entry's remote branch and records the push.
func (s *Service) pushBranch(ctx context.Context, entry config.SubtreeEntry, local string, opts PushOptions) error {
	if opts.CheckChanges {
		same, err := s.remoteMatches(ctx, entry, local)
		if err != nil {
			s.logger.Debug("comparing with remote", "name", entry.Name, "err", err)
		} else if same {
			s.out.Info(fmt.Sprintf("Nothing to push: %s/%s is already at %s", entry.Name, entry.Branch, local))
			return nil
		}
	}

	result, err := s.runGit(ctx, "Pushing "+entry.Name, PushArgs(entry.Name, local, entry.Branch))
	if err != nil {
		return err
	}
	if !result.Success {
		s.out.Error(fmt.Sprintf("Pushing %s to %s/%s failed", local, entry.Name, entry.Branch))
		s.out.Hint(
			"If this is a permission problem, check that you can write to "+entry.Remote,
			"If the push was rejected, pull the remote changes first, then split and push again",
			"If git cannot find the local ref, split again with --force-split",
		)
		return commandFailed("push", entry.Name, result)
	}

	s.out.Success(fmt.Sprintf("Pushed %s to %s/%s", local, entry.Name, entry.Branch))
	entry.SetExtra("last_push", s.timestamp())
	s.save(entry)
	return nil
}

func (s *Service) remoteMatches(ctx context.Context, entry config.SubtreeEntry, local string) (bool, error) {
	localHead, err := s.repo.RevParse(ctx, "refs/heads/"+local)
	if err != nil {
		return false, err
	}
	remoteHead, err := s.repo.LsRemoteHead(ctx, entry.Name, entry.Branch)
	if err != nil {
		return false, err
	}
	return remoteHead != "" && remoteHead == localHead, nil
}

// requireClean fails when tracked files have uncommitted changes.
func (s *Service) requireClean(ctx context.Context) error {
	dirty, err := s.repo.IsDirty(ctx)
	if err != nil {
		return err
	}
	if dirty {
		s.out.Error("The working tree has uncommitted changes, commit them before pushing")
		s.out.Hint("  git add -A && git commit")
		return fmt.Errorf("push: %w", apperrors.ErrDirtyWorkingTree)
	}
	return nil
}

func (s *Service) renderPushTable(entries []config.SubtreeEntry) string {
	now := s.now()
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Name,
			e.Remote,
			e.Branch,
			ResolveSplitBranch(e, now),
			e.Prefix,
		})
	}
	return ui.RenderTable([]string{"#", "NAME", "REMOTE", "BRANCH", "SPLIT BRANCH", "PREFIX"}, rows)
}
