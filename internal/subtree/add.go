package subtree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/naoray/subtreesync/internal/config"
	"github.com/naoray/subtreesync/internal/taskfile"
	"github.com/naoray/subtreesync/internal/ui"
	"github.com/naoray/subtreesync/internal/utils"
)

const newEntryChoice = "\x00new"

// AddOptions configures Add. Empty fields are derived or asked for.
type AddOptions struct {
	Name        string
	Remote      string
	Prefix      string
	Branch      string
	SplitBranch string
	NoTaskfile  bool
	Yes         bool
}

// Add merges a remote repository under a prefix with git subtree add, registers
// the entry and appends it to the Taskfile.
func (s *Service) Add(ctx context.Context, opts AddOptions) (config.SubtreeEntry, error) {
	if err := s.completeAddOptions(&opts); err != nil {
		return config.SubtreeEntry{}, err
	}

	entry := config.SubtreeEntry{
		Name:        opts.Name,
		Remote:      opts.Remote,
		Prefix:      opts.Prefix,
		Branch:      opts.Branch,
		SplitBranch: opts.SplitBranch,
	}
	if err := entry.Validate(); err != nil {
		return entry, err
	}
	if err := utils.CheckPrefixSafe(entry.Prefix, nil); err != nil {
		return entry, err
	}
	if _, err := os.Stat(filepath.Join(s.repo.Dir, entry.Prefix)); err == nil {
		return entry, fmt.Errorf("prefix %s already exists; use pull to update it", entry.Prefix)
	}

	if existing, ok := s.registry.Find(entry.Name); ok {
		s.out.Warning(fmt.Sprintf("%s is already registered (prefix %s), it will be replaced", existing.Name, existing.Prefix))
	}

	s.out.Block(ui.RenderEntryDetail(entry, ResolveSplitBranch(entry, s.now())))
	if err := s.confirm(opts.Yes, fmt.Sprintf("Add subtree %s?", entry.Name), "", true); err != nil {
		return entry, err
	}

	if err := s.ensureClean(ctx, "adding", opts.Yes); err != nil {
		return entry, err
	}
	if err := s.repo.EnsureRemote(ctx, entry.Name, entry.Remote); err != nil {
		return entry, err
	}

	args := AddArgs(entry.Prefix, entry.Name, entry.Branch)
	result, err := s.runWithRemediation(ctx, "adding", "Adding "+entry.Name, args, opts.Yes)
	if err != nil {
		return entry, err
	}
	if !result.Success {
		s.out.Error(fmt.Sprintf("Adding %s failed", entry.Name))
		if IsConflict(result.Output) {
			s.out.Hint("Resolve the conflicts, then check the state with: git status")
		}
		return entry, commandFailed("add", entry.Name, result)
	}

	entry.AddedTime = s.timestamp()
	entry.Extra = map[string]any{}
	if err := s.registry.Save(entry); err != nil {
		return entry, fmt.Errorf("saving %s: %w", entry.Name, err)
	}
	s.out.Success(fmt.Sprintf("Added %s at %s", entry.Name, entry.Prefix))

	if s.settings.Taskfile.Enabled && !opts.NoTaskfile {
		s.appendTaskfile(entry, opts.Yes)
	}
	return entry, nil
}

// completeAddOptions derives missing fields and, when possible, asks for them.
func (s *Service) completeAddOptions(opts *AddOptions) error {
	if opts.Remote == "" && opts.Name != "" {
		if existing, ok := s.registry.Find(opts.Name); ok {
			s.fillFromEntry(opts, existing)
		}
	}

	interactive := s.prompter != nil && !opts.Yes
	if opts.Remote == "" && interactive {
		if err := s.pickAddSource(opts); err != nil {
			return err
		}
	}
	if opts.Remote == "" {
		if !interactive {
			return errors.New("a remote is required (--remote)")
		}
		remote, err := s.prompter.Input("Remote repository", "URL, path or owner/repo", "", requireText)
		if err != nil {
			return err
		}
		opts.Remote = remote
	}
	opts.Remote = utils.ExpandRemote(opts.Remote)

	if opts.Name == "" {
		opts.Name = utils.SanitisePath(utils.ExtractRepoName(opts.Remote))
		if interactive {
			name, err := s.prompter.Input("Name", "Also used as the git remote name", opts.Name, requireText)
			if err != nil {
				return err
			}
			opts.Name = name
		}
	}
	if opts.Prefix == "" {
		opts.Prefix = utils.DefaultPrefix(s.settings.PrefixRoot, opts.Name)
		if interactive {
			prefix, err := s.prompter.Input("Prefix", "Directory the subtree is merged into", opts.Prefix, func(v string) error {
				return utils.CheckPrefixSafe(v, nil)
			})
			if err != nil {
				return err
			}
			opts.Prefix = prefix
		}
	}
	opts.Prefix = utils.NormalizePrefix(opts.Prefix)
	if opts.Branch == "" {
		opts.Branch = s.settings.DefaultBranch
		if interactive {
			branch, err := s.prompter.Input("Branch", "Remote branch to track", opts.Branch, requireText)
			if err != nil {
				return err
			}
			opts.Branch = branch
		}
	}
	return nil
}

// pickAddSource offers the registered entries for re-adding next to a new one.
func (s *Service) pickAddSource(opts *AddOptions) error {
	entries := s.registry.Load()
	if len(entries) == 0 {
		return nil
	}

	options := []ui.Option{{Label: "New subtree", Value: newEntryChoice}}
	for _, e := range entries {
		options = append(options, ui.Option{Label: fmt.Sprintf("%s (%s)", e.Name, e.Remote), Value: e.Name})
	}
	picked, err := s.prompter.Select("Which repository do you want to add?", options)
	if err != nil || picked == newEntryChoice {
		return err
	}

	existing, ok := s.registry.Find(picked)
	if ok {
		s.fillFromEntry(opts, existing)
	}
	return nil
}

func (s *Service) fillFromEntry(opts *AddOptions, e config.SubtreeEntry) {
	opts.Name = e.Name
	opts.Remote = e.Remote
	if opts.Prefix == "" {
		opts.Prefix = e.Prefix
	}
	if opts.Branch == "" {
		opts.Branch = e.Branch
	}
	if opts.SplitBranch == "" {
		opts.SplitBranch = e.SplitBranch
	}
}

// appendTaskfile mirrors entry into the Taskfile. Failures are reported, never fatal.
func (s *Service) appendTaskfile(entry config.SubtreeEntry, yes bool) {
	path := s.taskfilePath()
	if _, err := os.Stat(path); err != nil {
		s.logger.Debug("no taskfile to update", "path", path)
		return
	}

	ok, err := s.ask(yes, fmt.Sprintf("Add %s to %s?", entry.Name, filepath.Base(path)), "", true)
	if err != nil || !ok {
		return
	}

	added, err := taskfile.Append(path, taskfile.Entry{Prefix: entry.Prefix, Remote: entry.Remote, Branch: entry.Branch})
	switch {
	case err != nil:
		s.logger.Warn("updating taskfile", "path", path, "err", err)
		s.out.Warning(fmt.Sprintf("Could not update %s: %v", filepath.Base(path), err))
	case added:
		s.out.Success(fmt.Sprintf("Added %s to %s", entry.Prefix, filepath.Base(path)))
	default:
		s.out.Info(fmt.Sprintf("%s is already listed in %s", entry.Prefix, filepath.Base(path)))
	}
}
