// Package subtree implements the subtree operations (add, pull, split, push,
// remove, list) on top of the registry, the git wrapper and the prompts.
package subtree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/exec"
	"github.com/naoray/subtreesync/internal/git"
	"github.com/naoray/subtreesync/internal/ui"
)

// Registry is the entry store the service reads and updates.
type Registry interface {
	Load() []config.SubtreeEntry
	Find(name string) (config.SubtreeEntry, bool)
	Save(entry config.SubtreeEntry) error
	Delete(name string) (bool, error)
}

var _ Registry = (*config.Registry)(nil)

// Deps bundles what a Service needs. Only Repo and Registry are required.
type Deps struct {
	Repo     *git.Repo
	Registry Registry
	Settings *config.Settings
	// Prompter is nil when nobody can answer questions (no terminal).
	Prompter ui.Prompter
	Out      *ui.Printer
	Logger   *log.Logger

	Now       func() time.Time
	Spin      func(ctx context.Context, title string, fn func()) error
	Clipboard func(text string) error
}

// Service runs subtree operations for the entries of one workspace.
type Service struct {
	repo      *git.Repo
	registry  Registry
	settings  *config.Settings
	prompter  ui.Prompter
	out       *ui.Printer
	logger    *log.Logger
	now       func() time.Time
	spin      func(ctx context.Context, title string, fn func()) error
	clipboard func(text string) error
}

// NewService fills unset dependencies with their defaults.
func NewService(d Deps) *Service {
	s := &Service{
		repo:      d.Repo,
		registry:  d.Registry,
		settings:  d.Settings,
		prompter:  d.Prompter,
		out:       d.Out,
		logger:    d.Logger,
		now:       d.Now,
		spin:      d.Spin,
		clipboard: d.Clipboard,
	}
	if s.settings == nil {
		s.settings = config.DefaultSettings()
	}
	if s.out == nil {
		s.out = ui.Default()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.spin == nil {
		s.spin = ui.RunWithSpinner
	}
	if s.clipboard == nil {
		s.clipboard = clipboard.WriteAll
	}
	return s
}

// Entries returns the registered entries of the current workspace.
func (s *Service) Entries() []config.SubtreeEntry {
	return s.registry.Load()
}

// Find returns the named entry or an error wrapping ErrEntryNotFound.
func (s *Service) Find(name string) (config.SubtreeEntry, error) {
	entry, ok := s.registry.Find(name)
	if !ok {
		return config.SubtreeEntry{}, fmt.Errorf("%q: %w", name, apperrors.ErrEntryNotFound)
	}
	return entry, nil
}

// ResolveEntry returns the named entry. With an empty name the user picks one.
func (s *Service) ResolveEntry(name, title string) (config.SubtreeEntry, error) {
	if name != "" {
		return s.Find(name)
	}

	entries := s.registry.Load()
	if len(entries) == 0 {
		return config.SubtreeEntry{}, fmt.Errorf("no subtrees registered: %w", apperrors.ErrEntryNotFound)
	}
	if s.prompter == nil {
		return config.SubtreeEntry{}, errors.New("a subtree name is required (--name)")
	}

	picked, err := s.prompter.Select(title, entryOptions(entries))
	if err != nil {
		return config.SubtreeEntry{}, err
	}
	return s.Find(picked)
}

// SelectEntries lets the user tick several entries and returns their names.
func (s *Service) SelectEntries(title string) ([]string, error) {
	entries := s.registry.Load()
	if len(entries) == 0 {
		return nil, fmt.Errorf("no subtrees registered: %w", apperrors.ErrEntryNotFound)
	}
	if s.prompter == nil {
		return nil, errors.New("selecting subtrees needs a terminal, pass --name or --batch")
	}

	picked, err := s.prompter.MultiSelect(title, entryOptions(entries))
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, ui.ErrUserAborted
	}
	return picked, nil
}

func entryOptions(entries []config.SubtreeEntry) []ui.Option {
	options := make([]ui.Option, 0, len(entries))
	for _, e := range entries {
		options = append(options, ui.Option{Label: fmt.Sprintf("%s (%s)", e.Name, e.Prefix), Value: e.Name})
	}
	return options
}

// confirm asks title unless yes is set. Without a prompter the caller has to
// pass yes, otherwise ErrConfirmationRequired is returned.
func (s *Service) confirm(yes bool, title, description string, defaultYes bool) error {
	if yes {
		return nil
	}
	if s.prompter == nil {
		return fmt.Errorf("%s: %w", title, apperrors.ErrConfirmationRequired)
	}
	ok, err := s.prompter.Confirm(title, description, defaultYes)
	if err != nil {
		return err
	}
	if !ok {
		return ui.ErrUserAborted
	}
	return nil
}

// ask is an optional question: without a prompter, or with yes, it returns fallback.
func (s *Service) ask(yes bool, title, description string, fallback bool) (bool, error) {
	if yes || s.prompter == nil {
		return fallback, nil
	}
	return s.prompter.Confirm(title, description, fallback)
}

// runGit runs a subtree-related git command. In stream mode the runner echoes
// the command and its output; otherwise it runs behind a spinner and the
// captured output is printed afterwards.
func (s *Service) runGit(ctx context.Context, title string, args []string) (exec.Result, error) {
	s.logger.Debug("running git", "args", args, "stream", s.settings.Runner.Stream)

	if s.settings.Runner.Stream {
		return s.repo.Run(ctx, exec.ModeStream, args...)
	}

	s.out.Command(s.repo.CommandLine(args...))

	type outcome struct {
		result exec.Result
		err    error
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a command outliving an aborted spinner can still deliver.
	done := make(chan outcome, 1)
	if err := s.spin(ctx, title, func() {
		result, err := s.repo.Run(runCtx, exec.ModeBuffered, args...)
		done <- outcome{result, err}
	}); err != nil {
		return exec.Result{}, err
	}

	var o outcome
	select {
	case o = <-done:
	case <-ctx.Done():
		return exec.Result{ExitCode: -1}, fmt.Errorf("git interrupted: %w", ctx.Err())
	}
	if o.err == nil && o.result.Output != "" {
		s.out.Block(o.result.Output)
	}
	return o.result, o.err
}

// save persists entry, logging rather than failing: the git side already happened.
func (s *Service) save(entry config.SubtreeEntry) {
	if err := s.registry.Save(entry); err != nil {
		s.logger.Error("updating registry", "name", entry.Name, "err", err)
		s.out.Warning(fmt.Sprintf("Could not update the registry entry for %s: %v", entry.Name, err))
	}
}

func (s *Service) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func (s *Service) taskfilePath() string {
	if filepath.IsAbs(s.settings.Taskfile.Path) {
		return s.settings.Taskfile.Path
	}
	return filepath.Join(s.repo.Dir, s.settings.Taskfile.Path)
}

func commandFailed(op, name string, result exec.Result) error {
	return fmt.Errorf("%s %s failed (exit %d): %w", op, name, result.ExitCode, apperrors.ErrCommandFailed)
}
