package subtree

import (
	"fmt"

	"github.com/naoray/subtreesync/internal/config"
	"github.com/naoray/subtreesync/internal/ui"
)

// ListOptions configures List.
type ListOptions struct {
	// Name limits the output to one entry.
	Name    string
	Verbose bool
}

// List prints the registered entries and returns them.
func (s *Service) List(opts ListOptions) ([]config.SubtreeEntry, error) {
	entries := s.registry.Load()
	if opts.Name != "" {
		entry, err := s.Find(opts.Name)
		if err != nil {
			return nil, err
		}
		entries = []config.SubtreeEntry{entry}
	}

	if len(entries) == 0 {
		s.out.Info("No subtrees registered. Add one with: subtreesync add")
		return entries, nil
	}

	if !opts.Verbose {
		s.out.Block(ui.RenderEntriesTable(entries))
		s.out.Info(fmt.Sprintf("%d subtree(s)", len(entries)))
		return entries, nil
	}

	now := s.now()
	for _, e := range entries {
		s.out.Block(ui.RenderEntryDetail(e, ResolveSplitBranch(e, now)))
	}
	return entries, nil
}
