package subtree

import (
	"context"
	"fmt"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/ui"
)

// Failure records why one entry of a batch failed.
type Failure struct {
	Name string
	Err  error
}

// Summary tallies a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Failures  []Failure
}

// Err returns an error when any entry failed.
func (s Summary) Err() error {
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d subtrees failed", s.Failed, s.Total)
}

// batchEntries returns the registered entries listed in names, in registry
// order, or every entry when names is empty.
func (s *Service) batchEntries(names []string) ([]config.SubtreeEntry, error) {
	entries := s.registry.Load()
	if len(names) == 0 {
		return entries, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	picked := make([]config.SubtreeEntry, 0, len(names))
	for _, e := range entries {
		if wanted[e.Name] {
			picked = append(picked, e)
			delete(wanted, e.Name)
		}
	}
	for _, name := range names {
		if wanted[name] {
			return nil, fmt.Errorf("%q: %w", name, apperrors.ErrEntryNotFound)
		}
	}
	return picked, nil
}

func batchTitle(verb string, n int, names []string) string {
	if len(names) == 0 {
		return fmt.Sprintf("%s all %d subtrees?", verb, n)
	}
	return fmt.Sprintf("%s %d selected subtrees?", verb, n)
}

// runBatch applies fn to entries one after the other. A failing entry is
// recorded and the next one runs; once ctx is done the rest count as failed.
func (s *Service) runBatch(ctx context.Context, op string, entries []config.SubtreeEntry, fn func(context.Context, config.SubtreeEntry) error) Summary {
	summary := Summary{Total: len(entries)}

	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			for _, rest := range entries[i:] {
				summary.Failed++
				summary.Failures = append(summary.Failures, Failure{Name: rest.Name, Err: err})
			}
			break
		}

		if err := fn(ctx, entry); err != nil {
			s.logger.Error(op+" failed", "name", entry.Name, "err", err)
			if !ui.IsAbort(err) {
				s.out.Error(fmt.Sprintf("%s: %v", entry.Name, err))
			}
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Name: entry.Name, Err: err})
			continue
		}
		summary.Succeeded++
	}

	s.out.Block(ui.RenderSummary(op+" summary", summary.Total, summary.Succeeded, summary.Failed))
	return summary
}
