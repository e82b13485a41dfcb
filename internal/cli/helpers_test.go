package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/naoray/subtreesync/internal/config"
	"github.com/naoray/subtreesync/internal/ui"
)

func newTestRegistry(t *testing.T, workspaces ...config.Workspace) *config.Registry {
	t.Helper()
	ui.SetOutput(io.Discard)
	t.Cleanup(func() { ui.SetOutput(os.Stdout) })

	registry := config.NewRegistry(filepath.Join(t.TempDir(), "subtrees.json"), log.New(io.Discard))
	for _, ws := range workspaces {
		require.NoError(t, registry.AddWorkspace(ws))
	}
	return registry
}

func currentName(t *testing.T, registry *config.Registry) string {
	t.Helper()
	ws, ok := registry.Current()
	require.True(t, ok, "expected a current workspace")
	return ws.Name
}
