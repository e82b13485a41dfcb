package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/naoray/subtreesync/internal/errors"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "subtree_repos.json")
	return NewRegistry(path, log.New(&discard{}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestRegistryWithWorkspace(t *testing.T) *Registry {
	t.Helper()
	r := newTestRegistry(t)
	require.NoError(t, r.AddWorkspace(Workspace{Name: "app", Path: "/srv/app"}))
	return r
}

func sampleEntry(name string) SubtreeEntry {
	return SubtreeEntry{
		Name:      name,
		Remote:    "https://example.com/" + name + ".git",
		Prefix:    "src/" + name,
		Branch:    "main",
		AddedTime: "2024-03-05T10:00:00Z",
		Extra:     map[string]any{"note": "vendored"},
	}
}

func readDocument(t *testing.T, path string) map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(content, &doc))
	return doc
}

func TestRegistry_Load_CreatesEmptyFile(t *testing.T) {
	r := newTestRegistry(t)

	entries := r.Load()

	assert.Empty(t, entries)
	doc := readDocument(t, r.Path())
	assert.Equal(t, []any{}, doc["repositories"])
	assert.Contains(t, doc, "current_repository")
	assert.Nil(t, doc["current_repository"])
}

func TestRegistry_Load_CorruptFileYieldsEmpty(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(r.Path()), 0755))
	require.NoError(t, os.WriteFile(r.Path(), []byte("{not json"), 0644))

	assert.Empty(t, r.Load())
	assert.Empty(t, r.ListWorkspaces())

	err := r.Save(sampleEntry("lib"))
	assert.Error(t, err, "a corrupt registry is not overwritten")
	content, _ := os.ReadFile(r.Path())
	assert.Equal(t, "{not json", string(content))
}

func TestRegistry_SaveAndReload_RoundTrip(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	entry := sampleEntry("lib")
	entry.SplitBranch = "lib#ST240305"

	require.NoError(t, r.Save(entry))

	reloaded := NewRegistry(r.Path(), nil)
	got, ok := reloaded.Find("lib")
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestRegistry_Save_Upserts(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	require.NoError(t, r.Save(sampleEntry("lib")))
	require.NoError(t, r.Save(sampleEntry("other")))

	updated := sampleEntry("lib")
	updated.Branch = "develop"
	require.NoError(t, r.Save(updated))

	entries := r.Load()
	require.Len(t, entries, 2)
	assert.Equal(t, "lib", entries[0].Name, "replacement keeps position")
	assert.Equal(t, "develop", entries[0].Branch)
	assert.Equal(t, "other", entries[1].Name)
}

func TestRegistry_Save_NilExtraBecomesEmptyMap(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	entry := sampleEntry("lib")
	entry.Extra = nil

	require.NoError(t, r.Save(entry))

	got, ok := r.Find("lib")
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, got.Extra)
}

func TestRegistry_Save_NoWorkspace(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Save(sampleEntry("lib"))

	assert.True(t, errors.Is(err, apperrors.ErrNoWorkspace))
}

func TestRegistry_Delete(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	require.NoError(t, r.Save(sampleEntry("lib")))
	require.NoError(t, r.Save(sampleEntry("other")))

	removed, err := r.Delete("missing")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, r.Load(), 2)

	removed, err = r.Delete("lib")
	require.NoError(t, err)
	assert.True(t, removed)
	entries := r.Load()
	require.Len(t, entries, 1)
	assert.Equal(t, "other", entries[0].Name)

	_, ok := r.Find("lib")
	assert.False(t, ok)
}

func TestRegistry_AddWorkspace_FirstBecomesDefaultAndCurrent(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddWorkspace(Workspace{Name: "app", Path: "/srv/app"}))
	require.NoError(t, r.AddWorkspace(Workspace{Name: "site", Path: "/srv/site"}))

	workspaces := r.ListWorkspaces()
	require.Len(t, workspaces, 2)
	assert.True(t, workspaces[0].IsDefault)
	assert.False(t, workspaces[1].IsDefault)

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "app", current.Name)

	doc := readDocument(t, r.Path())
	assert.Equal(t, "app", doc["current_repository"])
}

func TestRegistry_AddWorkspace_DefaultFlagIsExclusive(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)

	require.NoError(t, r.AddWorkspace(Workspace{Name: "site", Path: "/srv/site", IsDefault: true}))

	defaults := 0
	for _, ws := range r.ListWorkspaces() {
		if ws.IsDefault {
			defaults++
			assert.Equal(t, "site", ws.Name)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestRegistry_AddWorkspace_UpdateKeepsEntries(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	require.NoError(t, r.Save(sampleEntry("lib")))

	require.NoError(t, r.AddWorkspace(Workspace{Name: "app", Path: "/srv/app-moved"}))

	workspaces := r.ListWorkspaces()
	require.Len(t, workspaces, 1)
	assert.Equal(t, "/srv/app-moved", workspaces[0].Path)
	assert.Len(t, workspaces[0].Repos, 1)
}

func TestRegistry_AddWorkspace_RequiresName(t *testing.T) {
	r := newTestRegistry(t)

	assert.Error(t, r.AddWorkspace(Workspace{Path: "/srv/app"}))
}

func TestRegistry_SetCurrent_ScopesEntries(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	require.NoError(t, r.AddWorkspace(Workspace{Name: "site", Path: "/srv/site"}))
	require.NoError(t, r.Save(sampleEntry("lib")))

	require.NoError(t, r.SetCurrent("site"))
	assert.Empty(t, r.Load())
	require.NoError(t, r.Save(sampleEntry("theme")))

	require.NoError(t, r.SetCurrent("app"))
	entries := r.Load()
	require.Len(t, entries, 1)
	assert.Equal(t, "lib", entries[0].Name)

	err := r.SetCurrent("missing")
	assert.True(t, errors.Is(err, apperrors.ErrWorkspaceNotFound))
}

func TestRegistry_Current_FallsBackToDefaultThenFirst(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(r.Path()), 0755))

	withDefault := `{"repositories": [
  {"name": "a", "path": "/a", "is_default": false, "repos": []},
  {"name": "b", "path": "/b", "is_default": true, "repos": []}
], "current_repository": "gone"}`
	require.NoError(t, os.WriteFile(r.Path(), []byte(withDefault), 0644))

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "b", current.Name)

	noDefault := `{"repositories": [
  {"name": "a", "path": "/a", "is_default": false, "repos": []},
  {"name": "b", "path": "/b", "is_default": false, "repos": []}
], "current_repository": null}`
	require.NoError(t, os.WriteFile(r.Path(), []byte(noDefault), 0644))

	current, ok = r.Current()
	require.True(t, ok)
	assert.Equal(t, "a", current.Name)
}

func TestRegistry_SetDefault(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	require.NoError(t, r.AddWorkspace(Workspace{Name: "site", Path: "/srv/site"}))

	require.NoError(t, r.SetDefault("site"))

	for _, ws := range r.ListWorkspaces() {
		assert.Equal(t, ws.Name == "site", ws.IsDefault, ws.Name)
	}
	assert.True(t, errors.Is(r.SetDefault("missing"), apperrors.ErrWorkspaceNotFound))
}

func TestRegistry_RemoveWorkspace(t *testing.T) {
	r := newTestRegistryWithWorkspace(t)
	require.NoError(t, r.AddWorkspace(Workspace{Name: "site", Path: "/srv/site"}))

	removed, err := r.RemoveWorkspace("missing")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = r.RemoveWorkspace("app")
	require.NoError(t, err)
	assert.True(t, removed)

	workspaces := r.ListWorkspaces()
	require.Len(t, workspaces, 1)
	assert.True(t, workspaces[0].IsDefault)
	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, "site", current.Name)
}

func TestRegistry_WorkspaceForPath(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t)
	require.NoError(t, r.AddWorkspace(Workspace{Name: "app", Path: filepath.Join(root, "app")}))

	ws, ok := r.WorkspaceForPath(filepath.Join(root, "app", "src", "lib"))
	require.True(t, ok)
	assert.Equal(t, "app", ws.Name)

	_, ok = r.WorkspaceForPath(filepath.Join(root, "application"))
	assert.False(t, ok)
}

func TestSubtreeEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *SubtreeEntry)
		wantErr string
	}{
		{"valid", func(e *SubtreeEntry) {}, ""},
		{"missing name", func(e *SubtreeEntry) { e.Name = "" }, "missing name"},
		{"missing remote and prefix", func(e *SubtreeEntry) { e.Remote = ""; e.Prefix = " " }, "missing remote, prefix"},
		{"missing branch", func(e *SubtreeEntry) { e.Branch = "" }, "missing branch"},
		{"whitespace in name", func(e *SubtreeEntry) { e.Name = "my lib" }, "must not contain whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := sampleEntry("lib")
			tt.mutate(&e)

			err := e.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidEntry))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSubtreeEntry_Extra(t *testing.T) {
	var e SubtreeEntry

	assert.Empty(t, e.ExtraString("last_push"))
	e.SetExtra("last_push", "2024-03-05T10:00:00Z")
	e.SetExtra("count", 3)

	assert.Equal(t, "2024-03-05T10:00:00Z", e.ExtraString("last_push"))
	assert.Empty(t, e.ExtraString("count"))
}
