package subtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/taskfile"
	"github.com/naoray/subtreesync/internal/ui"
)

func (f *fixture) writeTaskfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(f.dir, "Taskfile.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTaskfile), 0644))
	return path
}

func TestRemove_Everything(t *testing.T) {
	f := newFixture(t, false)
	e := entry("other")
	f.register(t, e, entry("lib"))
	f.mkdir(t, e.Prefix)
	taskfilePath := f.writeTaskfile(t)

	require.NoError(t, f.svc.Remove(t.Context(), RemoveOptions{Name: "other", Yes: true}))

	_, ok := f.reg.Find("other")
	assert.False(t, ok)
	assert.Len(t, f.reg.Load(), 1)

	assert.NoDirExists(t, filepath.Join(f.dir, e.Prefix))

	listed, err := taskfile.Entries(taskfilePath)
	require.NoError(t, err)
	assert.Empty(t, listed)

	assert.Contains(t, f.out.String(), "git commit")
}

func TestRemove_KeepFlags(t *testing.T) {
	f := newFixture(t, false)
	e := entry("other")
	f.register(t, e)
	f.mkdir(t, e.Prefix)
	taskfilePath := f.writeTaskfile(t)

	require.NoError(t, f.svc.Remove(t.Context(), RemoveOptions{Name: "other", KeepFiles: true, KeepTaskfile: true, Yes: true}))

	assert.Empty(t, f.reg.Load())
	assert.DirExists(t, filepath.Join(f.dir, e.Prefix))
	listed, err := taskfile.Entries(taskfilePath)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestRemove_RefusesUnsafePrefix(t *testing.T) {
	for _, prefix := range []string{".", "/", "./", "src/.."} {
		t.Run(prefix, func(t *testing.T) {
			f := newFixture(t, false)
			e := entry("lib")
			e.Prefix = prefix
			f.register(t, e)

			err := f.svc.Remove(t.Context(), RemoveOptions{Name: "lib", Yes: true})

			assert.ErrorIs(t, err, apperrors.ErrUnsafePrefix)
			assert.Len(t, f.reg.Load(), 1)
			assert.DirExists(t, f.dir)
		})
	}
}

func TestRemove_UnsafePrefixAllowedWhenKeepingFiles(t *testing.T) {
	f := newFixture(t, false)
	e := entry("lib")
	e.Prefix = "."
	f.register(t, e)

	require.NoError(t, f.svc.Remove(t.Context(), RemoveOptions{Name: "lib", KeepFiles: true, Yes: true}))
	assert.Empty(t, f.reg.Load())
}

func TestRemove_ProtectedPrefix(t *testing.T) {
	f := newFixture(t, false)
	f.settings.ProtectedPrefixes = []string{"src/lib"}
	f.register(t, entry("lib"))
	f.mkdir(t, "src/lib")

	err := f.svc.Remove(t.Context(), RemoveOptions{Name: "lib", Yes: true})

	assert.ErrorIs(t, err, apperrors.ErrUnsafePrefix)
	assert.DirExists(t, filepath.Join(f.dir, "src/lib"))
}

func TestRemove_InteractiveConfigOnly(t *testing.T) {
	f := newFixture(t, true)
	f.register(t, entry("lib"))
	f.mkdir(t, "src/lib")
	f.prompter.Selects = []string{removeConfig}
	f.prompter.Confirms = []bool{true}

	require.NoError(t, f.svc.Remove(t.Context(), RemoveOptions{Name: "lib"}))

	assert.Empty(t, f.reg.Load())
	assert.DirExists(t, filepath.Join(f.dir, "src/lib"))
	assert.Equal(t, "Remove lib from the registry?", f.prompter.Asked[1])
}

func TestRemove_InteractiveCancel(t *testing.T) {
	f := newFixture(t, true)
	f.register(t, entry("lib"))
	f.prompter.Selects = []string{removeCancel}

	err := f.svc.Remove(t.Context(), RemoveOptions{Name: "lib"})

	assert.ErrorIs(t, err, ui.ErrUserAborted)
	assert.Len(t, f.reg.Load(), 1)
}

func TestRemove_RequiresConfirmationWithoutPrompter(t *testing.T) {
	f := newFixture(t, false)
	f.register(t, entry("lib"))

	err := f.svc.Remove(t.Context(), RemoveOptions{Name: "lib"})

	assert.ErrorIs(t, err, apperrors.ErrConfirmationRequired)
	assert.Len(t, f.reg.Load(), 1)
}

func TestRemoveAll(t *testing.T) {
	t.Run("wrong phrase", func(t *testing.T) {
		f := newFixture(t, true)
		f.register(t, entry("a"), entry("b"))
		f.prompter.Typed = []string{"delete all"}

		_, err := f.svc.RemoveAll(t.Context(), RemoveOptions{KeepFiles: true})
		assert.ErrorIs(t, err, ui.ErrUserAborted)
		assert.Len(t, f.reg.Load(), 2)
	})

	t.Run("typed phrase", func(t *testing.T) {
		f := newFixture(t, true)
		f.register(t, entry("a"), entry("b"))
		f.prompter.Typed = []string{BatchRemovePhrase}

		summary, err := f.svc.RemoveAll(t.Context(), RemoveOptions{KeepFiles: true})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Succeeded)
		assert.Empty(t, f.reg.Load())
	})

	t.Run("without prompter", func(t *testing.T) {
		f := newFixture(t, false)
		f.register(t, entry("a"))

		_, err := f.svc.RemoveAll(t.Context(), RemoveOptions{})
		assert.ErrorIs(t, err, apperrors.ErrConfirmationRequired)
	})
}
