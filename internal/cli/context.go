package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/exec"
	"github.com/naoray/subtreesync/internal/git"
	"github.com/naoray/subtreesync/internal/subtree"
	"github.com/naoray/subtreesync/internal/ui"
)

// AppContext is what a command needs: settings, the registry scoped to the
// resolved workspace, and the subtree service bound to that repository.
type AppContext struct {
	Settings  *config.Settings
	Registry  *config.Registry
	Workspace config.Workspace
	Repo      *git.Repo
	Logger    *log.Logger
	Yes       bool
	Service   *subtree.Service
}

// loadRegistry reads settings and opens the (migrated) registry. It does not
// need a git repository.
func loadRegistry(cmd *cobra.Command) (*config.Settings, *config.Registry, *log.Logger, error) {
	logger := ui.NewLogger(os.Stderr, mustGetBool(cmd, "verbose"))

	settings, err := config.LoadSettings(mustGetString(cmd, "config"))
	if err != nil {
		return nil, nil, nil, err
	}
	if mustGetBool(cmd, "buffered") {
		settings.Runner.Stream = false
	}
	logger.Debug("settings loaded", "source", settings.Source, "registry", settings.RegistryFile)

	migrated, err := config.MigrateLegacyRegistry(settings.RegistryFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if migrated {
		ui.PrintInfo(fmt.Sprintf("Upgraded %s to the workspace layout (workspace %q)", settings.RegistryFile, config.LegacyWorkspaceName))
	}

	return settings, config.NewRegistry(settings.RegistryFile, logger), logger, nil
}

// OpenApp resolves the workspace for the current directory (or --workspace)
// and wires the subtree service to it.
func OpenApp(cmd *cobra.Command) (*AppContext, error) {
	return openApp(cmd, true)
}

// openApp is OpenApp; without requireRepo a directory outside git falls back
// to the current workspace.
func openApp(cmd *cobra.Command, requireRepo bool) (*AppContext, error) {
	settings, registry, logger, err := loadRegistry(cmd)
	if err != nil {
		return nil, err
	}

	executor := exec.NewCommandExecutor(&exec.RealCommander{
		Out:         os.Stdout,
		GracePeriod: settings.Runner.GracePeriod,
	})

	ws, err := resolveWorkspace(cmd.Context(), registry, settings, executor, mustGetString(cmd, "workspace"))
	if err != nil && !requireRepo && notInRepo(err) {
		ws, err = currentWorkspace(registry)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("workspace resolved", "name", ws.Name, "path", ws.Path)

	repo := git.NewRepo(ws.Path, settings.GitBinary, executor)

	deps := subtree.Deps{
		Repo:     repo,
		Registry: registry,
		Settings: settings,
		Out:      ui.Default(),
		Logger:   logger,
	}
	if ui.IsInteractive() {
		deps.Prompter = ui.NewHuhPrompter()
	}

	return &AppContext{
		Settings:  settings,
		Registry:  registry,
		Workspace: ws,
		Repo:      repo,
		Logger:    logger,
		Yes:       mustGetBool(cmd, "yes"),
		Service:   subtree.NewService(deps),
	}, nil
}

// resolveWorkspace makes the workspace commands act on current. An explicit
// name wins. Otherwise the repository containing the working directory is
// looked up by path and registered on first use; a migrated workspace without
// a real path adopts it.
func resolveWorkspace(ctx context.Context, registry *config.Registry, settings *config.Settings, executor *exec.CommandExecutor, name string) (config.Workspace, error) {
	if name != "" {
		if err := registry.SetCurrent(name); err != nil {
			return config.Workspace{}, err
		}
		ws, _ := registry.Current()
		return ws, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config.Workspace{}, fmt.Errorf("getting current directory: %w", err)
	}
	top, err := git.NewRepo(cwd, settings.GitBinary, executor).TopLevel(ctx)
	if err != nil {
		return config.Workspace{}, err
	}

	return bindWorkspace(registry, top)
}

// bindWorkspace returns the workspace for the repository at top, making it current.
func bindWorkspace(registry *config.Registry, top string) (config.Workspace, error) {
	if ws, ok := registry.WorkspaceForPath(top); ok && !isUnboundPath(ws.Path) {
		if err := registry.SetCurrent(ws.Name); err != nil {
			return config.Workspace{}, err
		}
		return ws, nil
	}

	if current, ok := registry.Current(); ok && isUnboundPath(current.Path) {
		current.Path = top
		if err := registry.AddWorkspace(current); err != nil {
			return config.Workspace{}, err
		}
		ui.PrintInfo(fmt.Sprintf("Workspace %q now points at %s", current.Name, top))
		return current, nil
	}

	ws := config.Workspace{Name: uniqueWorkspaceName(registry, filepath.Base(top)), Path: top}
	if err := registry.AddWorkspace(ws); err != nil {
		return config.Workspace{}, err
	}
	if err := registry.SetCurrent(ws.Name); err != nil {
		return config.Workspace{}, err
	}
	ui.PrintInfo(fmt.Sprintf("Registered workspace %q for %s", ws.Name, top))
	return ws, nil
}

// isUnboundPath reports whether a workspace path was never bound to a
// repository, as with registries upgraded from the single-workspace layout.
func isUnboundPath(path string) bool {
	return path == "" || path == "."
}

func uniqueWorkspaceName(registry *config.Registry, base string) string {
	taken := make(map[string]bool)
	for _, ws := range registry.ListWorkspaces() {
		taken[ws.Name] = true
	}
	name := base
	for i := 2; taken[name]; i++ {
		name = base + "-" + strconv.Itoa(i)
	}
	return name
}

// currentWorkspace returns the current workspace for commands that do not need git.
func currentWorkspace(registry *config.Registry) (config.Workspace, error) {
	ws, ok := registry.Current()
	if !ok {
		return config.Workspace{}, apperrors.ErrNoWorkspace
	}
	return ws, nil
}

// notInRepo reports whether err means the working directory is outside git.
func notInRepo(err error) bool {
	return errors.Is(err, apperrors.ErrNotGitRepo)
}
