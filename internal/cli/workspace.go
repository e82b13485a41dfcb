package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/config"
	apperrors "github.com/naoray/subtreesync/internal/errors"
	"github.com/naoray/subtreesync/internal/ui"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage workspaces (parent repositories)",
	Long: `Every parent repository is a workspace with its own subtree entries.
One workspace is the default and one is current; commands act on the current
one, which normally follows the directory you run them from.`,
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registry, _, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		workspaces := registry.ListWorkspaces()
		if len(workspaces) == 0 {
			ui.PrintInfo("No workspaces registered yet. Run subtreesync inside a git repository to register it.")
			return nil
		}
		current, _ := registry.Current()
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderWorkspacesTable(workspaces, current.Name))
		return nil
	},
}

var workspaceAddCmd = &cobra.Command{
	Use:   "add NAME [PATH]",
	Short: "Register a parent repository as a workspace",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registry, _, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		path := "."
		if len(args) > 1 {
			path = args[1]
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("getting absolute path: %w", err)
		}

		ws := config.Workspace{Name: args[0], Path: absPath, IsDefault: mustGetBool(cmd, "default")}
		if err := registry.AddWorkspace(ws); err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Workspace %q registered for %s", ws.Name, absPath))

		if mustGetBool(cmd, "use") {
			if err := registry.SetCurrent(ws.Name); err != nil {
				return err
			}
			ui.PrintInfo(fmt.Sprintf("Current workspace: %s", ws.Name))
		}
		return nil
	},
}

var workspaceUseCmd = &cobra.Command{
	Use:   "use NAME",
	Short: "Make a workspace current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registry, _, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if err := registry.SetCurrent(args[0]); err != nil {
			return err
		}
		ui.PrintDone(fmt.Sprintf("Current workspace: %s", args[0]))
		return nil
	},
}

var workspaceDefaultCmd = &cobra.Command{
	Use:   "default NAME",
	Short: "Make a workspace the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registry, _, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		if err := registry.SetDefault(args[0]); err != nil {
			return err
		}
		ui.PrintDone(fmt.Sprintf("Default workspace: %s", args[0]))
		return nil
	},
}

var workspaceRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Forget a workspace and its entries",
	Long: `Removes the workspace and its subtree entries from the registry. Files in
the repository are not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, registry, _, err := loadRegistry(cmd)
		if err != nil {
			return err
		}

		if !mustGetBool(cmd, "yes") {
			if !ui.IsInteractive() {
				return fmt.Errorf("removing workspace %s: %w", args[0], apperrors.ErrConfirmationRequired)
			}
			ok, err := ui.NewHuhPrompter().Confirm(fmt.Sprintf("Forget workspace %s and its entries?", args[0]), "", false)
			if err != nil {
				return err
			}
			if !ok {
				return ui.ErrUserAborted
			}
		}

		removed, err := registry.RemoveWorkspace(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%q: %w", args[0], apperrors.ErrWorkspaceNotFound)
		}
		ui.PrintSuccess(fmt.Sprintf("Workspace %s removed", args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceListCmd, workspaceAddCmd, workspaceUseCmd, workspaceDefaultCmd, workspaceRemoveCmd)

	workspaceAddCmd.Flags().Bool("default", false, "Make it the default workspace")
	workspaceAddCmd.Flags().Bool("use", false, "Make it the current workspace")
}
