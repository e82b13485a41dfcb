package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "subtreesync",
	Short: "Manage git subtrees of a parent repository",
	Long: `subtreesync keeps a registry of the repositories vendored into a parent
repository with git subtree and runs add, pull, split, push and remove for them.

Entries are grouped by workspace (the parent repository). The workspace is
picked from the current directory unless --workspace is given.

Run without a command, or with --interactive, for a menu.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) || ui.IsInteractive() {
			return runMenu(cmd)
		}
		return cmd.Help()
	},
}

// Execute runs the CLI. Interrupts cancel the running git command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	reportError(err)
	return err
}

// menuRequested reports whether -i asked for the menu instead of the command itself.
func menuRequested(cmd *cobra.Command) bool {
	return mustGetBool(cmd, "interactive")
}

func reportError(err error) {
	switch {
	case err == nil:
	case ui.IsAbort(err):
		ui.PrintWarning(ui.ErrUserAborted.Error())
	default:
		ui.PrintError(err.Error())
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Settings file (default $XDG_CONFIG_HOME/subtreesync/subtreesync.yaml)")
	rootCmd.PersistentFlags().StringP("workspace", "w", "", "Workspace to operate on instead of the one for the current directory")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to every confirmation")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("buffered", false, "Show git output once a command finishes instead of streaming it")
	rootCmd.PersistentFlags().BoolP("interactive", "i", false, "Choose the operation from a menu")
}
