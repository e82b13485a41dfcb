package cli

import (
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
)

var pushCmd = &cobra.Command{
	Use:   "push [NAME]",
	Short: "Push a subtree's changes to its remote",
	Long: `Pushes the history of the entry's prefix to its remote branch.

The working tree must be clean. With the persistent strategy (default) the
prefix is split into the split branch when needed, which is then pushed with
git push <name> <split_branch>:<branch>. With push.strategy set to ephemeral a
throwaway branch is split, pushed and deleted.

Examples:
  subtreesync push lib
  subtreesync push lib --force-split --check-changes
  subtreesync push --batch -y`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) {
			return runMenu(cmd)
		}
		app, err := OpenApp(cmd)
		if err != nil {
			return err
		}

		opts := subtree.PushOptions{
			Name:         entryName(cmd, args),
			CheckChanges: mustGetBool(cmd, "check-changes"),
			ForceSplit:   mustGetBool(cmd, "force-split"),
			SkipSplit:    mustGetBool(cmd, "skip-split"),
			Rejoin:       app.Settings.Push.Rejoin && !mustGetBool(cmd, "no-rejoin"),
			Yes:          app.Yes,
			Copy:         mustGetBool(cmd, "copy"),
		}
		if mustGetBool(cmd, "batch") {
			_, err = app.Service.PushAll(cmd.Context(), opts)
			return err
		}
		return app.Service.Push(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().String("name", "", "Entry to push")
	pushCmd.Flags().Bool("batch", false, "Push every registered subtree")
	pushCmd.Flags().Bool("check-changes", false, "Skip the push when the remote branch already has the split")
	pushCmd.Flags().Bool("force-split", false, "Split again even if the split branch exists")
	pushCmd.Flags().Bool("skip-split", false, "Push the configured split_branch without splitting")
	pushCmd.Flags().Bool("no-rejoin", false, "Do not merge the split back with --rejoin")
	pushCmd.Flags().Bool("copy", false, "Copy the git commands to the clipboard instead of running them")
}
