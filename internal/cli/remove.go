package cli

import (
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
)

var removeCmd = &cobra.Command{
	Use:   "remove [NAME]",
	Short: "Remove a subtree",
	Long: `Removes an entry from the registry, its item from Taskfile.yml and the
files under its prefix, in that order.

Arguments:
  NAME  Entry to remove

Deleting files is refused for prefixes that resolve to the repository root,
leave it, point into .git or are listed in protected_prefixes, whatever the
confirmation. --batch removes every entry after typing DELETE ALL SUBTREES.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) {
			return runMenu(cmd)
		}
		app, err := OpenApp(cmd)
		if err != nil {
			return err
		}

		opts := subtree.RemoveOptions{
			Name:         entryName(cmd, args),
			KeepConfig:   mustGetBool(cmd, "keep-config"),
			KeepTaskfile: mustGetBool(cmd, "keep-taskfile"),
			KeepFiles:    mustGetBool(cmd, "keep-files"),
			Yes:          app.Yes,
		}
		if mustGetBool(cmd, "batch") {
			_, err = app.Service.RemoveAll(cmd.Context(), opts)
			return err
		}
		return app.Service.Remove(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().String("name", "", "Entry to remove")
	removeCmd.Flags().Bool("batch", false, "Remove every registered subtree")
	removeCmd.Flags().Bool("keep-config", false, "Keep the registry entry")
	removeCmd.Flags().Bool("keep-taskfile", false, "Keep the Taskfile.yml item")
	removeCmd.Flags().Bool("keep-files", false, "Keep the files under the prefix")
}
