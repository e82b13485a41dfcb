package cli

import (
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
)

var pullCmd = &cobra.Command{
	Use:   "pull [NAME]",
	Short: "Pull remote changes into a subtree",
	Long: `Runs git subtree pull --squash for one entry, or for every entry with --batch.

Uncommitted changes only produce a warning. When git refuses to merge because
of them you can commit or stash and the pull is retried once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) {
			return runMenu(cmd)
		}
		app, err := OpenApp(cmd)
		if err != nil {
			return err
		}

		opts := subtree.PullOptions{Name: entryName(cmd, args), Yes: app.Yes}
		if mustGetBool(cmd, "batch") {
			_, err = app.Service.PullAll(cmd.Context(), opts)
			return err
		}
		return app.Service.Pull(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)

	pullCmd.Flags().String("name", "", "Entry to pull")
	pullCmd.Flags().Bool("batch", false, "Pull every registered subtree")
}
