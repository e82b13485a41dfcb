package cli

import (
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
)

var splitCmd = &cobra.Command{
	Use:   "split [NAME]",
	Short: "Split a subtree's history into its split branch",
	Long: `Runs git subtree split for the entry's prefix into its split branch:
the configured split_branch, or <name>#ST<YYMMDD> for today.

With --copy the command is put on the clipboard instead of being run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) {
			return runMenu(cmd)
		}
		app, err := OpenApp(cmd)
		if err != nil {
			return err
		}

		opts := subtree.SplitOptions{
			Name:   entryName(cmd, args),
			Rejoin: app.Settings.Push.Rejoin && !mustGetBool(cmd, "no-rejoin"),
			Yes:    app.Yes,
			Copy:   mustGetBool(cmd, "copy"),
		}
		if mustGetBool(cmd, "batch") {
			_, err = app.Service.SplitAll(cmd.Context(), opts)
			return err
		}
		return app.Service.Split(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().String("name", "", "Entry to split")
	splitCmd.Flags().Bool("batch", false, "Split every registered subtree")
	splitCmd.Flags().Bool("no-rejoin", false, "Do not merge the split back with --rejoin")
	splitCmd.Flags().Bool("copy", false, "Copy the git command to the clipboard instead of running it")
}
