package cli

import (
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
)

var listCmd = &cobra.Command{
	Use:     "list [NAME]",
	Aliases: []string{"ls"},
	Short:   "List registered subtrees",
	Long: `Lists the entries of the current workspace. Outside a git repository the
current workspace of the registry is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) {
			return runMenu(cmd)
		}
		app, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		_, err = app.Service.List(subtree.ListOptions{
			Name:    entryName(cmd, args),
			Verbose: mustGetBool(cmd, "long"),
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("name", "", "Show a single entry")
	listCmd.Flags().BoolP("long", "l", false, "Show every field, the split branch and extra data")
}
