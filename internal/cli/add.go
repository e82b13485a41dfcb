package cli

import (
	"github.com/spf13/cobra"

	"github.com/naoray/subtreesync/internal/subtree"
)

var addCmd = &cobra.Command{
	Use:   "add [NAME]",
	Short: "Add a remote repository as a subtree",
	Long: `Merges a remote repository under a local prefix with
git subtree add --squash and registers it.

The entry name doubles as the git remote name. Missing values are derived:
the name from the remote URL, the prefix from prefix_root and the name, the
branch from default_branch. On a terminal they are asked for instead.

Examples:
  # GitHub short form, everything else derived
  subtreesync add --remote acme/widgets

  # Fully specified, no questions
  subtreesync add lib --remote https://example.com/lib.git --prefix src/lib --branch main -y`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if menuRequested(cmd) {
			return runMenu(cmd)
		}
		app, err := OpenApp(cmd)
		if err != nil {
			return err
		}
		_, err = app.Service.Add(cmd.Context(), addOptions(cmd, args, app.Yes))
		return err
	},
}

func addOptions(cmd *cobra.Command, args []string, yes bool) subtree.AddOptions {
	return subtree.AddOptions{
		Name:        entryName(cmd, args),
		Remote:      mustGetString(cmd, "remote"),
		Prefix:      mustGetString(cmd, "prefix"),
		Branch:      mustGetString(cmd, "branch"),
		SplitBranch: mustGetString(cmd, "split-branch"),
		NoTaskfile:  mustGetBool(cmd, "no-taskfile"),
		Yes:         yes,
	}
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().String("name", "", "Entry name, also used as the git remote name")
	addCmd.Flags().String("remote", "", "Remote repository URL, path or owner/repo")
	addCmd.Flags().String("prefix", "", "Directory to merge the repository into")
	addCmd.Flags().String("branch", "", "Remote branch to track")
	addCmd.Flags().String("split-branch", "", "Fixed split branch instead of the dated <name>#ST<YYMMDD>")
	addCmd.Flags().Bool("no-taskfile", false, "Do not add the subtree to Taskfile.yml")
}
