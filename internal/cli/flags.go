package cli

import (
	"github.com/spf13/cobra"
)

// Flags are registered in init, so a lookup error is a programming error and
// the zero value is returned.

func mustGetString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

// entryName returns the NAME argument, falling back to --name.
func entryName(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return mustGetString(cmd, "name")
}
