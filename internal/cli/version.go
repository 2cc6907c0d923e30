package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rugged-mysql.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("rugged-mysql CLI\n")
			cmd.Printf("  Version: %s\n", version)
			cmd.Printf("  Commit:  %s\n", commit)
			cmd.Printf("  Built:   %s\n", date)
			cmd.Printf("  Runtime: %s\n", runtime.Version())
		},
	}
}
