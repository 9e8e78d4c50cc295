package commands

import (
	"github.com/spf13/cobra"
)

var (
	// BuildVersion contains the major.minor version of the CLI client
	BuildVersion = "*not set*"

	// BuildTime contains timestamp when the CLI client has been built
	BuildTime = "*not set*"

	// BuildBranch contains Git branch used to build this application
	BuildBranch = "*not set*"

	// BuildCommit contains Git commit used to build this application
	BuildCommit = "*not set*"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			printInfo(cmd, "Version:", BuildVersion)
			printInfo(cmd, "Build time:", BuildTime)
			printInfo(cmd, "Branch:", BuildBranch)
			printInfo(cmd, "Commit:", BuildCommit)
		},
	}
}

func printInfo(cmd *cobra.Command, msg, val string) {
	cmd.Printf("%s\t%s\n", msg, val)
}
