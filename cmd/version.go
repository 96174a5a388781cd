package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"gooze.dev/pkg/crucible/internal/adapter"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, the report format and the built-in worker plugins.",
		Run: func(cmd *cobra.Command, _ []string) {
			version, goVersion := "unknown", "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				if info.Main.Version != "" {
					version = info.Main.Version
				}

				goVersion = info.GoVersion
			}

			cmd.Println("crucible version\t", version)
			cmd.Println("go version\t\t", goVersion)
			cmd.Println("report format\t\t", adapter.ReportVersion)
			cmd.Println("test runners\t\t", adapter.GoTestRunnerName)
			cmd.Println("checkers\t\t", adapter.GoBuildCheckerName)
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
