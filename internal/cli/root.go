// Package cli defines the crit command tree. Commands read their service
// dependencies from package variables wired by app initialization.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "crit",
	Short: "crit - local task queue for AI-assisted development",
	Long: `crit is a local, file-persisted task tracker that stays in lockstep with
an AI coding assistant. Hook events from the assistant's tool calls flow
into a persistent task queue, which can be browsed and edited in an
interactive terminal viewer or from the command line.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crit %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
