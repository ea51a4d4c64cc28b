// Package cli implements the meetnotes command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meet-notes-recorder/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "meetnotes",
	Short: "Calendar-driven meeting recorder",
	Long: `meetnotes watches a calendar for upcoming meetings, joins them
through a browser, and records screen, audio and live captions into a
per-meeting directory.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("meetnotes %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, devicesCmd, versionCmd)
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
