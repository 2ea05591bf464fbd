// Package cli defines the revsync command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/output"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "revsync",
		Short: "Keep jj changes and GitHub pull requests in lockstep",
		Long: `Revsync maps each jj change to one GitHub pull request and keeps the two
in sync: one command to create or update the pull request for a change or a
whole stack of changes, one command to land it.

Branches are pushed additively, so reviewers always see what changed since
they last looked. There is no local state beyond the change descriptions;
every run reconciles against what the platform currently shows.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.InitColors()
		},
	}

	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newLandCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newAmendCmd())
	rootCmd.AddCommand(newCloseCmd())
	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}
