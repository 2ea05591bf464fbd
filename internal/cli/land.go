package cli

import (
	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/land"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/runtime"
)

// newLandCmd creates the land command
func newLandCmd() *cobra.Command {
	var (
		all  bool
		base string
	)

	cmd := &cobra.Command{
		Use:   "land [revision]",
		Short: "Squash-merge a change's pull request into trunk",
		Long: `Squash-merge the pull request for a change into trunk and delete its branch.
The revision defaults to @-. With --all or a range, every change in the range
lands oldest first; the run stops at the first failure so nothing lands out
of order.

A pull request only lands when it shows the change's current content. If the
change was edited since the last diff, land refuses and asks for a diff
first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := resolveStack(cmd.Context(), rt, revisionFromArgs(args), all, base, false)
			if err != nil {
				return err
			}

			lander := land.NewLander(rt.JJ, rt.GitHub, rt.Config, rt.Splog)
			for _, change := range st.Changes {
				result, err := lander.Land(cmd.Context(), change)
				if err != nil {
					return err
				}
				rt.Splog.Info("%s landed as %s", output.ColorPRNumber(result.PRNumber), result.MergeCommit)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Land every change between the base and the revision, oldest first.")
	cmd.Flags().StringVar(&base, "base", "", "Range boundary for --all. Defaults to trunk().")

	return cmd
}
