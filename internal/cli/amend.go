package cli

import (
	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/message"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/runtime"
	"revsync.dev/revsync/internal/sync"
)

// newAmendCmd creates the amend command
func newAmendCmd() *cobra.Command {
	var (
		all  bool
		base string
	)

	cmd := &cobra.Command{
		Use:   "amend [revision]",
		Short: "Copy the pull request title and body back into the change description",
		Long: `Adopt the pull request's current title and body into the local change
description. Use this after editing the pull request on GitHub, so the local
description stays the source of truth for the next --update-message.

Reviewer lists and the pull request link in the local description are kept;
only title and body are replaced.`,
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

			for _, change := range st.Changes {
				sections := message.Parse(change.Description)
				number := rt.Config.ParsePullRequestField(sections.PullRequestURL)
				if number == 0 {
					rt.Splog.Debug("change %s has no pull request, skipping", change.ID)
					continue
				}

				pr, err := rt.GitHub.GetPullRequest(cmd.Context(), number)
				if err != nil {
					return err
				}

				merged := message.MergeMetadata(sections, pr.Title, sync.StripStackFooter(pr.Body))
				if merged.Serialize() == change.Description {
					continue
				}
				if err := rt.JJ.SetDescription(cmd.Context(), change.ID, merged.Serialize()); err != nil {
					return err
				}
				rt.Splog.Info("updated description of %s from %s", change.ID, output.ColorPRNumber(number))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Amend every change between the base and the revision.")
	cmd.Flags().StringVar(&base, "base", "", "Range boundary for --all. Defaults to trunk().")

	return cmd
}
