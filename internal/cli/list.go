package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/message"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/runtime"
)

// newListCmd creates the list command
func newListCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "list [revision]",
		Short: "Show the pull request status of every change up to the revision",
		Long: `List the changes between trunk and the revision (default @-) with the state
of their pull requests: number, open/draft/merged/closed, check status and
approval.`,
		Args:    cobra.MaximumNArgs(1),
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			// Cherry-pick traversal: listing tolerates forked histories.
			st, err := resolveStack(cmd.Context(), rt, revisionFromArgs(args), true, base, true)
			if err != nil {
				return err
			}

			for _, change := range st.Changes {
				sections := message.Parse(change.Description)
				number := rt.Config.ParsePullRequestField(sections.PullRequestURL)
				if number == 0 {
					rt.Splog.Info("  %s  %s", output.ColorDim("  --  "), sections.Title)
					continue
				}

				pr, err := rt.GitHub.GetPullRequest(cmd.Context(), number)
				if err != nil {
					return err
				}

				state := "open"
				if pr.Merged {
					state = "merged"
				} else if pr.State == "closed" {
					state = "closed"
				}

				fields := []string{
					output.ColorChecks(pr.ChecksPassing, pr.ChecksPending),
					output.ColorPRNumber(number),
					output.ColorState(state, pr.Draft),
					sections.Title,
				}
				if approval := output.ColorApproval(pr.Approved); approval != "" {
					fields = append(fields, approval)
				}
				rt.Splog.Info("%s", strings.Join(fields, "  "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Range boundary. Defaults to trunk().")

	return cmd
}
