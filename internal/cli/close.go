package cli

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/branchutil"
	"revsync.dev/revsync/internal/github"
	"revsync.dev/revsync/internal/message"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/runtime"
)

// newCloseCmd creates the close command
func newCloseCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "close [revision]",
		Short: "Close a change's pull request without landing it",
		Long: `Close the pull request for a change (default @-), delete its branch and
remove the pull request link from the change description. The change itself
stays in the working copy; a later diff creates a fresh pull request.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := resolveStack(cmd.Context(), rt, revisionFromArgs(args), false, "", false)
			if err != nil {
				return err
			}
			change := st.Changes[0]

			sections := message.Parse(change.Description)
			number := rt.Config.ParsePullRequestField(sections.PullRequestURL)
			if number == 0 {
				return fmt.Errorf("change %s has no pull request", change.ID)
			}

			if !yes && isatty.IsTerminal(os.Stdin.Fd()) {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Close PR #%d without landing it?", number),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}

			closed := "closed"
			if err := rt.GitHub.UpdatePullRequest(cmd.Context(), number, github.UpdatePROptions{State: &closed}); err != nil {
				return err
			}

			branch := branchutil.BranchName(rt.Config.BranchPrefix, change.ID)
			if err := rt.GitHub.DeleteBranch(cmd.Context(), branch); err != nil {
				rt.Splog.Debug("delete branch %s: %v", branch, err)
			}
			if err := rt.JJ.DeleteRemoteBranchTracking(cmd.Context(), branch); err != nil {
				rt.Splog.Debug("delete tracking ref %s: %v", branch, err)
			}

			// Drop the link so the change no longer claims the closed PR.
			stripped := sections.WithPullRequestURL("")
			if err := rt.JJ.SetDescription(cmd.Context(), change.ID, stripped.Serialize()); err != nil {
				return err
			}

			rt.Splog.Info("closed %s", output.ColorPRNumber(number))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Close without asking for confirmation.")

	return cmd
}
