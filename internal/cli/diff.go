package cli

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/model"
	"revsync.dev/revsync/internal/output"
	"revsync.dev/revsync/internal/runtime"
	"revsync.dev/revsync/internal/sync"
)

// newDiffCmd creates the diff command
func newDiffCmd() *cobra.Command {
	var (
		all           bool
		base          string
		cherryPick    bool
		draft         bool
		updateMessage bool
		comment       string
	)

	cmd := &cobra.Command{
		Use:   "diff [revision]",
		Short: "Create or update the pull request for a change or a stack of changes",
		Long: `Create or update the pull request for a change. The revision defaults to @-,
the parent of the working copy. A range ("base..target" or "base::target") or
--all synchronizes every change in the range, oldest first, with each pull
request based on the previous one's branch.

Pushes are additive: the branch gains a snapshot commit instead of being
force-pushed, so the per-update diff stays visible to reviewers. The pull
request title and body are only touched with --update-message.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			st, err := resolveStack(cmd.Context(), rt, revisionFromArgs(args), all, base, cherryPick)
			if err != nil {
				return err
			}

			syncer := sync.NewSynchronizer(rt.JJ, rt.GitHub, rt.Config, rt.Splog)
			if comment == "" && isatty.IsTerminal(os.Stdin.Fd()) {
				syncer.Prompt = promptUpdateComment
			}

			opts := sync.Options{
				Draft:         draft,
				UpdateMessage: updateMessage,
				UpdateComment: comment,
				CherryPick:    cherryPick,
			}

			records := make(map[string]*model.PullRequestRecord)
			for i, change := range st.Changes {
				sc := &sync.StackContext{Stack: st, Index: i, Records: records}
				record, err := syncer.Synchronize(cmd.Context(), change, sc, opts)
				if err != nil {
					return err
				}
				rt.Splog.Info("%s %s", output.ColorPRNumber(record.Number), record.URL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Synchronize every change between the base and the revision.")
	cmd.Flags().StringVar(&base, "base", "", "Range boundary for --all. Defaults to trunk().")
	cmd.Flags().BoolVar(&cherryPick, "cherry-pick", false, "Base every pull request on trunk instead of the previous entry's branch.")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create new pull requests as drafts.")
	cmd.Flags().BoolVarP(&updateMessage, "update-message", "m", false, "Overwrite the pull request title and body with the local description.")
	cmd.Flags().StringVar(&comment, "comment", "", "Comment to post when the pull request branch moves.")

	return cmd
}

// promptUpdateComment asks for the comment to post alongside a new snapshot.
// An empty answer skips the comment.
func promptUpdateComment() (string, error) {
	var comment string
	prompt := &survey.Input{
		Message: "Comment for this update (empty to skip):",
	}
	if err := survey.AskOne(prompt, &comment); err != nil {
		return "", err
	}
	return comment, nil
}
