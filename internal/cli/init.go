package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"revsync.dev/revsync/internal/config"
	"revsync.dev/revsync/internal/jj"
	"revsync.dev/revsync/internal/output"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure revsync for this repository",
		Long: `Interactively configure revsync for the current jj repository. The answers
are stored in jj repo config; nothing is written outside the repository.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			splog := output.NewSplog()

			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			runner := jj.NewCommandRunner(wd)
			root, err := runner.JJ(cmd.Context(), "root")
			if err != nil {
				return fmt.Errorf("not inside a jj repository: %w", err)
			}
			runner = jj.NewCommandRunner(root)

			defaultRepo := ""
			if remoteURL, err := config.RemoteURL(root, "origin"); err == nil {
				if _, owner, repo, err := config.ParseRemoteURL(remoteURL); err == nil {
					defaultRepo = owner + "/" + repo
				}
			}

			answers := struct {
				Repository      string
				BranchPrefix    string
				RequireApproval bool
			}{}
			questions := []*survey.Question{
				{
					Name: "repository",
					Prompt: &survey.Input{
						Message: "GitHub repository (owner/repo):",
						Default: defaultRepo,
					},
					Validate: func(ans interface{}) error {
						s, _ := ans.(string)
						if len(strings.Split(s, "/")) != 2 {
							return fmt.Errorf("expected owner/repo, got %q", s)
						}
						return nil
					},
				},
				{
					Name: "branchPrefix",
					Prompt: &survey.Input{
						Message: "Branch prefix for pull request branches:",
						Default: config.DefaultBranchPrefix,
					},
				},
				{
					Name: "requireApproval",
					Prompt: &survey.Confirm{
						Message: "Require an approval before landing?",
						Default: false,
					},
				},
			}
			if err := survey.Ask(questions, &answers); err != nil {
				return err
			}

			settings := map[string]string{
				config.KeyRepository:      answers.Repository,
				config.KeyBranchPrefix:    answers.BranchPrefix,
				config.KeyRequireApproval: fmt.Sprintf("%t", answers.RequireApproval),
			}
			for key, value := range settings {
				if err := config.Set(cmd.Context(), runner, key, value); err != nil {
					return err
				}
			}

			splog.Info("configured revsync for %s", answers.Repository)
			if os.Getenv("GITHUB_TOKEN") == "" {
				splog.Tip("set GITHUB_TOKEN or log in with 'gh auth login' so revsync can reach GitHub")
			}
			return nil
		},
	}

	return cmd
}
