// Package runtime wires the real adapters together for one command
// invocation: working copy discovery, configuration, the jj client and the
// GitHub client.
package runtime

import (
	"context"
	"fmt"
	"os"

	"revsync.dev/revsync/internal/config"
	"revsync.dev/revsync/internal/github"
	"revsync.dev/revsync/internal/jj"
	"revsync.dev/revsync/internal/output"
)

// Context provides commands access to the configured adapters.
type Context struct {
	Config *config.Config
	JJ     jj.Client
	GitHub github.Client
	Splog  *output.Splog
	Runner *jj.CommandRunner
}

// NewContext builds a Context for the jj repository containing the current
// working directory.
func NewContext(ctx context.Context) (*Context, error) {
	splog, err := output.NewSplogWithConfig(output.LogFilePath())
	if err != nil {
		splog = output.NewSplog()
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	runner := jj.NewCommandRunner(wd)

	root, err := runner.JJ(ctx, "root")
	if err != nil {
		return nil, fmt.Errorf("not inside a jj repository: %w", err)
	}
	runner = jj.NewCommandRunner(root)

	cfg, err := config.Load(ctx, runner)
	if err != nil {
		return nil, err
	}

	ghClient, err := github.NewRealClient(ctx, cfg.Hostname, cfg.AuthToken, cfg.Owner, cfg.Repo)
	if err != nil {
		return nil, err
	}

	return &Context{
		Config: cfg,
		JJ:     jj.NewClient(root, cfg.Remote, cfg.Trunk),
		GitHub: ghClient,
		Splog:  splog,
		Runner: runner,
	}, nil
}

// Close releases resources held by the context.
func (c *Context) Close() error {
	return c.Splog.Close()
}
