// Package jj provides the version-control adapter for revsync. It drives a
// Jujutsu working copy through the jj binary and falls back to git plumbing for
// the colocated repository where jj has no equivalent (tree hashes, branch
// pushes).
package jj

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	revsyncerrors "revsync.dev/revsync/internal/errors"
)

// DefaultCommandTimeout is the default timeout for subprocess commands
const DefaultCommandTimeout = 5 * time.Minute

// CommandRunner handles execution of jj and git commands
type CommandRunner struct {
	workingDir string
}

// NewCommandRunner creates a new CommandRunner rooted at workingDir
func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// WorkingDir returns the directory commands run in.
func (r *CommandRunner) WorkingDir() string {
	return r.workingDir
}

// JJ executes a jj command and returns its trimmed output.
func (r *CommandRunner) JJ(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, "jj", "", true, args...)
}

// JJRaw executes a jj command and returns its output without trimming.
func (r *CommandRunner) JJRaw(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, "jj", "", false, args...)
}

// JJWithInput executes a jj command feeding input on stdin.
func (r *CommandRunner) JJWithInput(ctx context.Context, input string, args ...string) (string, error) {
	return r.run(ctx, "jj", input, true, args...)
}

// Git executes a git command in the colocated repository and returns its trimmed output.
func (r *CommandRunner) Git(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, "git", "", true, args...)
}

// GH executes a gh CLI command. Used only for token discovery.
func (r *CommandRunner) GH(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, "gh", "", true, args...)
}

func (r *CommandRunner) run(ctx context.Context, command, input string, trim bool, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// If no timeout/deadline is set in the context, add the default one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	cmd.Env = append(os.Environ(), "NO_COLOR=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = ctx.Err()
		}
		return "", revsyncerrors.NewCommandError(command, args, stdout.String(), stderr.String(), err)
	}
	if trim {
		return strings.TrimSpace(stdout.String()), nil
	}
	return stdout.String(), nil
}
