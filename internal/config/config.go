// Package config provides repository configuration management. Settings live
// in jj repo config with git config as fallback, so there is no separate
// configuration file to drift out of sync.
package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"revsync.dev/revsync/internal/jj"
)

// Config keys, shared between jj and git config.
const (
	KeyRepository      = "revsync.githubRepository"
	KeyBranchPrefix    = "revsync.branchPrefix"
	KeyRequireApproval = "revsync.requireApproval"
	KeyRemote          = "revsync.remote"
	KeyTrunk           = "revsync.trunk"
	KeyAuthToken       = "revsync.githubAuthToken"
)

// DefaultBranchPrefix is used when no branch prefix is configured.
const DefaultBranchPrefix = "revsync/"

// Config holds the resolved repository identity and behavior switches. It is
// built once per invocation and threaded explicitly through every operation.
type Config struct {
	Owner           string
	Repo            string
	Hostname        string
	Remote          string
	Trunk           string
	BranchPrefix    string
	RequireApproval bool
	AuthToken       string
}

// Load resolves the configuration for the working copy driven by runner.
// Repository identity falls back to parsing the git remote URL when not
// configured explicitly.
func Load(ctx context.Context, runner *jj.CommandRunner) (*Config, error) {
	cfg := &Config{
		Remote:       getValue(ctx, runner, KeyRemote, "origin"),
		BranchPrefix: getValue(ctx, runner, KeyBranchPrefix, DefaultBranchPrefix),
		Trunk:        getValue(ctx, runner, KeyTrunk, ""),
	}
	cfg.RequireApproval = getBool(ctx, runner, KeyRequireApproval, false)

	if repo := getValue(ctx, runner, KeyRepository, ""); repo != "" {
		parts := strings.SplitN(repo, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s must be in owner/repo form, got %q", KeyRepository, repo)
		}
		cfg.Owner, cfg.Repo = parts[0], parts[1]
		cfg.Hostname = "github.com"
	}

	remoteURL, err := RemoteURL(runner.WorkingDir(), cfg.Remote)
	if err == nil {
		hostname, owner, repo, parseErr := ParseRemoteURL(remoteURL)
		if parseErr == nil {
			if cfg.Owner == "" {
				cfg.Owner, cfg.Repo = owner, repo
			}
			cfg.Hostname = hostname
		}
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("cannot determine GitHub repository; set %s or add a %s remote", KeyRepository, cfg.Remote)
	}

	if cfg.Trunk == "" {
		cfg.Trunk = inferTrunk(ctx, runner, cfg.Remote)
	}

	token, err := resolveAuthToken(ctx, runner)
	if err != nil {
		return nil, err
	}
	cfg.AuthToken = token

	return cfg, nil
}

// PullRequestURL returns the web URL for a pull request number.
func (c *Config) PullRequestURL(number int) string {
	return fmt.Sprintf("https://%s/%s/%s/pull/%d", c.hostnameOrDefault(), c.Owner, c.Repo, number)
}

var (
	prNumberPattern = regexp.MustCompile(`^\s*#?\s*(\d+)\s*$`)
	prURLPattern    = regexp.MustCompile(`^\s*https?://[\w\-\.]+/([\w\-\.]+)/([\w\-\.]+)/pull/(\d+)([/?#].*)?\s*$`)
)

// ParsePullRequestField extracts a pull request number from a Pull Request
// metadata value: a bare number, "#123", or a full URL pointing at this
// repository. Returns 0 when the text matches none of these forms.
func (c *Config) ParsePullRequestField(text string) int {
	if m := prNumberPattern.FindStringSubmatch(text); m != nil {
		return atoi(m[1])
	}
	if m := prURLPattern.FindStringSubmatch(text); m != nil {
		if m[1] == c.Owner && m[2] == c.Repo {
			return atoi(m[3])
		}
	}
	return 0
}

func (c *Config) hostnameOrDefault() string {
	if c.Hostname == "" {
		return "github.com"
	}
	return c.Hostname
}

// Set writes a configuration value into jj repo config.
func Set(ctx context.Context, runner *jj.CommandRunner, key, value string) error {
	if _, err := runner.JJ(ctx, "config", "set", "--repo", key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// getValue reads a config key from jj config first, then git config.
func getValue(ctx context.Context, runner *jj.CommandRunner, key, fallback string) string {
	if out, err := runner.JJ(ctx, "config", "get", key); err == nil && out != "" {
		return out
	}
	if out, err := runner.Git(ctx, "config", "--get", key); err == nil && out != "" {
		return out
	}
	return fallback
}

func getBool(ctx context.Context, runner *jj.CommandRunner, key string, fallback bool) bool {
	switch strings.ToLower(getValue(ctx, runner, key, "")) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return fallback
	}
}

// inferTrunk finds the remote's default branch, preferring the remote HEAD
// symref and falling back to main.
func inferTrunk(ctx context.Context, runner *jj.CommandRunner, remote string) string {
	if out, err := runner.Git(ctx, "symbolic-ref", "--short", fmt.Sprintf("refs/remotes/%s/HEAD", remote)); err == nil && out != "" {
		return strings.TrimPrefix(out, remote+"/")
	}
	return "main"
}

// resolveAuthToken discovers a GitHub token: environment first, then config,
// then the gh CLI.
func resolveAuthToken(ctx context.Context, runner *jj.CommandRunner) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token := getValue(ctx, runner, KeyAuthToken, ""); token != "" {
		return token, nil
	}
	if out, err := runner.GH(ctx, "auth", "token"); err == nil && out != "" {
		return out, nil
	}
	return "", fmt.Errorf("no GitHub token found; set GITHUB_TOKEN, %s, or log in with 'gh auth login'", KeyAuthToken)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
