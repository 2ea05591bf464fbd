package config

import (
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// RemoteURL reads the fetch URL of a named remote from the colocated git
// repository.
func RemoteURL(repoRoot, remoteName string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(repoRoot, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", remoteName)
	}
	return urls[0], nil
}

// ParseRemoteURL extracts hostname, owner and repository name from an https or
// ssh remote URL.
//
//	https://github.com/owner/repo.git
//	git@github.com:owner/repo.git
//	ssh://git@github.com/owner/repo
func ParseRemoteURL(remoteURL string) (hostname, owner, repo string, err error) {
	url := strings.TrimSuffix(strings.TrimSpace(remoteURL), ".git")

	var hostAndPath string
	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		hostAndPath = url[strings.Index(url, "://")+3:]
	case strings.HasPrefix(url, "ssh://"):
		hostAndPath = strings.TrimPrefix(url, "ssh://")
		if at := strings.Index(hostAndPath, "@"); at >= 0 {
			hostAndPath = hostAndPath[at+1:]
		}
	case strings.Contains(url, "@") && strings.Contains(url, ":"):
		// scp-like syntax: git@host:owner/repo
		at := strings.Index(url, "@")
		colon := strings.Index(url, ":")
		if colon < at {
			return "", "", "", fmt.Errorf("unrecognized remote URL: %s", remoteURL)
		}
		hostAndPath = url[at+1:colon] + "/" + url[colon+1:]
	default:
		return "", "", "", fmt.Errorf("unrecognized remote URL: %s", remoteURL)
	}

	parts := strings.Split(hostAndPath, "/")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("remote URL has no owner/repo path: %s", remoteURL)
	}
	return parts[0], parts[len(parts)-2], parts[len(parts)-1], nil
}
