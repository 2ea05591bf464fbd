// Package message parses and serializes the structured change description format:
// a title line, a free-text body and a trailing block of metadata lines
// (Reviewers, Pull Request, Reviewed By).
//
// Only the last contiguous block of recognized metadata lines at the end of the
// text is treated as metadata. A line that merely looks like a metadata line in
// the middle of the body stays part of the body. This is deliberate, documented
// behavior: it is the only policy under which a round-trip through
// Parse/Serialize can never move user prose into metadata.
package message

import (
	"strings"
)

// Metadata line prefixes recognized at the end of a description.
const (
	ReviewersPrefix   = "Reviewers:"
	PullRequestPrefix = "Pull Request:"
	ReviewedByPrefix  = "Reviewed By:"
)

// Sections is the parsed decomposition of a change description.
type Sections struct {
	// Title is the first line of the description.
	Title string

	// Body is the free text below the title, excluding recognized metadata lines.
	Body string

	// Reviewers holds requested reviewer usernames, deduplicated, in insertion order.
	Reviewers []string

	// PullRequestURL is set once a pull request exists for the change.
	PullRequestURL string

	// ReviewedBy holds the usernames that approved the pull request. Populated
	// only after landing.
	ReviewedBy []string
}

// Parse decomposes a raw description into sections. It never fails: unrecognized
// trailing lines fold into the body and absent metadata lines leave the
// corresponding fields empty.
func Parse(raw string) Sections {
	lines := strings.Split(strings.TrimRight(raw, "\n"), "\n")

	var sections Sections
	if len(lines) > 0 {
		sections.Title = strings.TrimSpace(lines[0])
		lines = lines[1:]
	}

	// Walk backwards over the trailing metadata block. Blank lines inside the
	// block are permitted because the canonical form separates the Reviewers
	// line from the Pull Request line with one, but a blank only stays inside
	// the block when another metadata line sits above it.
	metaStart := len(lines)
	i := len(lines) - 1
	for i >= 0 && strings.TrimSpace(lines[i]) == "" {
		i--
	}
	for i >= 0 {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			j := i
			for j >= 0 && strings.TrimSpace(lines[j]) == "" {
				j--
			}
			if j >= 0 && isMetadataLine(strings.TrimSpace(lines[j])) {
				i = j
				continue
			}
			break
		}
		if !isMetadataLine(line) {
			break
		}
		metaStart = i
		i--
	}

	for _, line := range lines[metaStart:] {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, ReviewersPrefix):
			sections.Reviewers = appendUnique(sections.Reviewers, splitUserList(strings.TrimPrefix(line, ReviewersPrefix))...)
		case strings.HasPrefix(line, PullRequestPrefix):
			sections.PullRequestURL = strings.TrimSpace(strings.TrimPrefix(line, PullRequestPrefix))
		case strings.HasPrefix(line, ReviewedByPrefix):
			sections.ReviewedBy = appendUnique(sections.ReviewedBy, splitUserList(strings.TrimPrefix(line, ReviewedByPrefix))...)
		}
	}

	sections.Body = strings.TrimSpace(strings.Join(lines[:metaStart], "\n"))
	return sections
}

// Serialize produces the canonical description text. Re-serializing a parsed
// description with no semantic change reproduces it byte for byte.
func (s Sections) Serialize() string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(s.Title))

	if body := strings.TrimSpace(s.Body); body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	if len(s.Reviewers) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(ReviewersPrefix + " " + strings.Join(s.Reviewers, ", "))
	}

	if s.PullRequestURL != "" || len(s.ReviewedBy) > 0 {
		sb.WriteString("\n\n")
		if s.PullRequestURL != "" {
			sb.WriteString(PullRequestPrefix + " " + s.PullRequestURL)
			if len(s.ReviewedBy) > 0 {
				sb.WriteString("\n")
			}
		}
		if len(s.ReviewedBy) > 0 {
			sb.WriteString(ReviewedByPrefix + " " + strings.Join(s.ReviewedBy, ", "))
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// MergeMetadata replaces the title and body of local with the authoritative
// values while preserving the locally-held reviewers, pull request URL and
// reviewed-by list. Used when the hosting platform is the source of truth for
// title and body but local reviewer edits must never be silently discarded.
func MergeMetadata(local Sections, title, body string) Sections {
	merged := local
	merged.Title = strings.TrimSpace(title)
	merged.Body = strings.TrimSpace(body)
	return merged
}

// WithReviewedBy returns a copy of s with the reviewed-by list set to approvers.
// No other field changes; landing appends only this one piece of metadata.
func (s Sections) WithReviewedBy(approvers []string) Sections {
	out := s
	out.ReviewedBy = appendUnique(nil, approvers...)
	return out
}

// WithPullRequestURL returns a copy of s with the pull request URL set.
func (s Sections) WithPullRequestURL(url string) Sections {
	out := s
	out.PullRequestURL = strings.TrimSpace(url)
	return out
}

func isMetadataLine(line string) bool {
	return strings.HasPrefix(line, ReviewersPrefix) ||
		strings.HasPrefix(line, PullRequestPrefix) ||
		strings.HasPrefix(line, ReviewedByPrefix)
}

func splitUserList(raw string) []string {
	var users []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			users = append(users, part)
		}
	}
	return users
}

func appendUnique(existing []string, users ...string) []string {
	for _, user := range users {
		found := false
		for _, have := range existing {
			if have == user {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, user)
		}
	}
	return existing
}
