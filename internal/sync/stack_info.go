package sync

import (
	"fmt"
	"strings"

	"revsync.dev/revsync/internal/config"
	"revsync.dev/revsync/internal/message"
)

// stackFooterMarker opens the generated stack navigation section in a pull
// request body. Everything from the marker to the end of the body is owned by
// the tool and regenerated on every message update.
const stackFooterMarker = "<!-- revsync stack -->"

// appendStackFooter renders the body plus the stack navigation footer: the
// entry's position and a link list over the stack, descendant-first the way
// the pull requests read on the platform.
func appendStackFooter(body string, cfg *config.Config, sc *StackContext) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(body, "\n"))
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(stackFooterMarker)
	sb.WriteString("\n---\n")
	fmt.Fprintf(&sb, "**Stack** (%d/%d):\n", sc.Index+1, sc.Stack.Len())

	for i := sc.Stack.Len() - 1; i >= 0; i-- {
		change := sc.Stack.Changes[i]
		title := message.Parse(change.Description).Title
		entry := title
		if record, ok := sc.Records[change.ID]; ok && record.Number > 0 {
			entry = fmt.Sprintf("%s %s", cfg.PullRequestURL(record.Number), title)
		}
		if i == sc.Index {
			sb.WriteString("- **" + entry + "** ⬅\n")
		} else {
			sb.WriteString("- " + entry + "\n")
		}
	}
	return sb.String()
}

// StripStackFooter removes the generated stack section from a pull request
// body, returning the author-owned part. Used when adopting a remote body
// back into a local description.
func StripStackFooter(body string) string {
	idx := strings.Index(body, stackFooterMarker)
	if idx == -1 {
		return body
	}
	return strings.TrimRight(body[:idx], "\n")
}
