package stack

import (
	"fmt"
	"strings"
)

// DefaultRevision is used when no revision argument is given: the parent of
// the working-copy change, which is the change being worked on.
const DefaultRevision = "@-"

// RevisionArg is the parsed form of a revision argument.
type RevisionArg struct {
	// Base is the range boundary, empty for single revisions.
	Base string

	// Target is the revision to synchronize (the head of the range).
	Target string

	// Ranged reports whether the argument names a range rather than a single
	// revision.
	Ranged bool

	// Inclusive reports whether the range includes Base itself (the "::"
	// operator rather than "..").
	Inclusive bool
}

// ParseRevisionArg interprets a revision argument. Range syntax in the
// argument ("base..head" excludes the base, "base::head" includes it)
// overrides allMode; allMode expands to baseFlag..revision with defaultBase
// standing in for an empty baseFlag.
func ParseRevisionArg(revision string, allMode bool, baseFlag, defaultBase string) (RevisionArg, error) {
	if revision == "" {
		revision = DefaultRevision
	}

	if strings.Contains(revision, "..") {
		parts := strings.Split(revision, "..")
		if len(parts) != 2 {
			return RevisionArg{}, fmt.Errorf("invalid revision range %q: use 'base..target'", revision)
		}
		return RevisionArg{Base: parts[0], Target: parts[1], Ranged: true}, nil
	}

	if strings.Contains(revision, "::") {
		parts := strings.Split(revision, "::")
		if len(parts) != 2 {
			return RevisionArg{}, fmt.Errorf("invalid revision range %q: use 'base::target'", revision)
		}
		return RevisionArg{Base: parts[0], Target: parts[1], Ranged: true, Inclusive: true}, nil
	}

	if allMode {
		base := baseFlag
		if base == "" {
			base = defaultBase
		}
		return RevisionArg{Base: base, Target: revision, Ranged: true}, nil
	}

	return RevisionArg{Target: revision}, nil
}
