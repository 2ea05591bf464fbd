// Package stack resolves revision arguments into ordered stacks of changes and
// carries the dependency structure the synchronizer wires into pull request
// base branches.
package stack

import (
	"revsync.dev/revsync/internal/jj"
)

// Mode selects how a revision argument expands into a stack. The set is closed
// so every switch over it can be exhaustive.
type Mode int

const (
	// ModeSingle resolves to exactly one change.
	ModeSingle Mode = iota

	// ModeAllFromBase walks ancestry from the requested head down to, but
	// excluding, the base reference. Each entry's pull request is based on the
	// previous entry's branch.
	ModeAllFromBase

	// ModeCherryPick performs the same traversal but synchronizes every entry
	// against trunk regardless of local parentage.
	ModeCherryPick
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeAllFromBase:
		return "all-from-base"
	case ModeCherryPick:
		return "cherry-pick"
	default:
		return "unknown"
	}
}

// CherryPick reports whether entries are based on trunk regardless of local
// parent relationships.
func (m Mode) CherryPick() bool {
	return m == ModeCherryPick || m == ModeSingle
}

// Stack is an ordered sequence of changes produced by one resolution. It is a
// request-scoped value and owns no remote state.
//
// In dependent mode the order is ancestor-before-descendant and every non-root
// entry's parent is the previous entry.
type Stack struct {
	Changes []*jj.Change
	Mode    Mode
}

// Len returns the number of changes in the stack.
func (s *Stack) Len() int {
	return len(s.Changes)
}

// Parent returns the stack parent of the change at index i, or nil for the
// root entry and for every entry in cherry-pick mode.
func (s *Stack) Parent(i int) *jj.Change {
	if s.Mode.CherryPick() || i <= 0 || i >= len(s.Changes) {
		return nil
	}
	return s.Changes[i-1]
}
