package stack

import (
	"context"
	"fmt"

	revsyncerrors "revsync.dev/revsync/internal/errors"
	"revsync.dev/revsync/internal/jj"
)

// Resolver expands revision arguments into stacks.
type Resolver struct {
	JJ jj.Client

	// Base is the trunk-side boundary used by the range modes.
	Base string
}

// NewResolver creates a Resolver walking client with base as the default
// range boundary.
func NewResolver(client jj.Client, base string) *Resolver {
	return &Resolver{JJ: client, Base: base}
}

// Resolve computes the stack for a revision argument under the given mode.
func (r *Resolver) Resolve(ctx context.Context, revision string, mode Mode) (*Stack, error) {
	switch mode {
	case ModeSingle:
		change, err := r.JJ.Resolve(ctx, revision)
		if err != nil {
			return nil, err
		}
		return &Stack{Changes: []*jj.Change{change}, Mode: mode}, nil

	case ModeAllFromBase, ModeCherryPick:
		// The range modes push against the remote copy of the base, so it has
		// to exist there; TrunkHead fails with ErrDetachedBase otherwise.
		if _, err := r.JJ.TrunkHead(ctx); err != nil {
			return nil, err
		}

		changes, err := r.JJ.AncestorsBetween(ctx, r.Base, revision)
		if err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return nil, fmt.Errorf("%s..%s: %w", r.Base, revision, revsyncerrors.ErrEmptyStack)
		}
		if mode == ModeAllFromBase {
			if err := checkLinear(changes); err != nil {
				return nil, err
			}
		}
		return &Stack{Changes: changes, Mode: mode}, nil

	default:
		return nil, fmt.Errorf("unknown stack mode %d", mode)
	}
}

// checkLinear verifies the ancestor-before-descendant chain: every non-root
// entry's parent must be the previous entry. Forked or merged histories cannot
// be synchronized as a dependent stack.
func checkLinear(changes []*jj.Change) error {
	for i := 1; i < len(changes); i++ {
		if changes[i].ParentID != changes[i-1].ID {
			return fmt.Errorf("change %s does not follow %s linearly: %w",
				changes[i].ID, changes[i-1].ID, revsyncerrors.ErrAmbiguousRevision)
		}
	}
	return nil
}
