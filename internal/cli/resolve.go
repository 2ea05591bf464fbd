package cli

import (
	"context"

	"revsync.dev/revsync/internal/runtime"
	"revsync.dev/revsync/internal/stack"
)

// defaultRangeBase is the revset bounding range modes when no --base is given.
const defaultRangeBase = "trunk()"

// revisionFromArgs returns the positional revision argument, if any.
func revisionFromArgs(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// resolveStack turns the revision argument and mode flags into a stack.
func resolveStack(ctx context.Context, rt *runtime.Context, revision string, all bool, baseFlag string, cherryPick bool) (*stack.Stack, error) {
	arg, err := stack.ParseRevisionArg(revision, all, baseFlag, defaultRangeBase)
	if err != nil {
		return nil, err
	}

	mode := stack.ModeSingle
	if arg.Ranged {
		mode = stack.ModeAllFromBase
		if cherryPick {
			mode = stack.ModeCherryPick
		}
	}

	base := arg.Base
	if arg.Inclusive {
		// "base::target" includes the boundary, so the walk starts one
		// generation further down.
		base = arg.Base + "-"
	}

	return stack.NewResolver(rt.JJ, base).Resolve(ctx, arg.Target, mode)
}
