// Package errors provides sentinel errors and custom error types for the revsync application.
// Use errors.Is() and errors.As() to check for specific error types.
//
// Every failure belongs to one of four classes which determine how callers react:
// Validation and Permission failures are fatal and never retried, Conflict failures
// are fatal for the current call but recoverable by re-running the operation, and
// Transient failures are eligible for bounded retry inside the adapter boundary.
package errors

import (
	"errors"
	"fmt"
)

// Class categorizes a failure for retry and reporting purposes.
type Class int

const (
	// ClassValidation covers bad input: unknown revisions, empty stacks,
	// out-of-order landing attempts. Never retried.
	ClassValidation Class = iota

	// ClassConflict covers failures where remote and local state have diverged:
	// stale pull requests, rejected pushes, merge conflicts. The human workflow
	// recovers by re-syncing and retrying the whole operation.
	ClassConflict

	// ClassTransient covers network-class failures: platform unavailable, rate
	// limited. Retried with bounded exponential backoff inside the adapters.
	ClassTransient

	// ClassPermission covers authorization failures. Never retried.
	ClassPermission
)

// Sentinel errors for common conditions
var (
	// ErrNotFound indicates that a revision or pull request does not exist
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousRevision indicates that a revision expression resolved to more than one head
	ErrAmbiguousRevision = errors.New("ambiguous revision")

	// ErrEmptyStack indicates that a revision range contained no changes
	ErrEmptyStack = errors.New("empty stack")

	// ErrDetachedBase indicates that the requested base reference is not present
	// on the remote tracking branch
	ErrDetachedBase = errors.New("base not found on remote")

	// ErrWorkingCopyDirty indicates that the working copy has uncommitted state
	// blocking the requested operation
	ErrWorkingCopyDirty = errors.New("working copy is dirty")

	// ErrStalePullRequest indicates that the pull request head no longer matches
	// the change's current content
	ErrStalePullRequest = errors.New("pull request is stale")

	// ErrApprovalRequired indicates that landing was attempted without an approved review
	ErrApprovalRequired = errors.New("approval required")

	// ErrOutOfOrderLanding indicates an attempt to land a change before its stack parent
	ErrOutOfOrderLanding = errors.New("stack must land root-first")

	// ErrMergeConflict indicates that the squash merge cannot be performed cleanly
	ErrMergeConflict = errors.New("merge conflict")

	// ErrPushRejected indicates that the remote rejected a branch push
	ErrPushRejected = errors.New("push rejected")

	// ErrPlatformUnavailable indicates a transient hosting platform failure
	ErrPlatformUnavailable = errors.New("platform unavailable")

	// ErrNoWriteAccess indicates that the token lacks write access to the repository
	ErrNoWriteAccess = errors.New("no write access")
)

// classified pairs a sentinel with its failure class. A slice rather than a map
// keeps classification order deterministic.
var classified = []struct {
	sentinel error
	class    Class
}{
	{ErrNotFound, ClassValidation},
	{ErrAmbiguousRevision, ClassValidation},
	{ErrEmptyStack, ClassValidation},
	{ErrDetachedBase, ClassValidation},
	{ErrWorkingCopyDirty, ClassValidation},
	{ErrOutOfOrderLanding, ClassValidation},
	{ErrApprovalRequired, ClassValidation},
	{ErrStalePullRequest, ClassConflict},
	{ErrMergeConflict, ClassConflict},
	{ErrPushRejected, ClassConflict},
	{ErrPlatformUnavailable, ClassTransient},
	{ErrNoWriteAccess, ClassPermission},
}

// Classify returns the failure class for err. Errors outside the taxonomy are
// treated as validation failures: fatal, never retried.
func Classify(err error) Class {
	for _, entry := range classified {
		if errors.Is(err, entry.sentinel) {
			return entry.class
		}
	}
	return ClassValidation
}

// IsTransient reports whether err is eligible for retry.
func IsTransient(err error) bool {
	return Classify(err) == ClassTransient
}

// IsConflict reports whether err is a divergence between local and remote state.
func IsConflict(err error) bool {
	return Classify(err) == ClassConflict
}

// SyncError wraps a failure from synchronizing or landing one change, carrying
// enough context to be actionable: the change identifier and, where known, the
// branch name and pull request number.
type SyncError struct {
	ChangeID string
	Branch   string
	PRNumber int
	Err      error
}

func (e *SyncError) Error() string {
	msg := fmt.Sprintf("change %s", e.ChangeID)
	if e.Branch != "" {
		msg += fmt.Sprintf(" (branch %s", e.Branch)
		if e.PRNumber > 0 {
			msg += fmt.Sprintf(", PR #%d", e.PRNumber)
		}
		msg += ")"
	} else if e.PRNumber > 0 {
		msg += fmt.Sprintf(" (PR #%d)", e.PRNumber)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError
func NewSyncError(changeID, branch string, prNumber int, err error) *SyncError {
	return &SyncError{ChangeID: changeID, Branch: branch, PRNumber: prNumber, Err: err}
}

// RevisionError represents a failure to resolve a revision expression
type RevisionError struct {
	Revision string
	Err      error
}

func (e *RevisionError) Error() string {
	return fmt.Sprintf("revision %q: %v", e.Revision, e.Err)
}

func (e *RevisionError) Unwrap() error {
	return e.Err
}

// NewRevisionError creates a new RevisionError
func NewRevisionError(revision string, err error) *RevisionError {
	return &RevisionError{Revision: revision, Err: err}
}

// CommandError represents an error from a subprocess execution (jj, git or gh)
type CommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s command failed", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(": %s %v", e.Command, e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, stdout, stderr string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
