package jj

// Change represents one local unit of work: a jj change whose identifier
// survives rebases and amends while its commit (the content snapshot) moves
// underneath it. The adapter owns all mutation; the sync engine only ever
// requests rewords and pushes through the Client interface.
type Change struct {
	// ID is the stable change identifier.
	ID string

	// CommitID is the commit currently backing the change.
	CommitID string

	// ParentID is the change identifier of the first parent, or "" when the
	// parent is outside the repository (the virtual root).
	ParentID string

	// Description is the raw description text.
	Description string
}
