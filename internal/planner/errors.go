package planner

import "errors"

var (
	// ErrNotFound is returned when an item is not in the column it was looked up in.
	ErrNotFound = errors.New("item not found")

	// ErrDrift means the board disagrees with the event that referenced it.
	// A full reload has been requested by the time a caller sees it.
	ErrDrift = errors.New("board drifted from source of truth")

	// ErrNoContainers is returned when the drag surface has nothing to bind after a retry.
	ErrNoContainers = errors.New("no column containers to bind")

	// ErrNoAdjacentColumn is returned when moving left of the first or right of the last column.
	ErrNoAdjacentColumn = errors.New("no column in that direction")

	// ErrTransport marks a remote call that did not complete.
	ErrTransport = errors.New("transport failure")

	// ErrEmptyTitle is returned when creating an item without a title.
	ErrEmptyTitle = errors.New("title is required")

	// ErrSessionClosed is returned by session calls after Run has returned.
	ErrSessionClosed = errors.New("session closed")
)
