package repository

import "errors"

// Common repository errors
var (
	// ErrIdeaNotFound is returned when an idea is not found
	ErrIdeaNotFound = errors.New("idea not found")

	// ErrUnknownColumn is returned when an order names a column the board does not have
	ErrUnknownColumn = errors.New("unknown column")

	// ErrOrderMismatch is returned when an order does not list exactly the user's ideas
	ErrOrderMismatch = errors.New("order does not match stored ideas")
)
