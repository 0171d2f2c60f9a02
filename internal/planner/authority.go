package planner

import (
	"context"

	"github.com/google/uuid"
)

// MoveResult is the authority's answer to a move.
type MoveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Authority is the remote store that owns the persisted board.
type Authority interface {
	FetchBoard(ctx context.Context) (RemoteBoard, error)
	MoveItems(ctx context.Context, snap OrderSnapshot) (MoveResult, error)
	CreateItem(ctx context.Context, req NewItem) (Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, upd ItemUpdate) (Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}
