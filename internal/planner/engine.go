package planner

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Direction selects the neighbouring column for MoveAdjacent.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// DropEvent is what the drag surface reports when an item is released.
type DropEvent struct {
	ItemID      uuid.UUID
	From        ColumnID
	To          ColumnID
	TargetIndex int
}

// Engine applies moves to a board. Each call is one atomic local change:
// it either completes or leaves the board untouched.
type Engine struct {
	board *Board
}

func NewEngine(board *Board) *Engine {
	return &Engine{board: board}
}

// ApplyMove moves itemID from one column to targetIndex of another (or the
// same) column and returns the full-board snapshot to persist.
//
// targetIndex is read after the item has been removed, which is how drag
// libraries report it. An item missing from the source column is drift:
// the board is left as is and ErrDrift is returned.
func (e *Engine) ApplyMove(itemID uuid.UUID, from, to ColumnID, targetIndex int) (OrderSnapshot, error) {
	if !e.board.hasLane(from) || e.board.indexIn(e.board.lanes[from], itemID) < 0 {
		slog.Error("moved item not in source column", "item", itemID, "from", from)
		return nil, fmt.Errorf("%w: %w", ErrDrift, fmt.Errorf("%w: %s in %q", ErrNotFound, itemID, from))
	}
	item, err := e.board.remove(from, itemID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDrift, err)
	}
	if !e.board.hasLane(to) {
		slog.Warn("drop target is not a configured column", "column", to)
		e.board.ensureLane(to)
	}
	e.board.insert(to, targetIndex, item)
	slog.Debug("applied move", "item", itemID, "from", from, "to", to, "index", targetIndex)
	return e.board.Snapshot(), nil
}

// Drop applies a drop event.
func (e *Engine) Drop(ev DropEvent) (OrderSnapshot, error) {
	return e.ApplyMove(ev.ItemID, ev.From, ev.To, ev.TargetIndex)
}

// MoveAdjacent moves an item to the end of the previous or next column.
func (e *Engine) MoveAdjacent(itemID uuid.UUID, dir Direction) (OrderSnapshot, error) {
	from, _, ok := e.board.Find(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrDrift, fmt.Errorf("%w: %s", ErrNotFound, itemID))
	}
	cols := e.board.columns
	i := cols.Index(from)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoAdjacentColumn, from)
	}
	target := i + int(dir)
	if target < 0 || target >= len(cols) {
		return nil, fmt.Errorf("%w: %q", ErrNoAdjacentColumn, from)
	}
	to := cols[target].ID
	return e.ApplyMove(itemID, from, to, len(e.board.lanes[to]))
}

// Append adds a newly created item to the end of col.
func (e *Engine) Append(col ColumnID, item Item) error {
	if _, _, dup := e.board.Find(item.ID); dup {
		return fmt.Errorf("%w: item %s already on the board", ErrDrift, item.ID)
	}
	e.board.ensureLane(col)
	e.board.insert(col, len(e.board.lanes[col]), item)
	return nil
}

// Delete removes an item from whichever column holds it.
func (e *Engine) Delete(itemID uuid.UUID) (Item, error) {
	col, _, ok := e.board.Find(itemID)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, itemID)
	}
	return e.board.remove(col, itemID)
}

// Replace updates an item's content. Membership never changes here.
func (e *Engine) Replace(item Item) error {
	return e.board.replace(item)
}
