package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// RemoteBoard is a get-board response before it has been checked, keyed by column.
type RemoteBoard map[ColumnID]json.RawMessage

// BoardView is the read-only side of a Board handed to rendering.
type BoardView interface {
	Columns() Columns
	Items(col ColumnID) []Item
	Find(id uuid.UUID) (ColumnID, int, bool)
	Len() int
	Snapshot() OrderSnapshot
}

// Board holds items in an arena and each column as an ordered list of
// arena slots. Column membership is positional: an item belongs to the
// column whose lane holds its slot.
//
// Mutation is unexported; only the engine and the reconciler change a board.
type Board struct {
	columns Columns
	slots   []Item
	free    []int
	lanes   map[ColumnID][]int
}

var _ BoardView = (*Board)(nil)

// NewBoard returns an empty board with one empty lane per column.
func NewBoard(columns Columns) *Board {
	b := &Board{columns: slices.Clone(columns)}
	b.reset()
	return b
}

func (b *Board) reset() {
	b.slots = b.slots[:0]
	b.free = b.free[:0]
	b.lanes = make(map[ColumnID][]int, len(b.columns))
	for _, c := range b.columns {
		b.lanes[c.ID] = []int{}
	}
}

func (b *Board) Columns() Columns {
	return b.columns
}

// Items returns a copy of the column's items in order.
func (b *Board) Items(col ColumnID) []Item {
	lane := b.lanes[col]
	items := make([]Item, len(lane))
	for i, slot := range lane {
		items[i] = b.slots[slot]
	}
	return items
}

// Find returns the column and position holding id.
func (b *Board) Find(id uuid.UUID) (ColumnID, int, bool) {
	for col, lane := range b.lanes {
		if i := b.indexIn(lane, id); i >= 0 {
			return col, i, true
		}
	}
	return "", -1, false
}

func (b *Board) Len() int {
	n := 0
	for _, lane := range b.lanes {
		n += len(lane)
	}
	return n
}

// Snapshot projects every lane to its ordered ids.
func (b *Board) Snapshot() OrderSnapshot {
	snap := make(OrderSnapshot, len(b.lanes))
	for col, lane := range b.lanes {
		ids := make([]uuid.UUID, len(lane))
		for i, slot := range lane {
			ids[i] = b.slots[slot].ID
		}
		snap[col] = ids
	}
	return snap
}

func (b *Board) indexIn(lane []int, id uuid.UUID) int {
	for i, slot := range lane {
		if b.slots[slot].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) hasLane(col ColumnID) bool {
	_, ok := b.lanes[col]
	return ok
}

func (b *Board) ensureLane(col ColumnID) {
	if !b.hasLane(col) {
		b.lanes[col] = []int{}
	}
}

// load replaces every lane with remote. Configured columns that are
// missing or not a list of items become empty; ids already placed are
// dropped. It returns the number of entries that were discarded.
func (b *Board) load(remote RemoteBoard) int {
	b.reset()
	placed := make(map[uuid.UUID]struct{})
	discarded := 0
	for _, c := range b.columns {
		elems, ok := decodeLane(remote[c.ID])
		if !ok {
			slog.Warn("coercing malformed column to empty", "column", c.ID)
			continue
		}
		for _, raw := range elems {
			var it Item
			if err := json.Unmarshal(raw, &it); err != nil || it.ID == uuid.Nil {
				slog.Warn("dropping malformed item from load", "column", c.ID)
				discarded++
				continue
			}
			if _, dup := placed[it.ID]; dup {
				slog.Warn("dropping duplicate item from load", "column", c.ID, "item", it.ID)
				discarded++
				continue
			}
			placed[it.ID] = struct{}{}
			b.lanes[c.ID] = append(b.lanes[c.ID], b.alloc(it))
		}
	}
	return discarded
}

// decodeLane splits a column into its raw elements. Anything that is not
// a JSON array is reported as malformed; null and absent mean empty.
func decodeLane(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, len(raw) == 0 || bytes.Equal(raw, []byte("null"))
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	return elems, true
}

// insert places item at index, clamped to [0, len]. The id must not be on
// the board and the lane must exist.
func (b *Board) insert(col ColumnID, index int, item Item) {
	lane, ok := b.lanes[col]
	if !ok {
		panic(fmt.Sprintf("planner: insert into unknown column %q", col))
	}
	if _, _, dup := b.Find(item.ID); dup {
		panic(fmt.Sprintf("planner: item %s is already on the board", item.ID))
	}
	index = clamp(index, 0, len(lane))
	b.lanes[col] = slices.Insert(lane, index, b.alloc(item))
}

// remove takes id out of col and returns it.
func (b *Board) remove(col ColumnID, id uuid.UUID) (Item, error) {
	lane, ok := b.lanes[col]
	if !ok {
		return Item{}, fmt.Errorf("%w: column %q", ErrNotFound, col)
	}
	i := b.indexIn(lane, id)
	if i < 0 {
		return Item{}, fmt.Errorf("%w: %s in %q", ErrNotFound, id, col)
	}
	slot := lane[i]
	b.lanes[col] = slices.Delete(lane, i, i+1)
	return b.release(slot), nil
}

// replace swaps the content of an item in place.
func (b *Board) replace(item Item) error {
	for _, lane := range b.lanes {
		if i := b.indexIn(lane, item.ID); i >= 0 {
			b.slots[lane[i]] = item
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, item.ID)
}

func (b *Board) alloc(it Item) int {
	if n := len(b.free); n > 0 {
		slot := b.free[n-1]
		b.free = b.free[:n-1]
		b.slots[slot] = it
		return slot
	}
	b.slots = append(b.slots, it)
	return len(b.slots) - 1
}

func (b *Board) release(slot int) Item {
	it := b.slots[slot]
	b.slots[slot] = Item{}
	b.free = append(b.free, slot)
	return it
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
