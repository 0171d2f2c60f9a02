package planner

import (
	"encoding/json"
	"slices"

	"github.com/google/uuid"
)

// OrderSnapshot maps every column to the ordered ids it holds.
// It is the whole payload of a move: ids and order, no item content.
type OrderSnapshot map[ColumnID][]uuid.UUID

// MarshalJSON encodes empty columns as [] rather than null.
func (s OrderSnapshot) MarshalJSON() ([]byte, error) {
	out := make(map[ColumnID][]uuid.UUID, len(s))
	for col, ids := range s {
		if ids == nil {
			ids = []uuid.UUID{}
		}
		out[col] = ids
	}
	return json.Marshal(out)
}

// Equal reports whether both snapshots hold the same columns in the same order.
func (s OrderSnapshot) Equal(other OrderSnapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for col, ids := range s {
		o, ok := other[col]
		if !ok || !slices.Equal(ids, o) {
			return false
		}
	}
	return true
}

// Len is the total number of ids across all columns.
func (s OrderSnapshot) Len() int {
	n := 0
	for _, ids := range s {
		n += len(ids)
	}
	return n
}
