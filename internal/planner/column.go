package planner

import (
	"errors"
	"fmt"
)

// ColumnID identifies one stage of the planner workflow.
type ColumnID string

const (
	ColumnIdea      ColumnID = "idea"
	ColumnScripting ColumnID = "scripting"
	ColumnFilming   ColumnID = "filming"
	ColumnEditing   ColumnID = "editing"
	ColumnScheduled ColumnID = "scheduled"
)

// Column carries display metadata for a ColumnID.
type Column struct {
	ID     ColumnID `yaml:"id" json:"id"`
	Title  string   `yaml:"title" json:"title"`
	Icon   string   `yaml:"icon" json:"icon"`
	Accent string   `yaml:"accent" json:"accent"`
}

// Columns is the fixed, ordered column enumeration of a board.
type Columns []Column

var ErrInvalidColumns = errors.New("invalid column configuration")

func DefaultColumns() Columns {
	return Columns{
		{ID: ColumnIdea, Title: "💡 Ideas", Icon: "🧠", Accent: "blue"},
		{ID: ColumnScripting, Title: "✍️ Scripting", Icon: "📝", Accent: "purple"},
		{ID: ColumnFilming, Title: "🎬 Filming", Icon: "🎥", Accent: "red"},
		{ID: ColumnEditing, Title: "✂️ Editing", Icon: "🎞️", Accent: "yellow"},
		{ID: ColumnScheduled, Title: "🗓️ Scheduled", Icon: "✅", Accent: "green"},
	}
}

// Validate rejects empty enumerations, blank ids and duplicates.
func (cs Columns) Validate() error {
	if len(cs) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidColumns)
	}
	seen := make(map[ColumnID]struct{}, len(cs))
	for i, c := range cs {
		if c.ID == "" {
			return fmt.Errorf("%w: column %d has no id", ErrInvalidColumns, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidColumns, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// IDs returns the column ids in board order.
func (cs Columns) IDs() []ColumnID {
	ids := make([]ColumnID, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

// Index returns the position of id in the enumeration, or -1.
func (cs Columns) Index(id ColumnID) int {
	for i, c := range cs {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (cs Columns) Contains(id ColumnID) bool {
	return cs.Index(id) >= 0
}

// First is the column new items are created in.
func (cs Columns) First() ColumnID {
	if len(cs) == 0 {
		return ""
	}
	return cs[0].ID
}

func (cs Columns) Get(id ColumnID) (Column, bool) {
	if i := cs.Index(id); i >= 0 {
		return cs[i], true
	}
	return Column{}, false
}
