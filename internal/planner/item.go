package planner

import (
	"strings"

	"github.com/google/uuid"
)

// Item is one planner entry. Its column is wherever the board holds it.
type Item struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	DisplayTitle *string   `json:"display_title,omitempty"`
	Notes        *string   `json:"notes"`
}

// Label returns the display title, or the title when the display title is blank.
func (it Item) Label() string {
	if it.DisplayTitle != nil && strings.TrimSpace(*it.DisplayTitle) != "" {
		return *it.DisplayTitle
	}
	return it.Title
}

// ItemUpdate is the editable content of an item.
type ItemUpdate struct {
	Title        string  `json:"title"`
	DisplayTitle string  `json:"display_title"`
	Notes        *string `json:"notes"`
}

// Normalize trims the titles and falls the display title back to the title.
func (u ItemUpdate) Normalize() ItemUpdate {
	u.Title = strings.TrimSpace(u.Title)
	u.DisplayTitle = strings.TrimSpace(u.DisplayTitle)
	if u.DisplayTitle == "" {
		u.DisplayTitle = u.Title
	}
	return u
}

// NewItem is the create request for the first column.
type NewItem struct {
	Title  string   `json:"title"`
	Notes  *string  `json:"notes"`
	Status ColumnID `json:"status"`
}
