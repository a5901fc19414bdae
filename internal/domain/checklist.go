package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChecklistItem is a to-do entry on a trip.
// CompletedAt is set when Completed flips to true and cleared when it flips back.
type ChecklistItem struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (c ChecklistItem) clone() ChecklistItem {
	out := c
	out.CompletedAt = cloneTime(c.CompletedAt)
	return out
}

// ChecklistInput carries the fields accepted when adding a checklist item.
type ChecklistInput struct {
	Title    string
	Category string
	Priority string
}
