package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType classifies an itinerary item.
type ItemType string

const (
	ItemActivity      ItemType = "activity"
	ItemTransport     ItemType = "transport"
	ItemAccommodation ItemType = "accommodation"
	ItemMeal          ItemType = "meal"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemActivity, ItemTransport, ItemAccommodation, ItemMeal:
		return true
	}
	return false
}

// ItemStatusPlanned is the status every new or duplicated itinerary item starts in.
const ItemStatusPlanned = "planned"

// ItineraryItem is a scheduled sub-activity within a trip.
// Items keep insertion order; no ordering by time is enforced.
type ItineraryItem struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	StartTime   *time.Time      `json:"start_time,omitempty"`
	EndTime     *time.Time      `json:"end_time,omitempty"`
	Location    string          `json:"location,omitempty"`
	Type        ItemType        `json:"type"`
	Status      string          `json:"status"`
	Cost        decimal.Decimal `json:"cost"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

func (it ItineraryItem) clone() ItineraryItem {
	c := it
	c.StartTime = cloneTime(it.StartTime)
	c.EndTime = cloneTime(it.EndTime)
	c.UpdatedAt = cloneTime(it.UpdatedAt)
	return c
}

// ItineraryInput carries the fields accepted when adding an itinerary item.
type ItineraryInput struct {
	Title       string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    string
	Type        ItemType
	Cost        decimal.Decimal
	Notes       string
}

// ItineraryPatch carries a partial itinerary update. Nil fields are left unchanged.
type ItineraryPatch struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
	Type        *ItemType
	Status      *string
	Cost        *decimal.Decimal
	Notes       *string
}
