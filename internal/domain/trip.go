// Package domain contains the core data types for the NextTrip backend.
// It is imported by every other internal package (repo, service, handler)
// and depends only on small value-type libraries.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripPlanned   TripStatus = "planned"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TripStatus) Valid() bool {
	switch s {
	case TripPlanned, TripActive, TripCompleted, TripCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

// CanTransition reports whether a trip may move from s to next.
// Statuses only move forward (planned → active → completed); cancelled is
// reachable from any non-terminal status. Staying put is always allowed.
func (s TripStatus) CanTransition(next TripStatus) bool {
	if s == next {
		return true
	}
	switch next {
	case TripActive:
		return s == TripPlanned
	case TripCompleted:
		return s == TripPlanned || s == TripActive
	case TripCancelled:
		return !s.Terminal()
	}
	return false
}

// TravelClass is the cabin class a trip is planned in.
type TravelClass string

const (
	ClassEconomy        TravelClass = "economy"
	ClassPremiumEconomy TravelClass = "premium_economy"
	ClassBusiness       TravelClass = "business"
	ClassFirst          TravelClass = "first"
)

// Valid reports whether c is a known travel class.
func (c TravelClass) Valid() bool {
	switch c {
	case ClassEconomy, ClassPremiumEconomy, ClassBusiness, ClassFirst:
		return true
	}
	return false
}

// Trip is the top-level aggregate. Itinerary items, expenses and checklist
// entries are owned by exactly one trip and persisted with it.
// StartDate and EndDate are nil when the traveller has not picked dates yet.
type Trip struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Destination     string          `json:"destination"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	Budget          decimal.Decimal `json:"budget"`
	TravelClass     TravelClass     `json:"travel_class"`
	Description     string          `json:"description,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Tags            []string        `json:"tags"`
	Status          TripStatus      `json:"status"`
	OwnerID         uuid.UUID       `json:"owner_id"`
	ActualStartDate *time.Time      `json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time      `json:"actual_end_date,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Itinerary       []ItineraryItem `json:"itinerary"`
	Expenses        []Expense       `json:"expenses"`
	Checklist       []ChecklistItem `json:"checklist"`
}

// Clone returns a deep copy of t. Mutating the copy's child slices or
// time pointers never affects t.
func (t Trip) Clone() Trip {
	c := t
	c.StartDate = cloneTime(t.StartDate)
	c.EndDate = cloneTime(t.EndDate)
	c.ActualStartDate = cloneTime(t.ActualStartDate)
	c.ActualEndDate = cloneTime(t.ActualEndDate)
	c.CancelledAt = cloneTime(t.CancelledAt)
	c.Tags = append([]string{}, t.Tags...)
	c.Itinerary = make([]ItineraryItem, len(t.Itinerary))
	for i, it := range t.Itinerary {
		c.Itinerary[i] = it.clone()
	}
	c.Expenses = append([]Expense{}, t.Expenses...)
	c.Checklist = make([]ChecklistItem, len(t.Checklist))
	for i, it := range t.Checklist {
		c.Checklist[i] = it.clone()
	}
	return c
}

// TripInput carries the fields accepted when creating a trip.
type TripInput struct {
	Name        string
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      decimal.Decimal
	TravelClass TravelClass
	Description string
	Notes       string
	Tags        []string
}

// TripPatch carries a partial update. Nil fields are left unchanged.
// ClearDates removes both dates before StartDate/EndDate are applied.
type TripPatch struct {
	Name        *string
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClearDates  bool
	Budget      *decimal.Decimal
	TravelClass *TravelClass
	Description *string
	Notes       *string
	Tags        []string
	Status      *TripStatus
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
