package domain

import "github.com/shopspring/decimal"

// TripStats is the dashboard aggregate over the session user's trips.
type TripStats struct {
	Total         int             `json:"total"`
	Planned       int             `json:"planned"`
	Active        int             `json:"active"`
	Completed     int             `json:"completed"`
	Cancelled     int             `json:"cancelled"`
	TotalBudget   decimal.Decimal `json:"total_budget"`
	AverageBudget decimal.Decimal `json:"average_budget"`
	Destinations  []string        `json:"destinations"`
	Countries     []string        `json:"countries"`
	UpcomingTrips []Trip          `json:"upcoming_trips"`
	RecentTrips   []Trip          `json:"recent_trips"`
}
