// Package service contains the business logic for the NextTrip API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// Each service keeps an in-memory copy of its collection: a mutation works on
// a clone, persists it, and only then swaps it in, so a failed write leaves
// the service unchanged.
package service

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Point awards and costs.
const (
	PointsWelcome           = 50
	PointsTripCreated       = 10
	PointsChecklistComplete = 2
	PointsPhotoMemory       = 5
	PointsTrackedLocation   = 1
	PointsRouteSimulated    = 20
	RewardCost              = 100
)

// PointsAwarder credits points to the signed-in user. Awards made while
// nobody is signed in are dropped.
type PointsAwarder interface {
	Award(ctx context.Context, n int, reason string) error
}

// Reloader re-reads a service's collection from storage.
type Reloader interface {
	Reload(ctx context.Context) error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// calendarDate returns the date t falls on in its own location, as UTC
// midnight. Dates decoded from "YYYY-MM-DD" arrive as UTC midnight while the
// clock is local, so comparisons go through this on both sides.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }
