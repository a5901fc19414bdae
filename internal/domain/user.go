package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a named permission bucket.
type Tier string

const (
	TierFree    Tier = "Free"
	TierPro     Tier = "Pro"
	TierPremium Tier = "Premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierPermissions[t]
	return ok
}

// Permission is a capability granted by a tier.
type Permission string

const (
	PermBasicFeatures     Permission = "basic_features"
	PermMapAccess         Permission = "map_access"
	PermTripPlanning      Permission = "trip_planning"
	PermAISuggestions     Permission = "ai_suggestions"
	PermAdvancedAnalytics Permission = "advanced_analytics"
	PermTeamFeatures      Permission = "team_features"
	PermAPIAccess         Permission = "api_access"
)

// tierPermissions is the full capability set of each tier. Every tier lists
// its permissions explicitly; nothing is inherited from a lower tier.
var tierPermissions = map[Tier][]Permission{
	TierFree: {
		PermBasicFeatures, PermMapAccess, PermTripPlanning,
	},
	TierPro: {
		PermBasicFeatures, PermMapAccess, PermTripPlanning,
		PermAISuggestions, PermAdvancedAnalytics,
	},
	TierPremium: {
		PermBasicFeatures, PermMapAccess, PermTripPlanning,
		PermAISuggestions, PermAdvancedAnalytics,
		PermTeamFeatures, PermAPIAccess,
	},
}

// Permissions returns a copy of the capability set of t.
// Unknown tiers get the Free set.
func (t Tier) Permissions() []Permission {
	perms, ok := tierPermissions[t]
	if !ok {
		perms = tierPermissions[TierFree]
	}
	return append([]Permission(nil), perms...)
}

// Can reports whether t grants p.
func (t Tier) Can(p Permission) bool {
	for _, have := range t.Permissions() {
		if have == p {
			return true
		}
	}
	return false
}

// Preferences are user-controlled flags.
type Preferences struct {
	Notifications bool  `json:"notifications"`
	Newsletter    bool  `json:"newsletter"`
	Theme         Theme `json:"theme"`
}

// PreferencesPatch carries a partial preference update.
type PreferencesPatch struct {
	Notifications *bool
	Newsletter    *bool
	Theme         *Theme
}

// UsageStats are counters shown on the profile page.
type UsageStats struct {
	TripsCompleted   int     `json:"trips_completed"`
	CountriesVisited int     `json:"countries_visited"`
	TotalDistanceKM  float64 `json:"total_distance_km"`
	BadgesEarned     int     `json:"badges_earned"`
}

// User is the single authenticated session user.
// Points is never negative. PasswordHash is a bcrypt hash and must never be
// returned to clients.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Tier         Tier        `json:"tier"`
	Points       int         `json:"points"`
	JoinDate     time.Time   `json:"join_date"`
	Avatar       string      `json:"avatar"`
	Preferences  Preferences `json:"preferences"`
	Stats        UsageStats  `json:"stats"`
	PasswordHash string      `json:"password_hash,omitempty"`
}

// Badge is an achievement derived from the user's activity.
type Badge struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}
