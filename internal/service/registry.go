package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// DemoPassword is the password of every demo account that can sign in.
const DemoPassword = "nextrip123"

// DemoUserID is the fixed id of demo@nextrip.com.
var DemoUserID = uuid.MustParse("6f1c2a7e-3b1d-4c55-9d0e-5a3f2b8c1d01")

// Registry is the fixed table of known accounts. Some addresses are only
// reserved (sign-up is refused) and have no profile to sign in to.
type Registry struct {
	reserved map[string]struct{}
	users    map[string]domain.User
}

// NewRegistry builds the demo registry, hashing password with the given
// bcrypt cost. Tests pass bcrypt.MinCost.
func NewRegistry(password string, cost int) (*Registry, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("service.NewRegistry: %w", err)
	}

	demo := domain.User{
		ID:       DemoUserID,
		Name:     "Demo User",
		Email:    "demo@nextrip.com",
		Tier:     domain.TierPro,
		Points:   150,
		JoinDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Avatar:   "D",
		Preferences: domain.Preferences{
			Notifications: true,
			Newsletter:    true,
			Theme:         domain.ThemeDark,
		},
		Stats: domain.UsageStats{
			TripsCompleted:   5,
			CountriesVisited: 8,
			TotalDistanceKM:  15000,
			BadgesEarned:     3,
		},
		PasswordHash: string(hash),
	}

	return &Registry{
		reserved: map[string]struct{}{
			"demo@nextrip.com": {},
			"test@example.com": {},
		},
		users: map[string]domain.User{demo.Email: demo},
	}, nil
}

// Exists reports whether email belongs to a known account.
func (r *Registry) Exists(email string) bool {
	_, ok := r.reserved[normalizeEmail(email)]
	return ok
}

// Lookup returns the profile for email when one exists.
func (r *Registry) Lookup(email string) (domain.User, bool) {
	u, ok := r.users[normalizeEmail(email)]
	return u, ok
}
