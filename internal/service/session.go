package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pkordes/nexttrip/backend/internal/auth"
	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/events"
	"github.com/pkordes/nexttrip/backend/internal/repo"
)

const (
	minNameLen     = 2
	minPasswordLen = 6
)

// TokenMinter issues the bearer token returned on sign-in and sign-up.
type TokenMinter interface {
	Mint(u domain.User) (auth.Token, error)
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	User  domain.User
	Token auth.Token
}

// SignUpInput carries the sign-up form.
type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// SessionOptions tunes SessionService. Zero values select the defaults.
type SessionOptions struct {
	// SignInDelay simulates the latency of a remote auth call.
	SignInDelay time.Duration
	// BcryptCost is used when hashing new passwords.
	BcryptCost int
	Now        func() time.Time
}

// SessionService owns the signed-in user: authentication, points, tier and
// preferences.
type SessionService struct {
	users    repo.UserRepo
	registry *Registry
	tokens   TokenMinter
	bus      events.Publisher
	log      *slog.Logger

	delay time.Duration
	cost  int
	now   func() time.Time

	mu        sync.Mutex
	loaded    bool
	user      *domain.User
	dependent []Reloader
}

// NewSessionService constructs a SessionService.
func NewSessionService(users repo.UserRepo, registry *Registry, tokens TokenMinter, bus events.Publisher, log *slog.Logger, opts SessionOptions) *SessionService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if bus == nil {
		bus = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &SessionService{
		users:    users,
		registry: registry,
		tokens:   tokens,
		bus:      bus,
		log:      log,
		delay:    opts.SignInDelay,
		cost:     opts.BcryptCost,
		now:      opts.Now,
	}
}

// OnSignOut registers services whose collections are wiped by sign-out so
// they drop their in-memory copies.
func (s *SessionService) OnSignOut(r ...Reloader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependent = append(s.dependent, r...)
}

// Reload re-reads the user from storage.
func (s *SessionService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	if err := s.loadLocked(ctx); err != nil {
		return fmt.Errorf("service.SessionService.Reload: %w", err)
	}
	return nil
}

func (s *SessionService) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	u, err := s.users.Load(ctx)
	if err != nil {
		return err
	}
	s.user = u
	s.loaded = true
	return nil
}

// SignUp validates the form, creates a Free user with the welcome bonus,
// and signs them in. Validation failures are *domain.ValidationError values
// reporting the first violated rule.
func (s *SessionService) SignUp(ctx context.Context, in SignUpInput) (Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	switch {
	case len([]rune(name)) < minNameLen:
		return Session{}, domain.NewValidationError(domain.CodeInvalidName, "name must be at least 2 characters long")
	case !validEmail(email):
		return Session{}, domain.NewValidationError(domain.CodeInvalidEmail, "please enter a valid email address")
	case len(in.Password) < minPasswordLen:
		return Session{}, domain.NewValidationError(domain.CodeWeakPassword, "password must be at least 6 characters long")
	case in.Password != in.ConfirmPassword:
		return Session{}, domain.NewValidationError(domain.CodePasswordMismatch, "passwords do not match")
	case s.registry.Exists(email):
		return Session{}, domain.NewValidationError(domain.CodeDuplicateAccount, "an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("service.SessionService.SignUp: hash: %w", err)
	}

	u := domain.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Tier:     domain.TierFree,
		Points:   PointsWelcome,
		JoinDate: s.now().UTC(),
		Avatar:   avatarFor(name),
		Preferences: domain.Preferences{
			Notifications: true,
			Newsletter:    true,
			Theme:         domain.ThemeDark,
		},
		PasswordHash: string(hash),
	}

	sess, err := s.establish(ctx, u)
	if err != nil {
		return Session{}, fmt.Errorf("service.SessionService.SignUp: %w", err)
	}
	s.log.InfoContext(ctx, "user signed up", slog.String("user_id", u.ID.String()))
	return sess, nil
}

// SignIn checks the credentials against the signed-in account and the demo
// registry after the configured delay. The delay is abandoned when ctx ends.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Session{}, domain.NewValidationError(domain.CodeInvalidEmail, "please enter a valid email address")
	}
	if len(password) < minPasswordLen {
		return Session{}, domain.NewValidationError(domain.CodeWeakPassword, "password must be at least 6 characters long")
	}

	if err := sleep(ctx, s.delay); err != nil {
		return Session{}, fmt.Errorf("service.SessionService.SignIn: %w", err)
	}

	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return Session{}, fmt.Errorf("service.SessionService.SignIn: %w", err)
	}

	sess, err := s.establish(ctx, u)
	if err != nil {
		return Session{}, fmt.Errorf("service.SessionService.SignIn: %w", err)
	}
	s.log.InfoContext(ctx, "user signed in", slog.String("user_id", u.ID.String()))
	return sess, nil
}

// authenticate prefers the stored account, so a returning user keeps their
// points, and falls back to the demo registry.
func (s *SessionService) authenticate(ctx context.Context, email, password string) (domain.User, error) {
	s.mu.Lock()
	err := s.loadLocked(ctx)
	var current *domain.User
	if s.user != nil {
		cp := *s.user
		current = &cp
	}
	s.mu.Unlock()
	if err != nil {
		return domain.User{}, err
	}

	candidate, ok := domain.User{}, false
	if current != nil && current.Email == email && current.PasswordHash != "" {
		candidate, ok = *current, true
	} else {
		candidate, ok = s.registry.Lookup(email)
	}
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(candidate.PasswordHash), []byte(password)) != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return candidate, nil
}

// establish persists u as the session user and mints its token.
func (s *SessionService) establish(ctx context.Context, u domain.User) (Session, error) {
	tok, err := s.tokens.Mint(u)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.users.Save(ctx, u); err != nil {
		return Session{}, err
	}
	s.user = &u
	s.loaded = true
	s.bus.Publish(events.Event{Type: events.UserChanged, ID: u.ID.String()})
	return Session{User: u, Token: tok}, nil
}

// Current returns the signed-in user.
func (s *SessionService) Current(ctx context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return domain.User{}, fmt.Errorf("service.SessionService.Current: %w", err)
	}
	if s.user == nil {
		return domain.User{}, fmt.Errorf("service.SessionService.Current: %w", domain.ErrUnauthenticated)
	}
	return *s.user, nil
}

// HasPermission reports whether the signed-in user's tier grants p.
// It is false when nobody is signed in.
func (s *SessionService) HasPermission(ctx context.Context, p domain.Permission) bool {
	u, err := s.Current(ctx)
	if err != nil {
		return false
	}
	return u.Tier.Can(p)
}

// AddPoints credits n points. n must not be negative.
func (s *SessionService) AddPoints(ctx context.Context, n int) (domain.User, error) {
	if n < 0 {
		return domain.User{}, domain.NewValidationError(domain.CodeInvalidInput, "points must not be negative")
	}
	return s.mutate(ctx, "service.SessionService.AddPoints", func(u *domain.User) error {
		u.Points += n
		return nil
	})
}

// DeductPoints debits n points. It returns domain.ErrInsufficientBalance and
// changes nothing when the balance is below n.
func (s *SessionService) DeductPoints(ctx context.Context, n int) (domain.User, error) {
	if n < 0 {
		return domain.User{}, domain.NewValidationError(domain.CodeInvalidInput, "points must not be negative")
	}
	return s.mutate(ctx, "service.SessionService.DeductPoints", func(u *domain.User) error {
		if u.Points < n {
			return fmt.Errorf("need %d more points: %w", n-u.Points, domain.ErrInsufficientBalance)
		}
		u.Points -= n
		return nil
	})
}

// ClaimReward spends RewardCost points.
func (s *SessionService) ClaimReward(ctx context.Context) (domain.User, error) {
	u, err := s.DeductPoints(ctx, RewardCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.SessionService.ClaimReward: %w", err)
	}
	return u, nil
}

// Award implements PointsAwarder. It is a no-op when nobody is signed in.
func (s *SessionService) Award(ctx context.Context, n int, reason string) error {
	_, err := s.AddPoints(ctx, n)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.DebugContext(ctx, "points awarded", slog.Int("points", n), slog.String("reason", reason))
	return nil
}

// UpdateProfile renames the user and recomputes the avatar initial.
func (s *SessionService) UpdateProfile(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < minNameLen {
		return domain.User{}, domain.NewValidationError(domain.CodeInvalidName, "name must be at least 2 characters long")
	}
	return s.mutate(ctx, "service.SessionService.UpdateProfile", func(u *domain.User) error {
		u.Name = name
		u.Avatar = avatarFor(name)
		return nil
	})
}

// UpdatePreferences merges the non-nil fields of p into the preferences.
func (s *SessionService) UpdatePreferences(ctx context.Context, p domain.PreferencesPatch) (domain.User, error) {
	if p.Theme != nil && !p.Theme.Valid() {
		return domain.User{}, domain.NewValidationError(domain.CodeInvalidInput, "theme must be light, dark, or auto")
	}
	return s.mutate(ctx, "service.SessionService.UpdatePreferences", func(u *domain.User) error {
		if p.Notifications != nil {
			u.Preferences.Notifications = *p.Notifications
		}
		if p.Newsletter != nil {
			u.Preferences.Newsletter = *p.Newsletter
		}
		if p.Theme != nil {
			u.Preferences.Theme = *p.Theme
		}
		return nil
	})
}

// UpgradeTier moves the user to tier. No payment is taken.
func (s *SessionService) UpgradeTier(ctx context.Context, tier domain.Tier) (domain.User, error) {
	if !tier.Valid() {
		return domain.User{}, domain.NewValidationError(domain.CodeInvalidInput, "invalid tier")
	}
	return s.mutate(ctx, "service.SessionService.UpgradeTier", func(u *domain.User) error {
		u.Tier = tier
		return nil
	})
}

// ChangePassword replaces the password after verifying the current one.
func (s *SessionService) ChangePassword(ctx context.Context, current, next, confirm string) error {
	switch {
	case current == "" || next == "" || confirm == "":
		return domain.NewValidationError(domain.CodeInvalidInput, "all password fields are required")
	case next != confirm:
		return domain.NewValidationError(domain.CodePasswordMismatch, "new passwords do not match")
	case len(next) < minPasswordLen:
		return domain.NewValidationError(domain.CodeWeakPassword, "new password must be at least 6 characters long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("service.SessionService.ChangePassword: hash: %w", err)
	}
	_, err = s.mutate(ctx, "service.SessionService.ChangePassword", func(u *domain.User) error {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
			return domain.ErrInvalidCredentials
		}
		u.PasswordHash = string(hash)
		return nil
	})
	return err
}

// ResetPassword pretends to send reset instructions to a known address.
func (s *SessionService) ResetPassword(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return "", domain.NewValidationError(domain.CodeInvalidEmail, "please enter a valid email address")
	}
	if err := sleep(ctx, s.delay); err != nil {
		return "", fmt.Errorf("service.SessionService.ResetPassword: %w", err)
	}

	known := s.registry.Exists(email)
	if u, err := s.Current(ctx); err == nil && u.Email == email {
		known = true
	}
	if !known {
		return "", fmt.Errorf("service.SessionService.ResetPassword: no account for %s: %w", email, domain.ErrNotFound)
	}
	return "Password reset instructions have been sent to your email", nil
}

// SignOut deletes the user together with every collection that belongs to
// the session (trips, memories, current trip, preferences, cache). The
// theme survives. Callers must warn the end user first.
func (s *SessionService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	if err := s.users.Clear(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("service.SessionService.SignOut: %w", err)
	}
	s.user = nil
	s.loaded = true
	dependent := append([]Reloader(nil), s.dependent...)
	s.mu.Unlock()

	var errs []error
	for _, r := range dependent {
		if err := r.Reload(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.bus.Publish(events.Event{Type: events.UserSignedOut})
	s.log.InfoContext(ctx, "user signed out")

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("service.SessionService.SignOut: %w", err)
	}
	return nil
}

// DeleteAccount signs out the current user and wipes their data.
func (s *SessionService) DeleteAccount(ctx context.Context) error {
	if _, err := s.Current(ctx); err != nil {
		return fmt.Errorf("service.SessionService.DeleteAccount: %w", err)
	}
	if err := sleep(ctx, s.delay); err != nil {
		return fmt.Errorf("service.SessionService.DeleteAccount: %w", err)
	}
	return s.SignOut(ctx)
}

// Badges lists the badges earned given the trip and memory counts.
func (s *SessionService) Badges(ctx context.Context, tripCount, memoryCount int) ([]domain.Badge, error) {
	points := 0
	if u, err := s.Current(ctx); err == nil {
		points = u.Points
	} else if !errors.Is(err, domain.ErrUnauthenticated) {
		return nil, fmt.Errorf("service.SessionService.Badges: %w", err)
	}
	return earnedBadges(tripCount, memoryCount, points), nil
}

func earnedBadges(trips, memories, points int) []domain.Badge {
	badges := []domain.Badge{}
	if trips >= 1 {
		badges = append(badges, domain.Badge{Name: "Explorer", Icon: "fas fa-compass"})
	}
	if trips >= 5 {
		badges = append(badges, domain.Badge{Name: "Adventurer", Icon: "fas fa-hiking"})
	}
	if points >= 100 {
		badges = append(badges, domain.Badge{Name: "Point Collector", Icon: "fas fa-star"})
	}
	if memories >= 10 {
		badges = append(badges, domain.Badge{Name: "Memory Keeper", Icon: "fas fa-camera"})
	}
	return badges
}

// mutate applies fn to a copy of the signed-in user, persists it, and swaps
// it in.
func (s *SessionService) mutate(ctx context.Context, op string, fn func(u *domain.User) error) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if s.user == nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthenticated)
	}

	next := *s.user
	if err := fn(&next); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.Save(ctx, next); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	s.user = &next
	s.bus.Publish(events.Event{Type: events.UserChanged, ID: next.ID.String()})
	return next, nil
}

func avatarFor(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}
	return ""
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
