// Package auth mints and verifies the bearer tokens handed out on sign-in.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// Token is what sign-in and sign-up return to the client.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Claims carried by every token. The subject is the user id.
type Claims struct {
	Email string      `json:"email"`
	Tier  domain.Tier `json:"tier"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. ttl must be positive.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint issues a token for u.
func (i *Issuer) Mint(u domain.User) (Token, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: u.Email,
		Tier:  u.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    "nexttrip",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("auth.Issuer.Mint: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: exp.UTC()}, nil
}

// Parse verifies tokenStr and returns its claims and subject.
// Every failure wraps domain.ErrUnauthenticated.
func (i *Issuer) Parse(tokenStr string) (*Claims, uuid.UUID, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("auth.Issuer.Parse: %w: %w", domain.ErrUnauthenticated, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, uuid.Nil, fmt.Errorf("auth.Issuer.Parse: %w: %w", domain.ErrUnauthenticated, jwt.ErrTokenInvalidClaims)
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("auth.Issuer.Parse: subject: %w: %w", domain.ErrUnauthenticated, err)
	}
	return c, id, nil
}
