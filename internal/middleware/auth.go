package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/auth"
	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// TokenParser verifies a bearer token. *auth.Issuer satisfies it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, uuid.UUID, error)
}

// SessionUser reports who is signed in. *service.SessionService satisfies it.
type SessionUser interface {
	Current(ctx context.Context) (domain.User, error)
}

type ctxKey int

const userIDKey ctxKey = iota

// RequireAuth rejects with 401 any request without a valid bearer token, and
// any whose token was minted for someone other than the current session user.
// A token outlives sign-out, so without the second check it would act on
// whoever signs in next. The user id is stored in the request context.
func RequireAuth(tokens TokenParser, sessions SessionUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="nexttrip"`)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}
			_, id, err := tokens.Parse(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="nexttrip", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}
			u, err := sessions.Current(r.Context())
			switch {
			case errors.Is(err, domain.ErrUnauthenticated):
				w.Header().Set("WWW-Authenticate", `Bearer realm="nexttrip", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "session has ended; sign in again")
				return
			case err != nil:
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			case u.ID != id:
				w.Header().Set("WWW-Authenticate", `Bearer realm="nexttrip", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthenticated", "token belongs to a different session")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
		})
	}
}

// UserID returns the authenticated user id placed in ctx by RequireAuth.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// bearerToken extracts the token from the Authorization header. EventSource
// clients cannot set headers, so the access_token query parameter is accepted
// as a fallback.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if scheme, token, found := strings.Cut(h, " "); found && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t, true
	}
	return "", false
}
