// Package middleware provides reusable HTTP middleware for the NexTrip API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// NewCORSHandler applies CORS headers for the web client. Origins are full
// origins (scheme and host, no trailing slash); a lone "*" allows any origin
// but then drops credentials, which browsers refuse to combine with it.
// Content-Disposition and Location are exposed so the client can read export
// filenames and the URL of a created trip.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Last-Event-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Location"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	})
	return c.Handler
}
