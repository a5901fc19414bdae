package handler

import (
	"net/http"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// GetTheme handles GET /settings/theme.
func (s *Server) GetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.settings.Theme(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Theme: t})
}

// SetTheme handles PUT /settings/theme.
func (s *Server) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := s.settings.SetTheme(r.Context(), domain.Theme(req.Theme))
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Theme: t})
}

// ToggleTheme handles POST /settings/theme/toggle (dark → light → auto → dark).
func (s *Server) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := s.settings.ToggleTheme(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, themeResponse{Theme: t})
}
