package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// GetMe handles GET /me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.session.Current(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, publicUser(u))
}

// UpdateMe handles PATCH /me (display name).
func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.session.UpdateProfile(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, publicUser(u))
}

// DeleteMe handles DELETE /me?confirm=true.
func (s *Server) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if !confirmed(w, r, "deleting the account removes all trips and memories; repeat with ?confirm=true") {
		return
	}
	if err := s.session.DeleteAccount(r.Context()); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePreferences handles PATCH /me/preferences.
func (s *Server) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := domain.PreferencesPatch{Notifications: req.Notifications, Newsletter: req.Newsletter}
	if req.Theme != nil {
		t := domain.Theme(*req.Theme)
		patch.Theme = &t
	}
	u, err := s.session.UpdatePreferences(r.Context(), patch)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, publicUser(u))
}

// ChangePassword handles PUT /me/password.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.session.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpgradeTier handles PUT /me/tier.
func (s *Server) UpgradeTier(w http.ResponseWriter, r *http.Request) {
	var req tierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.session.UpgradeTier(r.Context(), domain.Tier(req.Tier))
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, publicUser(u))
}

// AdjustPoints handles POST /me/points. A positive delta credits points; a
// negative one spends them and fails with 402 when the balance is short.
func (s *Server) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var (
		u   domain.User
		err error
	)
	if req.Delta > 0 {
		u, err = s.session.AddPoints(r.Context(), req.Delta)
	} else {
		u, err = s.session.DeductPoints(r.Context(), -req.Delta)
	}
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, publicUser(u))
}

// ClaimReward handles POST /me/reward.
func (s *Server) ClaimReward(w http.ResponseWriter, r *http.Request) {
	u, err := s.session.ClaimReward(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, publicUser(u))
}

// GetBadges handles GET /me/badges.
func (s *Server) GetBadges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trips, err := s.trips.Count(ctx)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	memories, err := s.timeline.Count(ctx)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	badges, err := s.session.Badges(ctx, trips, memories)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// CheckPermission handles GET /me/permissions/{perm}.
func (s *Server) CheckPermission(w http.ResponseWriter, r *http.Request) {
	perm := chi.URLParam(r, "perm")
	writeJSON(w, http.StatusOK, permissionResponse{
		Permission: perm,
		Allowed:    s.session.HasPermission(r.Context(), domain.Permission(perm)),
	})
}
