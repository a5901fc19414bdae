package handler

import (
	"net/http"

	"github.com/pkordes/nexttrip/backend/internal/service"
)

// SignUp handles POST /auth/signup.
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.session.SignUp(r.Context(), service.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: publicUser(sess.User), Token: sess.Token})
}

// SignIn handles POST /auth/signin.
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := s.session.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: publicUser(sess.User), Token: sess.Token})
}

// SignOut handles POST /auth/signout?confirm=true.
// Signing out deletes the user's trips and memories, so the caller must
// confirm explicitly.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	if !confirmed(w, r, "signing out deletes all trips and memories; repeat with ?confirm=true") {
		return
	}
	if err := s.session.SignOut(r.Context()); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword handles POST /auth/reset-password.
func (s *Server) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg, err := s.session.ResetPassword(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err, "no account with that email")
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: msg})
}

// confirmed reports whether ?confirm=true was given, answering 409 with
// warning otherwise.
func confirmed(w http.ResponseWriter, r *http.Request, warning string) bool {
	var ok bool
	if !queryParam(w, r, "confirm", false, &ok) {
		return false
	}
	if !ok {
		writeError(w, http.StatusConflict, "confirmation_required", warning)
		return false
	}
	return true
}
