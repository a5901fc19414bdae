package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/service"
)

// GetTrackingStatus handles GET /tracking.
func (s *Server) GetTrackingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Status())
}

// RecordFix handles POST /tracking/fix: one position report from the
// client's location watch. While a watch started by POST /tracking/watch is
// running the fix is queued to it (202, recorded in the background);
// otherwise it is recorded straight away (201 with the new memory).
func (s *Server) RecordFix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if !decodeBody(w, r, &req) {
		return
	}
	at := time.Now()
	if req.At != nil {
		at = *req.At
	}
	fix := service.Fix{Point: req.point(), At: at}

	if s.tracker.Status().Mode == service.ModeWatch {
		err := s.tracker.Push(r.Context(), fix)
		if err == nil {
			writeJSON(w, http.StatusAccepted, s.tracker.Status())
			return
		}
		// The watch stopped between the check and the push.
		if !errors.Is(err, domain.ErrConflict) {
			s.writeServiceError(w, r, err, "")
			return
		}
	}

	m, err := s.tracker.Record(r.Context(), fix)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// StartWatch handles POST /tracking/watch. The watch runs in the background
// until POST /tracking/stop and records the fixes posted to /tracking/fix.
func (s *Server) StartWatch(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Watch(context.WithoutCancel(r.Context())); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusAccepted, s.tracker.Status())
}

// SimulateRoute handles POST /tracking/simulate. The replay runs in the
// background after the response is sent; progress arrives on /events.
func (s *Server) SimulateRoute(w http.ResponseWriter, r *http.Request) {
	// The task must outlive this request but keep its values (request id).
	if err := s.tracker.Simulate(context.WithoutCancel(r.Context())); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusAccepted, s.tracker.Status())
}

// StopTracking handles POST /tracking/stop. It is safe to call when nothing
// is running; the route is cleared either way.
func (s *Server) StopTracking(w http.ResponseWriter, r *http.Request) {
	s.tracker.Stop()
	writeJSON(w, http.StatusOK, s.tracker.Status())
}
