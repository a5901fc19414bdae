package handler

import (
	"net/http"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// ListMemories handles GET /memories. The timeline is returned oldest first.
func (s *Server) ListMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := s.timeline.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

// AddMemory handles POST /memories. Photos arrive inline as data URIs.
func (s *Server) AddMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := s.timeline.Add(r.Context(), domain.MemoryInput{
		Kind:     domain.MemoryKind(req.Kind),
		Image:    req.Image,
		Caption:  req.Caption,
		Location: req.Location,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
