package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkordes/nexttrip/backend/internal/service"
)

// Export formats accepted by GET /trips/{id}/export.
const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatPDF  = "pdf"
)

var contentTypes = map[string]string{
	formatJSON: "application/json",
	formatCSV:  "text/csv; charset=utf-8",
	formatPDF:  "application/pdf",
	"gpx":      "application/gpx+xml",
}

// ExportTrip handles GET /trips/{id}/export?format=json|csv|pdf.
// The default is JSON; the body is offered as a download.
func (s *Server) ExportTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	format := formatJSON
	if !queryParam(w, r, "format", false, &format) {
		return
	}

	var (
		data []byte
		err  error
	)
	ctx := r.Context()
	switch format {
	case formatJSON:
		data, err = s.export.TripJSON(ctx, id)
	case formatCSV:
		data, err = s.export.TripCSV(ctx, id)
	case formatPDF:
		data, err = s.export.TripPDF(ctx, id)
	default:
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "format must be one of [json csv pdf]")
		return
	}
	if err != nil {
		s.writeServiceError(w, r, err, tripNotFound)
		return
	}

	// Named after the trip when it can be read, else after the id.
	name := fmt.Sprintf("trip-%s.%s", id, format)
	if s.trips != nil {
		if trip, err := s.trips.Get(ctx, id); err == nil {
			name = service.TripFilename(trip, format)
		}
	}
	writeDownload(w, format, name, data)
}

// ImportTrip handles POST /trips/import. The body is a trip JSON file as
// produced by the JSON export. A trip with the same id is replaced (200);
// otherwise the trip is added (201).
func (s *Server) ImportTrip(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	trip, replaced, err := s.export.ImportTrip(r.Context(), data)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	writeJSON(w, status, importResponse{Trip: tripToResponse(trip), Replaced: replaced})
}

// ExportData handles GET /export/data: the user, trips and memories as one
// JSON document.
func (s *Server) ExportData(w http.ResponseWriter, r *http.Request) {
	data, err := s.export.DataJSON(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	writeDownload(w, formatJSON, "nextrip-data-"+time.Now().UTC().Format("2006-01-02")+".json", data)
}

// ExportGPX handles GET /export/gpx: the located memories as a GPX 1.1 track.
func (s *Server) ExportGPX(w http.ResponseWriter, r *http.Request) {
	data, err := s.export.GPX(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "no route data to export")
		return
	}
	writeDownload(w, "gpx", "nextrip-route-"+time.Now().UTC().Format("2006-01-02")+".gpx", data)
}

func writeDownload(w http.ResponseWriter, format, filename string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
