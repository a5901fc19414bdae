package service

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/pkordes/nexttrip/backend/internal/domain"
	"github.com/pkordes/nexttrip/backend/internal/geo"
	"github.com/pkordes/nexttrip/backend/internal/repo"
)

// GPX document constants.
const (
	gpxVersion   = "1.1"
	gpxNamespace = "http://www.topografix.com/GPX/1/1"
	gpxCreator   = "NexTrip"
	gpxRouteName = "NexTrip Route Export"
	gpxTrackName = "Travel Route"
)

// TripStore is the subset of TripService the exporter reads and imports through.
type TripStore interface {
	All(ctx context.Context) ([]domain.Trip, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Upsert(ctx context.Context, trip domain.Trip) (domain.Trip, bool, error)
}

// MemoryLister returns the memory timeline oldest first.
type MemoryLister interface {
	List(ctx context.Context) ([]domain.Memory, error)
}

// UserSource returns the signed-in user.
type UserSource interface {
	Current(ctx context.Context) (domain.User, error)
}

// ExportService renders trips and the timeline into downloadable formats
// and imports trips from their JSON export.
type ExportService struct {
	trips    TripStore
	memories MemoryLister
	users    UserSource
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(trips TripStore, memories MemoryLister, users UserSource) *ExportService {
	return &ExportService{trips: trips, memories: memories, users: users, now: time.Now}
}

// WithClock replaces the export timestamp source. Intended for tests.
func (s *ExportService) WithClock(now func() time.Time) *ExportService {
	s.now = now
	return s
}

// TripJSON returns the trip as indented JSON.
func (s *ExportService) TripJSON(ctx context.Context, id uuid.UUID) ([]byte, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.TripJSON: %w", err)
	}
	out, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.TripJSON: %w", err)
	}
	return out, nil
}

// ImportTrip reads a trip from its JSON export and stores it, keeping its id.
// An existing trip with the same id is replaced.
func (s *ExportService) ImportTrip(ctx context.Context, data []byte) (domain.Trip, bool, error) {
	var t domain.Trip
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Trip{}, false, domain.NewValidationError(domain.CodeInvalidInput, "trip file is not valid JSON: "+err.Error())
	}
	out, replaced, err := s.trips.Upsert(ctx, t)
	if err != nil {
		return domain.Trip{}, false, fmt.Errorf("service.ExportService.ImportTrip: %w", err)
	}
	return out, replaced, nil
}

// TripCSV renders the trip as a spreadsheet with a trip information block,
// the itinerary, and the expenses when there are any. Every cell is quoted.
func (s *ExportService) TripCSV(ctx context.Context, id uuid.UUID) ([]byte, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.TripCSV: %w", err)
	}
	return tripCSV(t), nil
}

func tripCSV(t domain.Trip) []byte {
	rows := [][]string{
		{"Trip Information"},
		{"Name", t.Name},
		{"Destination", t.Destination},
		{"Start Date", formatDate(t.StartDate)},
		{"End Date", formatDate(t.EndDate)},
		{"Budget", formatMoney(t.Budget)},
		{"Travel Class", string(t.TravelClass)},
		{"Status", string(t.Status)},
		{"Description", t.Description},
		{},
		{"Itinerary"},
		{"Title", "Type", "Start Time", "End Time", "Location", "Cost", "Status"},
	}
	for _, it := range t.Itinerary {
		rows = append(rows, []string{
			it.Title,
			string(it.Type),
			formatTimestamp(it.StartTime),
			formatTimestamp(it.EndTime),
			it.Location,
			formatMoney(it.Cost),
			it.Status,
		})
	}
	if len(t.Expenses) > 0 {
		rows = append(rows,
			[]string{},
			[]string{"Expenses"},
			[]string{"Title", "Amount", "Currency", "Category", "Date"},
		)
		for _, e := range t.Expenses {
			rows = append(rows, []string{e.Title, e.Amount.String(), e.Currency, e.Category, e.Date})
		}
	}

	var buf bytes.Buffer
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('"')
			buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			buf.WriteByte('"')
		}
	}
	return buf.Bytes()
}

// DataBundle assembles the full-account export for the signed-in user.
func (s *ExportService) DataBundle(ctx context.Context) (domain.DataExport, error) {
	u, err := s.users.Current(ctx)
	if err != nil {
		return domain.DataExport{}, fmt.Errorf("service.ExportService.DataBundle: %w", err)
	}
	trips, err := s.trips.All(ctx)
	if err != nil {
		return domain.DataExport{}, fmt.Errorf("service.ExportService.DataBundle: %w", err)
	}
	memories, err := s.memories.List(ctx)
	if err != nil {
		return domain.DataExport{}, fmt.Errorf("service.ExportService.DataBundle: %w", err)
	}
	u.PasswordHash = ""
	return domain.DataExport{
		SchemaVersion: repo.SchemaVersion,
		ExportedAt:    s.now().UTC(),
		User:          &u,
		Trips:         trips,
		Memories:      memories,
	}, nil
}

// DataJSON returns DataBundle as indented JSON.
func (s *ExportService) DataJSON(ctx context.Context) ([]byte, error) {
	bundle, err := s.DataBundle(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.DataJSON: %w", err)
	}
	return out, nil
}

type gpxDoc struct {
	XMLName  xml.Name    `xml:"gpx"`
	Version  string      `xml:"version,attr"`
	Creator  string      `xml:"creator,attr"`
	Xmlns    string      `xml:"xmlns,attr"`
	Metadata gpxMetadata `xml:"metadata"`
	Track    gpxTrack    `xml:"trk"`
}

type gpxMetadata struct {
	Name string `xml:"name"`
	Time string `xml:"time"`
}

type gpxTrack struct {
	Name    string     `xml:"name"`
	Segment gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
	Name string  `xml:"name"`
}

// GPX renders the memory timeline as a GPX 1.1 track. Memories whose
// location is not a "lat, lng" pair are skipped. An empty timeline is
// domain.ErrNotFound.
func (s *ExportService) GPX(ctx context.Context) ([]byte, error) {
	memories, err := s.memories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.GPX: %w", err)
	}
	if len(memories) == 0 {
		return nil, fmt.Errorf("service.ExportService.GPX: no route data to export: %w", domain.ErrNotFound)
	}

	doc := gpxDoc{
		Version:  gpxVersion,
		Creator:  gpxCreator,
		Xmlns:    gpxNamespace,
		Metadata: gpxMetadata{Name: gpxRouteName, Time: s.now().UTC().Format(time.RFC3339)},
		Track:    gpxTrack{Name: gpxTrackName, Segment: gpxSegment{Points: []gpxPoint{}}},
	}
	for _, m := range memories {
		p, err := geo.ParseLatLng(m.Location)
		if err != nil {
			continue
		}
		doc.Track.Segment.Points = append(doc.Track.Segment.Points, gpxPoint{
			Lat:  p.Lat(),
			Lon:  p.Lon(),
			Time: m.Timestamp.UTC().Format(time.RFC3339),
			Name: m.Caption,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.GPX: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// TripPDF renders a printable A4 itinerary for the trip.
func (s *ExportService) TripPDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	t, err := s.trips.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.TripPDF: %w", err)
	}
	out, err := tripPDF(t, s.now())
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.TripPDF: %w", err)
	}
	return out, nil
}

func tripPDF(t domain.Trip, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetCreator(gpxCreator, true)
	pdf.SetTitle(t.Name, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(24, 58, 94)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(170, 10, tr(t.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(20)
	pdf.CellFormat(170, 6, tr(t.Destination), "", 1, "L", false, 0, "")
	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	section := func(title string) {
		pdf.SetFillColor(24, 58, 94)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(125, 7, tr(value), "", 1, "L", false, 0, "")
	}

	section("Trip Information")
	row("Dates", fmt.Sprintf("%s to %s", orDash(formatDate(t.StartDate)), orDash(formatDate(t.EndDate))))
	row("Status", string(t.Status))
	row("Travel class", string(t.TravelClass))
	row("Budget", orDash(formatMoney(t.Budget)))
	if len(t.Tags) > 0 {
		row("Tags", strings.Join(t.Tags, ", "))
	}
	if t.Description != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(170, 5, tr(t.Description), "", "L", false)
	}
	pdf.Ln(4)

	section("Itinerary")
	if len(t.Itinerary) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(170, 7, "No itinerary items yet.", "", 1, "L", false, 0, "")
	}
	for _, it := range t.Itinerary {
		when := formatTimestamp(it.StartTime)
		if when == "" {
			when = "unscheduled"
		}
		row(string(it.Type), fmt.Sprintf("%s (%s)", it.Title, when))
		if it.Location != "" {
			row("", it.Location)
		}
	}
	pdf.Ln(4)

	if len(t.Expenses) > 0 {
		section("Expenses")
		for _, e := range t.Expenses {
			row(e.Date, fmt.Sprintf("%s: %s %s", e.Title, e.Amount.StringFixed(2), e.Currency))
		}
		pdf.Ln(4)
	}

	if len(t.Checklist) > 0 {
		section("Checklist")
		for _, c := range t.Checklist {
			mark := "[ ]"
			if c.Completed {
				mark = "[x]"
			}
			row(mark, c.Title)
		}
	}

	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8, "Generated by NexTrip on "+generated.Format("02 Jan 2006 15:04"), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// TripFilename builds a download filename such as "trip-paris-getaway.csv".
func TripFilename(t domain.Trip, ext string) string {
	slug := strings.Trim(filenameUnsafe.ReplaceAllString(strings.ToLower(t.Name), "-"), "-")
	if slug == "" {
		slug = t.ID.String()
	}
	return "trip-" + slug + "." + ext
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// formatMoney leaves zero amounts blank.
func formatMoney(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
