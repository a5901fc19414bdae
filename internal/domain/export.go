package domain

import "time"

// DataExport is the full-account download: the session user, all trips and
// the memory timeline, stamped with the export time. The user's password
// hash is stripped before export.
type DataExport struct {
	SchemaVersion int       `json:"schema_version"`
	ExportedAt    time.Time `json:"exported_at"`
	User          *User     `json:"user"`
	Trips         []Trip    `json:"trips"`
	Memories      []Memory  `json:"memories"`
}
