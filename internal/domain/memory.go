package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemoryKind records how a memory was produced.
type MemoryKind string

const (
	MemoryPhoto     MemoryKind = "photo"
	MemoryTracked   MemoryKind = "tracked"
	MemorySimulated MemoryKind = "simulated"
)

// Valid reports whether k is a known kind.
func (k MemoryKind) Valid() bool {
	return k == MemoryPhoto || k == MemoryTracked || k == MemorySimulated
}

// Memory is a timestamped photo or location record on the travel timeline.
// Memories belong to the session, not to any trip, and are never edited.
// Location is free text; tracked pings use "lat, lng" with four decimals.
type Memory struct {
	ID        uuid.UUID  `json:"id"`
	Kind      MemoryKind `json:"kind"`
	Image     string     `json:"image,omitempty"`
	Caption   string     `json:"caption"`
	Location  string     `json:"location"`
	Timestamp time.Time  `json:"timestamp"`
}

// MemoryInput carries the fields accepted when appending a memory.
type MemoryInput struct {
	Kind     MemoryKind
	Image    string
	Caption  string
	Location string
}
