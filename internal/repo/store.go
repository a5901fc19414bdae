// Package repo contains the persistence layer of the NextTrip backend.
// State is kept as one JSON document per logical key in a key-value Store;
// typed repos on top of it load and save whole collections.
// No business logic lives here, only storage access and (de)serialisation.
package repo

import "context"

// Logical keys of the persisted state. They match the web client's
// localStorage keys.
const (
	KeyUser        = "nextrip_user"
	KeyTrips       = "nextrip_trips"
	KeyMemories    = "nextrip_memories"
	KeyTheme       = "nextrip_theme"
	KeyCurrentTrip = "nextrip_current_trip"
	KeyPreferences = "nextrip_preferences"
	KeyCache       = "nextrip_cache"
)

// SessionKeys are removed together when the user signs out.
var SessionKeys = []string{KeyUser, KeyTrips, KeyMemories, KeyCurrentTrip, KeyPreferences, KeyCache}

// Store is a key-value store of opaque JSON documents.
// Writes overwrite the whole value; the last writer wins.
type Store interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Change announces that a key was written or deleted by the store handle
// identified by Origin.
type Change struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// Watcher is implemented by stores that can announce writes made by other
// processes (or other handles on the same backend).
type Watcher interface {
	// Origin identifies this handle in the Change events it publishes.
	Origin() string

	// Watch streams every change until ctx is cancelled; the channel is
	// closed afterwards. Changes from this handle's own origin are included;
	// subscribers filter them.
	Watch(ctx context.Context) (<-chan Change, error)
}
