package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// memoryBackend is the shared state behind one or more MemoryStore handles.
type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	subs map[chan Change]struct{}
}

// MemoryStore is an in-process Store. Handles created with Peer share the
// same data but publish changes under their own origin, which models two
// browser tabs on one storage area.
type MemoryStore struct {
	b      *memoryBackend
	origin string
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		b: &memoryBackend{
			data: make(map[string][]byte),
			subs: make(map[chan Change]struct{}),
		},
		origin: uuid.NewString(),
	}
}

// Peer returns a new handle on the same data with a distinct origin.
func (m *MemoryStore) Peer() *MemoryStore {
	return &MemoryStore{b: m.b, origin: uuid.NewString()}
}

// Origin identifies this handle in published changes.
func (m *MemoryStore) Origin() string { return m.origin }

// Get returns a copy of the stored value.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	v, ok := m.b.data[key]
	if !ok {
		return nil, fmt.Errorf("repo.MemoryStore.Get: %s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value and notifies watchers.
func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	m.b.data[key] = append([]byte(nil), value...)
	m.publishLocked(key)
	return nil
}

// Delete removes keys and notifies watchers for each key that existed.
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	for _, k := range keys {
		if _, ok := m.b.data[k]; ok {
			delete(m.b.data, k)
			m.publishLocked(k)
		}
	}
	return nil
}

// Watch subscribes to changes from every handle on this backend.
func (m *MemoryStore) Watch(ctx context.Context) (<-chan Change, error) {
	ch := make(chan Change, 64)
	m.b.mu.Lock()
	m.b.subs[ch] = struct{}{}
	m.b.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.b.mu.Lock()
		delete(m.b.subs, ch)
		close(ch)
		m.b.mu.Unlock()
	}()
	return ch, nil
}

// publishLocked fans a change out to subscribers. A subscriber whose buffer
// is full misses the event; it will still see the data on its next reload.
func (m *MemoryStore) publishLocked(key string) {
	c := Change{Key: key, Origin: m.origin}
	for ch := range m.b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
