package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// SchemaVersion is the version written into every stored envelope.
const SchemaVersion = 1

// UnreadableKey is where a value stored under key is kept when it cannot be
// decoded. A later unreadable value replaces it.
func UnreadableKey(key string) string { return key + ".unreadable" }

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

// document is a typed view over one key of a Store.
//
// Values written by this package are wrapped in an envelope carrying the
// schema version. Bare values without a version are read as version 0 and
// rewritten as an envelope on the next save; this covers bare strings and
// values already in the current field layout. A version newer than
// SchemaVersion is refused and never overwritten. A value that does not
// decode, such as the web client's camelCase trips with numeric ids, is
// moved aside to UnreadableKey(key) and reported as absent.
type document[T any] struct {
	store Store
	key   string
	log   *slog.Logger
}

func newDocument[T any](store Store, key string, log *slog.Logger) document[T] {
	if log == nil {
		log = slog.Default()
	}
	return document[T]{store: store, key: key, log: log}
}

// load returns the stored value and whether it was present.
func (d document[T]) load(ctx context.Context) (T, bool, error) {
	var zero T

	raw, err := d.store.Get(ctx, d.key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("repo.document.load: %s: %w", d.key, err)
	}

	payload, version, err := unwrap(raw)
	if err != nil {
		return d.recover(ctx, raw, version, err)
	}
	if version > SchemaVersion {
		return zero, false, fmt.Errorf("repo.document.load: %s: version %d: %w",
			d.key, version, domain.ErrUnsupportedSchema)
	}

	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return d.recover(ctx, raw, version, err)
	}
	return v, true, nil
}

// recover moves a value that cannot be decoded to UnreadableKey and
// reports it as absent. The original bytes are only removed once the copy
// is stored.
func (d document[T]) recover(ctx context.Context, raw []byte, version int, cause error) (T, bool, error) {
	var zero T
	aside := UnreadableKey(d.key)
	d.log.WarnContext(ctx, "setting aside unreadable stored value",
		slog.String("key", d.key),
		slog.String("moved_to", aside),
		slog.Int("schema_version", version),
		slog.String("error", cause.Error()),
	)
	if err := d.store.Put(ctx, aside, raw); err != nil {
		return zero, false, fmt.Errorf("repo.document.recover: %s: %w", d.key, err)
	}
	if err := d.store.Delete(ctx, d.key); err != nil {
		return zero, false, fmt.Errorf("repo.document.recover: %s: %w", d.key, err)
	}
	return zero, false, nil
}

func (d document[T]) save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("repo.document.save: %s: %w", d.key, err)
	}
	raw, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Data: data})
	if err != nil {
		return fmt.Errorf("repo.document.save: %s: %w", d.key, err)
	}
	if err := d.store.Put(ctx, d.key, raw); err != nil {
		return fmt.Errorf("repo.document.save: %w", err)
	}
	return nil
}

func (d document[T]) delete(ctx context.Context) error {
	if err := d.store.Delete(ctx, d.key); err != nil {
		return fmt.Errorf("repo.document.delete: %w", err)
	}
	return nil
}

// unwrap splits a stored value into its payload and schema version.
// Legacy bare strings (stored without JSON quoting) are quoted first.
func unwrap(raw []byte) (json.RawMessage, int, error) {
	if !json.Valid(raw) {
		if len(raw) == 0 || raw[0] == '{' || raw[0] == '[' {
			return nil, 0, errors.New("invalid JSON")
		}
		quoted, err := json.Marshal(string(raw))
		if err != nil {
			return nil, 0, err
		}
		return quoted, 0, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Not an object: a legacy array or scalar.
		return raw, 0, nil
	}
	rawVersion, ok := fields["schema_version"]
	if !ok {
		return raw, 0, nil
	}
	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return nil, 0, fmt.Errorf("schema_version: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, 0, errors.New("envelope without data")
	}
	return data, version, nil
}
