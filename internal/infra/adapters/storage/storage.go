package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Store operations that require an existing key.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a TTL-capable key-value store. All room state lives here; keys are
// namespaced "kind:roomId" so one room maps to several co-expiring records.
type Store interface {
	// SetHash writes all fields of a hash and applies ttl in one shot.
	SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error

	// GetHash returns every field of a hash, or ErrKeyNotFound.
	GetHash(ctx context.Context, key string) (map[string]string, error)

	// UpdateHash applies fn to the current fields of a hash atomically with
	// respect to concurrent updates of the same key. fn receives a copy it may
	// mutate and return; an error from fn aborts the update and is returned
	// unchanged. Missing key yields ErrKeyNotFound.
	UpdateHash(ctx context.Context, key string, fn func(fields map[string]string) (map[string]string, error)) error

	Exists(ctx context.Context, key string) (bool, error)

	// Expire sets the remaining lifetime of a key. No-op on a missing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL reports the remaining lifetime of a key; ok is false when the key
	// does not exist. A key with no expiry reports a negative duration.
	TTL(ctx context.Context, key string) (ttl time.Duration, ok bool, err error)

	// AppendList pushes an item onto the tail of a list, creating it if needed.
	AppendList(ctx context.Context, key string, item []byte) error

	// ReadList returns the whole list in append order; nil for a missing key.
	ReadList(ctx context.Context, key string) ([][]byte, error)

	// Delete removes keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Event is one broadcast envelope as delivered to subscribers.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Broadcast is the per-room publish/subscribe fan-out. Delivery is
// at-most-once and best-effort: nobody subscribed means the event is gone.
type Broadcast interface {
	Publish(ctx context.Context, roomID, event string, payload []byte) error

	// Subscribe starts listening for events of one room. The returned cancel
	// func stops delivery and releases the subscription; the channel is closed
	// after cancel.
	Subscribe(ctx context.Context, roomID string) (<-chan Event, func(), error)
}
