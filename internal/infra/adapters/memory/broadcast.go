package memory

import (
	"context"
	"sync"

	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

// Broadcast is an in-process storage.Broadcast. Fan-out is best-effort: a
// subscriber with a full buffer misses the event rather than blocking the
// publisher.
type Broadcast struct {
	mu   sync.RWMutex
	subs map[string]map[chan storage.Event]struct{}
}

func NewBroadcast() *Broadcast {
	return &Broadcast{subs: make(map[string]map[chan storage.Event]struct{})}
}

func (b *Broadcast) Publish(_ context.Context, roomID, event string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[roomID] {
		select {
		case ch <- storage.Event{Name: event, Payload: payload}:
		default: // skip slow subscribers
		}
	}

	return nil
}

func (b *Broadcast) Subscribe(_ context.Context, roomID string) (<-chan storage.Event, func(), error) {
	ch := make(chan storage.Event, 64)

	b.mu.Lock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[chan storage.Event]struct{})
	}
	b.subs[roomID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[roomID], ch)
			if len(b.subs[roomID]) == 0 {
				delete(b.subs, roomID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel, nil
}
