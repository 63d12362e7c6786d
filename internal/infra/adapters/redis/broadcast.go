package redis

import (
	"context"
	"encoding/json"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chatflow/chatflow/internal/application/constant"
	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

// Broadcast implements storage.Broadcast on redis pub/sub. Each publish is
// also mirrored into a capped stream at the channel key, so the channel
// record exists in the store and co-expires with the room's other records.
type Broadcast struct {
	rdb *goredis.Client
}

func NewBroadcast(rdb *goredis.Client) *Broadcast {
	return &Broadcast{rdb: rdb}
}

func (b *Broadcast) Publish(ctx context.Context, roomID, event string, payload []byte) error {
	raw, err := json.Marshal(storage.Event{Name: event, Payload: payload})
	if err != nil {
		return err
	}

	channel := storage.ChannelKey(roomID)

	_, err = b.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Publish(ctx, channel, raw)
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: channel,
			MaxLen: 1024,
			Approx: true,
			Values: map[string]any{"event": event, "payload": string(payload)},
		})
		return nil
	})
	return err
}

func (b *Broadcast) Subscribe(ctx context.Context, roomID string) (<-chan storage.Event, func(), error) {
	sub := b.rdb.Subscribe(ctx, storage.ChannelKey(roomID))

	// Force the SUBSCRIBE onto the wire so nothing published after Subscribe
	// returns can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan storage.Event, 64)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev storage.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("drop malformed broadcast event", slog.Any(constant.Error, err))
				continue
			}
			select {
			case out <- ev:
			default: // skip slow subscribers
			}
		}
	}()

	cancel := func() { _ = sub.Close() }

	return out, cancel, nil
}
