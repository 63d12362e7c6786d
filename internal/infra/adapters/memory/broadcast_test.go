package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

func receive(t *testing.T, stream <-chan storage.Event) storage.Event {
	t.Helper()
	select {
	case event := <-stream:
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return storage.Event{}
	}
}

func TestPublishReachesRoomSubscribers(t *testing.T) {
	b := NewBroadcast()
	ctx := context.Background()

	stream, cancel, err := b.Subscribe(ctx, "r1")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "r1", "chat.message", []byte(`{"text":"hi"}`)))

	event := receive(t, stream)
	require.Equal(t, "chat.message", event.Name)
	require.JSONEq(t, `{"text":"hi"}`, string(event.Payload))
}

func TestPublishIsScopedToRoom(t *testing.T) {
	b := NewBroadcast()
	ctx := context.Background()

	stream, cancel, err := b.Subscribe(ctx, "r2")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Publish(ctx, "r1", "chat.message", []byte(`{}`)))

	select {
	case event := <-stream:
		t.Fatalf("unexpected cross-room delivery: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	b := NewBroadcast()

	require.NoError(t, b.Publish(context.Background(), "r1", "chat.message", []byte(`{}`)))
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBroadcast()
	ctx := context.Background()

	stream, cancel, err := b.Subscribe(ctx, "r1")
	require.NoError(t, err)

	cancel()
	cancel() // second cancel is safe

	_, open := <-stream
	require.False(t, open)

	require.NoError(t, b.Publish(ctx, "r1", "chat.message", []byte(`{}`)))
}
