package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/chatflow/chatflow/internal/domain/events"
	"github.com/chatflow/chatflow/internal/domain/models"
	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

const (
	maxSenderLen = 100
	maxTextLen   = 1000
)

type MessageUsecase interface {
	// Append accepts a message into the room's history, fans it out on the
	// broadcast channel and re-aligns the TTLs of every room record.
	Append(ctx context.Context, roomID, sender, text, token string) (models.Message, error)

	// List returns a point-in-time snapshot of the history in append order.
	// Token attribution survives only on the caller's own messages.
	List(ctx context.Context, roomID, token string) ([]models.Message, error)
}

type messageUsecase struct {
	store     storage.Store
	broadcast storage.Broadcast
}

func NewMessageUsecase(store storage.Store, broadcast storage.Broadcast) MessageUsecase {
	return &messageUsecase{store: store, broadcast: broadcast}
}

func (uc *messageUsecase) Append(ctx context.Context, roomID, sender, text, token string) (models.Message, error) {
	if err := validateMessage(sender, text); err != nil {
		return models.Message{}, err
	}

	exists, err := uc.store.Exists(ctx, storage.MetaKey(roomID))
	if err != nil {
		return models.Message{}, newError(ErrorStoreUnavailable, "check room existence", err)
	}
	if !exists {
		return models.Message{}, newError(ErrorRoomNotFound, "room does not exist or expired", nil)
	}

	msg := models.NewMessage(roomID, sender, text, token)

	stored, err := json.Marshal(msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	if err := uc.store.AppendList(ctx, storage.MessagesKey(roomID), stored); err != nil {
		return models.Message{}, newError(ErrorStoreUnavailable, "append message", err)
	}

	// The published copy never carries the member token.
	published, err := json.Marshal(msg.Scrubbed(""))
	if err != nil {
		return models.Message{}, fmt.Errorf("marshal message event: %w", err)
	}
	if err := uc.broadcast.Publish(ctx, roomID, events.ChatMessage, published); err != nil {
		return models.Message{}, newError(ErrorChannelUnavailable, "publish message event", err)
	}

	if err := uc.propagateTTL(ctx, roomID); err != nil {
		return models.Message{}, err
	}

	return msg, nil
}

// propagateTTL refreshes the message-log and channel-backing records to the
// metadata key's current remaining TTL, keeping all three at the same expiry
// instant. When the metadata key turns out to be gone or already expiring, the
// room died between the existence check and here; the records this append just
// (re)created must die with it, or the log would outlive its room with no
// expiry at all.
func (uc *messageUsecase) propagateTTL(ctx context.Context, roomID string) error {
	remaining, ok, err := uc.store.TTL(ctx, storage.MetaKey(roomID))
	if err != nil {
		return newError(ErrorStoreUnavailable, "read remaining ttl", err)
	}
	if !ok || remaining <= 0 {
		err := uc.store.Delete(ctx,
			storage.MessagesKey(roomID),
			storage.ChannelKey(roomID),
		)
		if err != nil {
			return newError(ErrorStoreUnavailable, "reap expired room records", err)
		}
		return nil
	}

	for _, key := range []string{
		storage.MetaKey(roomID),
		storage.MessagesKey(roomID),
		storage.ChannelKey(roomID),
	} {
		if err := uc.store.Expire(ctx, key, remaining); err != nil {
			return newError(ErrorStoreUnavailable, "refresh ttl", err)
		}
	}

	return nil
}

func (uc *messageUsecase) List(ctx context.Context, roomID, token string) ([]models.Message, error) {
	exists, err := uc.store.Exists(ctx, storage.MetaKey(roomID))
	if err != nil {
		return nil, newError(ErrorStoreUnavailable, "check room existence", err)
	}
	if !exists {
		return nil, newError(ErrorRoomNotFound, "room does not exist or expired", nil)
	}

	items, err := uc.store.ReadList(ctx, storage.MessagesKey(roomID))
	if err != nil {
		return nil, newError(ErrorStoreUnavailable, "read message log", err)
	}

	messages := make([]models.Message, 0, len(items))
	for _, item := range items {
		var msg models.Message
		if err := json.Unmarshal(item, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal stored message: %w", err)
		}
		messages = append(messages, msg.Scrubbed(token))
	}

	return messages, nil
}

func validateMessage(sender, text string) error {
	if sender == "" {
		return newError(ErrorValidation, "sender is required", nil)
	}
	if utf8.RuneCountInString(sender) > maxSenderLen {
		return newError(ErrorValidation, "sender exceeds 100 characters", nil)
	}
	if text == "" {
		return newError(ErrorValidation, "text is required", nil)
	}
	if utf8.RuneCountInString(text) > maxTextLen {
		return newError(ErrorValidation, "text exceeds 1000 characters", nil)
	}
	return nil
}
