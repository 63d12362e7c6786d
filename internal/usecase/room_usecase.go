package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatflow/chatflow/internal/domain/events"
	"github.com/chatflow/chatflow/internal/domain/models"
	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
)

// DefaultRoomTTL is applied once at creation. Every later TTL change is a
// refresh to the current remaining value, never a reset to this default, so a
// room can never live longer than this from the moment it was created.
const DefaultRoomTTL = 600 * time.Second

type RoomUsecase interface {
	// CreateRoom makes a fresh empty room and returns its opaque id.
	CreateRoom(ctx context.Context) (string, error)

	// Join admits one more member and returns their capability token.
	Join(ctx context.Context, roomID string) (string, error)

	// GetTTL returns the remaining lifetime in whole seconds, clamped to >= 0.
	GetTTL(ctx context.Context, roomID string) (int64, error)

	// Destroy announces chat.destroy to connected members and then deletes
	// every record of the room. Absent keys are not an error.
	Destroy(ctx context.Context, roomID string) error
}

type roomUsecase struct {
	tokenSecret []byte

	store     storage.Store
	broadcast storage.Broadcast
}

func NewRoomUsecase(tokenSecret []byte, store storage.Store, broadcast storage.Broadcast) RoomUsecase {
	return &roomUsecase{tokenSecret: tokenSecret, store: store, broadcast: broadcast}
}

func (uc *roomUsecase) CreateRoom(ctx context.Context) (string, error) {
	room := models.NewRoom(uuid.NewString())

	fields, err := room.Fields()
	if err != nil {
		return "", fmt.Errorf("room fields: %w", err)
	}

	if err := uc.store.SetHash(ctx, storage.MetaKey(room.ID), fields, DefaultRoomTTL); err != nil {
		return "", newError(ErrorStoreUnavailable, "create room metadata", err)
	}

	return room.ID, nil
}

func (uc *roomUsecase) Join(ctx context.Context, roomID string) (string, error) {
	// A token should never nominally outlive its room, so its lifetime is the
	// room's remaining one, not a fresh default.
	remaining, ok, err := uc.store.TTL(ctx, storage.MetaKey(roomID))
	if err != nil {
		return "", newError(ErrorStoreUnavailable, "read room ttl", err)
	}
	if !ok {
		return "", newError(ErrorRoomNotFound, "room does not exist or expired", nil)
	}
	tokenTTL := DefaultRoomTTL
	if remaining > 0 && remaining < tokenTTL {
		tokenTTL = remaining
	}

	// The capacity check and the member add must be atomic relative to each
	// other: a lost race for the second slot is RoomFull, never a third token.
	// Minting happens inside, past the Full check, so a rejected join never
	// signs a token.
	var token string
	err = uc.store.UpdateHash(ctx, storage.MetaKey(roomID), func(fields map[string]string) (map[string]string, error) {
		room, err := models.RoomFromFields(roomID, fields)
		if err != nil {
			return nil, err
		}
		if room.Full() {
			return nil, newError(ErrorRoomFull, "room already has two members", nil)
		}
		token, err = MintMemberToken(uc.tokenSecret, roomID, tokenTTL)
		if err != nil {
			return nil, fmt.Errorf("mint member token: %w", err)
		}
		room.Connected = append(room.Connected, token)
		return room.Fields()
	})
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", newError(ErrorRoomNotFound, "room does not exist or expired", err)
		}
		var ue *Error
		if errors.As(err, &ue) {
			return "", err
		}
		return "", newError(ErrorStoreUnavailable, "join room", err)
	}

	return token, nil
}

func (uc *roomUsecase) GetTTL(ctx context.Context, roomID string) (int64, error) {
	ttl, ok, err := uc.store.TTL(ctx, storage.MetaKey(roomID))
	if err != nil {
		return 0, newError(ErrorStoreUnavailable, "read room ttl", err)
	}
	if !ok {
		return 0, newError(ErrorRoomNotFound, "room does not exist or expired", nil)
	}
	if ttl < 0 {
		return 0, nil
	}
	return int64(ttl.Seconds()), nil
}

func (uc *roomUsecase) Destroy(ctx context.Context, roomID string) error {
	payload, err := json.Marshal(events.DestroyEvent{IsDestroyed: true})
	if err != nil {
		return fmt.Errorf("marshal destroy event: %w", err)
	}

	// Publish first: connected members must be able to observe the destroy
	// before the keys disappear. A failed publish aborts the destroy.
	if err := uc.broadcast.Publish(ctx, roomID, events.ChatDestroy, payload); err != nil {
		return newError(ErrorChannelUnavailable, "publish destroy event", err)
	}

	err = uc.store.Delete(ctx,
		storage.ChannelKey(roomID),
		storage.MetaKey(roomID),
		storage.MessagesKey(roomID),
	)
	if err != nil {
		return newError(ErrorStoreUnavailable, "delete room records", err)
	}

	return nil
}
