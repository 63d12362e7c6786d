package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Capacity is the hard member limit of a room.
const Capacity = 2

// Metadata hash field names.
const (
	FieldConnected = "connected"
	FieldCreatedAt = "createdAt"
)

// Room is the metadata record of an ephemeral room. Existence of the record
// in the store is what defines existence of the room.
type Room struct {
	ID        string    `json:"id"`
	Connected []string  `json:"connected"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		Connected: []string{},
		CreatedAt: time.Now(),
	}
}

// Full reports whether the room is at member capacity.
func (r *Room) Full() bool { return len(r.Connected) >= Capacity }

// Fields flattens the room into store hash fields.
func (r *Room) Fields() (map[string]string, error) {
	connected, err := json.Marshal(r.Connected)
	if err != nil {
		return nil, fmt.Errorf("marshal connected members: %w", err)
	}

	return map[string]string{
		FieldConnected: string(connected),
		FieldCreatedAt: strconv.FormatInt(r.CreatedAt.UnixMilli(), 10),
	}, nil
}

// RoomFromFields rebuilds a room from its store hash fields.
func RoomFromFields(id string, fields map[string]string) (*Room, error) {
	room := &Room{ID: id, Connected: []string{}}

	if raw := fields[FieldConnected]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &room.Connected); err != nil {
			return nil, fmt.Errorf("unmarshal connected members: %w", err)
		}
	}

	if raw := fields[FieldCreatedAt]; raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse createdAt: %w", err)
		}
		room.CreatedAt = time.UnixMilli(ms)
	}

	return room, nil
}
