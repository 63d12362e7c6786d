package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one entry of a room's append-only history. Timestamp is the
// moment the controller accepted the message, in unix milliseconds. Token is
// the sending member's credential; it is kept server-side and scrubbed before
// the message is shown to anyone but its owner.
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	RoomID    string `json:"roomId"`
	Token     string `json:"token,omitempty"`
}

func NewMessage(roomID, sender, text, token string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
		RoomID:    roomID,
		Token:     token,
	}
}

// Scrubbed returns a copy safe for a reader holding token. Attribution stays
// only on the reader's own messages.
func (m Message) Scrubbed(token string) Message {
	if m.Token != token {
		m.Token = ""
	}
	return m
}
