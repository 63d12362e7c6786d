package events

// Event names published on a room's broadcast channel.
const (
	ChatMessage = "chat.message"
	ChatDestroy = "chat.destroy"
)

// DestroyEvent is the payload of a chat.destroy event, emitted once right
// before the room's records are deleted.
type DestroyEvent struct {
	IsDestroyed bool `json:"isDestroyed"`
}
