package constant

// Shared slog attribute keys.
const (
	Error     = "error"
	RoomID    = "room_id"
	MessageID = "message_id"
)
