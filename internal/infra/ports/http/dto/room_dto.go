package dto

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

type JoinRoomResponse struct {
	Token string `json:"token"`
}

type RoomTTLResponse struct {
	// TTL is the remaining lifetime in whole seconds, never negative.
	TTL int64 `json:"ttl"`
}
