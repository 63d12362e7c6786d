package storage

// Key namespacing: one roomId fans out to several independent records that
// must expire at the same instant.

// MetaKey is the room metadata hash (membership, createdAt). Its presence
// defines room existence.
func MetaKey(roomID string) string { return "meta:" + roomID }

// MessagesKey is the append-only message list of a room.
func MessagesKey(roomID string) string { return "messages:" + roomID }

// ChannelKey backs the room's broadcast channel.
func ChannelKey(roomID string) string { return "channel:" + roomID }
