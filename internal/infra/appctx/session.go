package appctx

import "context"

type ctxKey string

const sessionKey ctxKey = "session"

// Session is the verified (roomId, memberToken) pair extracted from a
// request. Token is empty on operations that only need the room id.
type Session struct {
	RoomID string
	Token  string
}

// WithSession stores the session in the context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext extracts the session from the context.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
