package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/chatflow/chatflow/internal/application/config"
	"github.com/chatflow/chatflow/internal/domain/events"
	"github.com/chatflow/chatflow/internal/domain/models"
	"github.com/chatflow/chatflow/internal/infra/adapters/memory"
	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
	"github.com/chatflow/chatflow/internal/infra/ports/http/dto"
	"github.com/chatflow/chatflow/internal/infra/ports/http/handlers"
	"github.com/chatflow/chatflow/internal/usecase"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		Debug:       true,
		Domain:      "http://localhost",
		TokenSecret: "test-secret",
	}

	store := memory.NewStore()
	broadcast := memory.NewBroadcast()

	roomUsecase := usecase.NewRoomUsecase([]byte(cfg.TokenSecret), store, broadcast)
	messageUsecase := usecase.NewMessageUsecase(store, broadcast)

	return New(cfg,
		handlers.NewRoomHandler(roomUsecase),
		handlers.NewMessageHandler(messageUsecase),
		handlers.NewWebSocketHandler(cfg, broadcast),
	)
}

func do(t *testing.T, e *echo.Echo, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRoomLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/room/create", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	roomID := decode[dto.CreateRoomResponse](t, rec).RoomID
	require.NotEmpty(t, roomID)

	rec = do(t, e, http.MethodPost, "/api/room/join?roomId="+roomID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token1 := decode[dto.JoinRoomResponse](t, rec).Token

	rec = do(t, e, http.MethodPost, "/api/room/join?roomId="+roomID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	token2 := decode[dto.JoinRoomResponse](t, rec).Token
	require.NotEqual(t, token1, token2)

	rec = do(t, e, http.MethodPost, "/api/room/join?roomId="+roomID, "", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "ROOM_FULL", decode[map[string]string](t, rec)["error"])

	rec = do(t, e, http.MethodGet, "/api/room/ttl?roomId="+roomID, "", token1)
	require.Equal(t, http.StatusOK, rec.Code)
	ttl := decode[dto.RoomTTLResponse](t, rec).TTL
	require.Greater(t, ttl, int64(0))
	require.LessOrEqual(t, ttl, int64(600))

	rec = do(t, e, http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":"alice","text":"hi"}`, token1)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/messages?roomId="+roomID, "", token2)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.ListMessagesResponse](t, rec).Messages
	require.Len(t, list, 1)
	require.Equal(t, "alice", list[0].Sender)
	require.Equal(t, "hi", list[0].Text)
	require.Empty(t, list[0].Token, "a member must not see the other member's token")

	rec = do(t, e, http.MethodDelete, "/api/room?roomId="+roomID, "", token1)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/messages?roomId="+roomID, "", token2)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ROOM_NOT_FOUND", decode[map[string]string](t, rec)["error"])

	rec = do(t, e, http.MethodGet, "/api/room/ttl?roomId="+roomID, "", token1)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinUnknownRoomOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/room/join?roomId=never-existed", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "ROOM_NOT_FOUND", decode[map[string]string](t, rec)["error"])
}

func TestValidationOverHTTP(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/room/create", "", "")
	roomID := decode[dto.CreateRoomResponse](t, rec).RoomID

	rec = do(t, e, http.MethodPost, "/api/room/join?roomId="+roomID, "", "")
	token := decode[dto.JoinRoomResponse](t, rec).Token

	long := strings.Repeat("x", 1001)
	rec = do(t, e, http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":"alice","text":"`+long+`"}`, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION_ERROR", decode[map[string]string](t, rec)["error"])

	rec = do(t, e, http.MethodGet, "/api/messages?roomId="+roomID, "", token)
	require.Empty(t, decode[dto.ListMessagesResponse](t, rec).Messages)
}

func TestMissingRoomIDIsUnauthorized(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/api/room/ttl", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMessagesRequireMemberToken(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/api/room/create", "", "")
	roomID := decode[dto.CreateRoomResponse](t, rec).RoomID

	rec = do(t, e, http.MethodGet, "/api/messages?roomId="+roomID, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketStreamsRoomEvents(t *testing.T) {
	e := newTestServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	rec := do(t, e, http.MethodPost, "/api/room/create", "", "")
	roomID := decode[dto.CreateRoomResponse](t, rec).RoomID
	rec = do(t, e, http.MethodPost, "/api/room/join?roomId="+roomID, "", "")
	token1 := decode[dto.JoinRoomResponse](t, rec).Token
	rec = do(t, e, http.MethodPost, "/api/room/join?roomId="+roomID, "", "")
	token2 := decode[dto.JoinRoomResponse](t, rec).Token

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?roomId=" + roomID + "&token=" + token2
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	rec = do(t, e, http.MethodPost, "/api/messages?roomId="+roomID, `{"sender":"alice","text":"hi"}`, token1)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var event storage.Event
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, events.ChatMessage, event.Name)

	var msg models.Message
	require.NoError(t, json.Unmarshal(event.Payload, &msg))
	require.Equal(t, "hi", msg.Text)
	require.Empty(t, msg.Token)

	rec = do(t, e, http.MethodDelete, "/api/room?roomId="+roomID, "", token1)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, events.ChatDestroy, event.Name)
}
