package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/chatflow/chatflow/internal/application/config"
	"github.com/chatflow/chatflow/internal/application/constant"
	"github.com/chatflow/chatflow/internal/application/metric"
	"github.com/chatflow/chatflow/internal/domain/events"
	"github.com/chatflow/chatflow/internal/infra/adapters/storage"
	"github.com/chatflow/chatflow/internal/infra/appctx"
	"github.com/chatflow/chatflow/internal/usecase"
)

// WebSocketHandler streams a room's broadcast events (chat.message,
// chat.destroy) to a connected member. Missed events are gone: the channel
// has no replay.
type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	broadcast storage.Broadcast
}

func NewWebSocketHandler(cfg *config.Config, broadcast storage.Broadcast) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}
				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		broadcast: broadcast,
	}
}

func (h *WebSocketHandler) Handle(c echo.Context) error {
	sess, ok := appctx.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
	}

	stream, cancelSub, err := h.broadcast.Subscribe(c.Request().Context(), sess.RoomID)
	if err != nil {
		slog.Error("subscribe to room channel", slog.Any(constant.Error, err), slog.String(constant.RoomID, sess.RoomID))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": string(usecase.ErrorChannelUnavailable)})
	}
	defer cancelSub()

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", slog.Any(constant.Error, err))
		return err
	}
	defer ws.Close()

	metric.IncrementWSActiveConnections()
	defer metric.DecrementWSActiveConnections()

	if err := ws.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	// The client never sends application data; the read loop only notices
	// disconnects and keeps pong handling alive.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil

		case <-c.Request().Context().Done():
			return nil

		case event, ok := <-stream:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				return nil
			}
			if event.Name == events.ChatDestroy {
				// The room is gone; nothing further will ever arrive.
				_ = ws.WriteMessage(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "room destroyed"),
				)
				return nil
			}

		case <-ticker.C:
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
