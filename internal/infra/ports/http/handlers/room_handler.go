package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatflow/chatflow/internal/application/constant"
	"github.com/chatflow/chatflow/internal/application/metric"
	"github.com/chatflow/chatflow/internal/infra/appctx"
	"github.com/chatflow/chatflow/internal/infra/ports/http/dto"
	"github.com/chatflow/chatflow/internal/usecase"
)

type RoomHandler struct {
	roomUsecase usecase.RoomUsecase
}

func NewRoomHandler(roomUsecase usecase.RoomUsecase) *RoomHandler {
	return &RoomHandler{roomUsecase: roomUsecase}
}

func (h *RoomHandler) Create(c echo.Context) error {
	roomID, err := h.roomUsecase.CreateRoom(c.Request().Context())
	if err != nil {
		slog.Error("create room", slog.Any(constant.Error, err))
		return errorJSON(c, err)
	}

	metric.IncrementRoomsCreated()

	return c.JSON(http.StatusOK, dto.CreateRoomResponse{RoomID: roomID})
}

func (h *RoomHandler) Join(c echo.Context) error {
	sess, ok := appctx.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
	}

	token, err := h.roomUsecase.Join(c.Request().Context(), sess.RoomID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dto.JoinRoomResponse{Token: token})
}

func (h *RoomHandler) TTL(c echo.Context) error {
	sess, ok := appctx.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
	}

	ttl, err := h.roomUsecase.GetTTL(c.Request().Context(), sess.RoomID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dto.RoomTTLResponse{TTL: ttl})
}

func (h *RoomHandler) Destroy(c echo.Context) error {
	sess, ok := appctx.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
	}

	if err := h.roomUsecase.Destroy(c.Request().Context(), sess.RoomID); err != nil {
		slog.Error("destroy room", slog.Any(constant.Error, err), slog.String(constant.RoomID, sess.RoomID))
		return errorJSON(c, err)
	}

	return c.NoContent(http.StatusOK)
}
