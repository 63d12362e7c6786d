package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatflow/chatflow/internal/application/metric"
	"github.com/chatflow/chatflow/internal/infra/appctx"
	"github.com/chatflow/chatflow/internal/infra/ports/http/dto"
	"github.com/chatflow/chatflow/internal/usecase"
)

type MessageHandler struct {
	messageUsecase usecase.MessageUsecase
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase) *MessageHandler {
	return &MessageHandler{messageUsecase: messageUsecase}
}

func (h *MessageHandler) Append(c echo.Context) error {
	sess, ok := appctx.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
	}

	var req dto.AppendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": string(usecase.ErrorValidation)})
	}

	msg, err := h.messageUsecase.Append(c.Request().Context(), sess.RoomID, req.Sender, req.Text, sess.Token)
	if err != nil {
		return errorJSON(c, err)
	}

	metric.IncrementMessagesAppended()

	return c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) List(c echo.Context) error {
	sess, ok := appctx.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
	}

	messages, err := h.messageUsecase.List(c.Request().Context(), sess.RoomID, sess.Token)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, dto.ListMessagesResponse{Messages: messages})
}
