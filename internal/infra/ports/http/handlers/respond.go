package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chatflow/chatflow/internal/usecase"
)

// errorJSON maps a usecase error onto an HTTP response. RoomFull and
// RoomNotFound get distinct codes so clients can present distinct guidance.
func errorJSON(c echo.Context, err error) error {
	code := usecase.CodeOf(err)
	return c.JSON(statusOf(code), map[string]string{"error": string(code)})
}

func statusOf(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorRoomNotFound:
		return http.StatusNotFound
	case usecase.ErrorRoomFull:
		return http.StatusConflict
	case usecase.ErrorUnauthorized:
		return http.StatusUnauthorized
	case usecase.ErrorValidation:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}
