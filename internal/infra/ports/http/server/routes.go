package server

import (
	"github.com/labstack/echo/v4"

	"github.com/chatflow/chatflow/internal/application/config"
	"github.com/chatflow/chatflow/internal/infra/ports/http/handlers"
	"github.com/chatflow/chatflow/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	roomHandler *handlers.RoomHandler,
	messageHandler *handlers.MessageHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.Prometheus())

	secret := []byte(cfg.TokenSecret)

	// Session(secret, false) only demands a roomId; Session(secret, true)
	// additionally demands a verified member token.
	roomScoped := middleware.Session(secret, false)
	memberScoped := middleware.Session(secret, true)

	api := e.Group("/api")
	{
		room := api.Group("/room")
		{
			room.POST("/create", roomHandler.Create)
			room.POST("/join", roomHandler.Join, roomScoped)
			room.GET("/ttl", roomHandler.TTL, roomScoped)
			room.DELETE("", roomHandler.Destroy, roomScoped)
		}

		messages := api.Group("/messages", memberScoped)
		{
			messages.POST("", messageHandler.Append)
			messages.GET("", messageHandler.List)
		}

		api.GET("/ws", wsHandler.Handle, memberScoped)
	}

	return e
}
