package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatflow/chatflow/internal/infra/appctx"
	"github.com/chatflow/chatflow/internal/usecase"
)

// Session extracts the (roomId, memberToken) pair from a request and puts it
// on the context. A request without a roomId is malformed and rejected
// outright; room existence is deferred to the operation behind the route.
//
// The member token comes from the Authorization header (or the token query
// parameter, for WebSocket clients that cannot set headers). Its signature
// and room binding are verified, but membership is never re-checked against
// the store: token possession is the trust boundary.
func Session(secret []byte, requireToken bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roomID := c.QueryParam("roomId")
			if roomID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
			}

			token := bearerToken(c)

			if token == "" && requireToken {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
			}

			if token != "" {
				if _, err := usecase.ParseMemberToken(secret, roomID, token); err != nil {
					if requireToken {
						return c.JSON(http.StatusUnauthorized, map[string]string{"error": string(usecase.ErrorUnauthorized)})
					}
					// Routes that need no credential must not be blocked by a
					// stale or foreign token a client happens to still carry.
					token = ""
				}
			}

			c.SetRequest(
				c.Request().WithContext(
					appctx.WithSession(c.Request().Context(), appctx.Session{RoomID: roomID, Token: token}),
				),
			)

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.QueryParam("token")
}
