package middleware

// identity.go holds the context keys set by Authenticate and the helpers
// handlers use to read them back.

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxUser   = "user"
)

// TokenCookie is the cookie carrying the bearer token for browser sessions.
const TokenCookie = "token"

// CurrentUser returns the user resolved by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ctxUser).(*model.User)
	return u
}

// CurrentUserID returns the authenticated user id, or 0 for guests.
func CurrentUserID(c echo.Context) uint64 {
	id, _ := c.Get(ctxUserID).(uint64)
	return id
}

// fail writes the common error envelope.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

var errInternal = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
