package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is reported by the health endpoint. Overridden at link time.
var Version = "1.0.0"

// Health is the liveness probe used by load balancers and the frontend.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}
