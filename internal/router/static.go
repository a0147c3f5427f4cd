package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/plant-maintenance/internal/config"
)

// RegisterStatic serves the bundled frontend in production. Unknown paths
// outside /api fall back to index.html so client-side routes survive a
// reload.
func RegisterStatic(e *echo.Echo, cfg config.Config) {
	if !cfg.IsProduction() || cfg.StaticDir == "" {
		return
	}
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  cfg.StaticDir,
		Index: "index.html",
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api")
		},
	}))
}
