package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// DashboardHandler serves the aggregate counters shown on the home page.
type DashboardHandler struct {
	Stats *repository.DashboardRepo
	Log   *zap.Logger
}

func (h *DashboardHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Stats.Stats(ctx)
	if err != nil {
		return storeError(c, h.Log, "error loading dashboard", err)
	}
	return success(c, http.StatusOK, d)
}
