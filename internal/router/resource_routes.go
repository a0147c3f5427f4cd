package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/model"
)

// RegisterResources mounts plants, incidents, maintenance, reports and the
// dashboard under both their Spanish and English prefixes.
func RegisterResources(e *echo.Echo, d Deps, h *Handlers) {
	gate := authGate(d, h)
	role := func(roles ...model.Role) echo.MiddlewareFunc {
		return middleware.RequireRole(h.users, d.Log, roles...)
	}
	admin := role(model.RoleAdmin)
	staff := role(model.RoleTechnician, model.RoleAdmin)

	for _, prefix := range []string{"/api/plantas", "/api/plants"} {
		g := e.Group(prefix, gate...)
		p := h.Plants
		g.GET("", p.List)
		g.GET("/cliente/:clientId", p.ListByClient)
		g.GET("/client/:clientId", p.ListByClient)
		g.GET("/:id", p.Get)
		g.POST("", p.Create, admin)
		g.PUT("/:id", p.Update, admin)
		g.DELETE("/:id", p.Delete, admin)
	}

	for _, prefix := range []string{"/api/incidencias", "/api/incidents"} {
		g := e.Group(prefix, gate...)
		i := h.Incidents
		g.POST("", i.Create)
		g.GET("", i.List)
		g.GET("/planta/:plantId", i.ListByPlant)
		g.GET("/plant/:plantId", i.ListByPlant)
		g.GET("/estado/:status", i.ListByStatus)
		g.GET("/status/:status", i.ListByStatus)
		g.GET("/:id", i.Get)
		g.PUT("/:id", i.Update, staff)
		g.PATCH("/:id/estado", i.ChangeStatus, staff)
		g.PATCH("/:id/status", i.ChangeStatus, staff)
		g.DELETE("/:id", i.Delete, admin)
	}

	for _, prefix := range []string{"/api/mantenimientos", "/api/maintenance"} {
		g := e.Group(prefix, gate...)
		m := h.Maintenance
		g.POST("", m.Create, staff)
		g.GET("", m.List)
		g.GET("/planta/:plantId", m.ListByPlant)
		g.GET("/plant/:plantId", m.ListByPlant)
		g.GET("/tecnico/:userId", m.ListByTechnician)
		g.GET("/technician/:userId", m.ListByTechnician)
		g.GET("/:id", m.Get)
		g.PUT("/:id", m.Update, staff)
		g.PATCH("/:id/estado", m.ChangeStatus, staff)
		g.PATCH("/:id/status", m.ChangeStatus, staff)
		g.DELETE("/:id", m.Delete, staff)

		g.POST("/:id/checklist", m.AddChecklistItem, staff)
		g.PATCH("/:id/checklist/:itemId", m.UpdateChecklistItem, staff)
		g.DELETE("/:id/checklist/:itemId", m.DeleteChecklistItem, staff)
	}

	for _, prefix := range []string{"/api/reportes", "/api/reports"} {
		g := e.Group(prefix, gate...)
		r := h.Reports
		g.POST("", r.Create, staff)
		g.GET("", r.List)
		g.GET("/planta/:plantId", r.ListByPlant)
		g.GET("/plant/:plantId", r.ListByPlant)
		g.GET("/usuario/:userId", r.ListByUser)
		g.GET("/user/:userId", r.ListByUser)
		g.GET("/:id", r.Get)
		g.GET("/:id/descargar", r.Download)
		g.GET("/:id/download", r.Download)
		g.DELETE("/:id", r.Delete, admin)
	}

	e.GET("/api/dashboard", h.Dashboard.Get, append(gate, middleware.ResponseCache(d.Cfg.Cache, d.Redis))...)
}
