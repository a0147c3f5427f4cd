package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// IncidentHandler serves /api/incidencias.
type IncidentHandler struct {
	Incidents *repository.IncidentRepo
	Log       *zap.Logger
}

type incidentReq struct {
	PlantID     uint64  `json:"plant_id"`
	PlantIDAlt  uint64  `json:"plantId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Titulo      *string `json:"titulo"`
	Descripcion *string `json:"descripcion"`
	Estado      *string `json:"estado"`
}

func (r incidentReq) title() *string {
	if r.Title != nil {
		return trimPtr(r.Title)
	}
	return trimPtr(r.Titulo)
}

func (r incidentReq) description() *string {
	if r.Description != nil {
		return trimPtr(r.Description)
	}
	return trimPtr(r.Descripcion)
}

func (r incidentReq) status() *string {
	if r.Status != nil {
		return r.Status
	}
	return r.Estado
}

// Create reports an incident as the calling user.
func (h *IncidentHandler) Create(c echo.Context) error {
	var req incidentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	plantID := firstID(req.PlantID, req.PlantIDAlt)
	title, desc := req.title(), req.description()
	if plantID == 0 || title == nil || *title == "" || desc == nil || *desc == "" {
		return fail(c, http.StatusBadRequest, "plant_id, title and description are required")
	}
	if msg := tooLong(lenRule{"title", *title, maxTitleLen}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	in := &model.Incident{
		PlantID:     plantID,
		UserID:      middleware.CurrentUserID(c),
		Title:       *title,
		Description: *desc,
	}
	if s := req.status(); s != nil && *s != "" {
		st, ok := model.ParseIncidentStatus(*s)
		if !ok {
			return fail(c, http.StatusBadRequest, "invalid status")
		}
		in.Status = st
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Incidents.Create(ctx, in); err != nil {
		return storeError(c, h.Log, "error creating incident", err)
	}
	return successMsg(c, http.StatusCreated, "incident reported successfully", in)
}

func (h *IncidentHandler) List(c echo.Context) error {
	page := pageFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Incidents.List(ctx, page)
	if err != nil {
		return storeError(c, h.Log, "error listing incidents", err)
	}
	return paged(c, items, page)
}

func (h *IncidentHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	in, err := h.Incidents.GetByID(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error fetching incident", err)
	}
	return success(c, http.StatusOK, in)
}

func (h *IncidentHandler) ListByPlant(c echo.Context) error {
	plantID, ok := pathID(c, "plantId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid plant id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Incidents.ListByPlant(ctx, plantID)
	if err != nil {
		return storeError(c, h.Log, "error listing incidents by plant", err)
	}
	return success(c, http.StatusOK, items)
}

func (h *IncidentHandler) ListByStatus(c echo.Context) error {
	st, ok := model.ParseIncidentStatus(c.Param("status"))
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Incidents.ListByStatus(ctx, st)
	if err != nil {
		return storeError(c, h.Log, "error listing incidents by status", err)
	}
	return success(c, http.StatusOK, items)
}

// Update applies title, description and status. Unknown keys are ignored;
// a body with none of the three is rejected.
func (h *IncidentHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req incidentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	patch := model.IncidentPatch{Title: req.title(), Description: req.description()}
	if patch.Title != nil && *patch.Title == "" {
		return fail(c, http.StatusBadRequest, "title cannot be empty")
	}
	if patch.Description != nil && *patch.Description == "" {
		return fail(c, http.StatusBadRequest, "description cannot be empty")
	}
	if msg := tooLong(lenRule{"title", deref(patch.Title), maxTitleLen}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if s := req.status(); s != nil {
		st, ok := model.ParseIncidentStatus(*s)
		if !ok {
			return fail(c, http.StatusBadRequest, "invalid status")
		}
		patch.Status = &st
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	in, err := h.Incidents.Update(ctx, id, patch)
	if err != nil {
		return storeError(c, h.Log, "error updating incident", err)
	}
	return successMsg(c, http.StatusOK, "incident updated successfully", in)
}

// ChangeStatus moves an incident to a new status. Resolving stamps the
// resolution time once; leaving resolved clears it.
func (h *IncidentHandler) ChangeStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req incidentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s := req.status()
	if s == nil || *s == "" {
		return fail(c, http.StatusBadRequest, "status is required")
	}
	st, ok := model.ParseIncidentStatus(*s)
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	in, err := h.Incidents.SetStatus(ctx, id, st)
	if err != nil {
		return storeError(c, h.Log, "error changing incident status", err)
	}
	return successMsg(c, http.StatusOK, "incident status updated", in)
}

func (h *IncidentHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Incidents.Delete(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error deleting incident", err)
	}
	if !deleted {
		return fail(c, http.StatusNotFound, repository.ErrIncidentNotFound.Error())
	}
	return successMsg(c, http.StatusOK, "incident deleted successfully", nil)
}
