package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// MaintenanceHandler serves /api/mantenimientos and the nested checklist.
type MaintenanceHandler struct {
	Maintenance *repository.MaintenanceRepo
	Log         *zap.Logger
}

type maintenanceReq struct {
	PlantID         uint64   `json:"plant_id"`
	PlantIDAlt      uint64   `json:"plantId"`
	UserID          *uint64  `json:"user_id"`
	UserIDAlt       *uint64  `json:"userId"`
	Type            string   `json:"type"`
	Tipo            string   `json:"tipo"`
	Description     *string  `json:"description"`
	Descripcion     *string  `json:"descripcion"`
	ScheduledAt     *string  `json:"scheduled_at"`
	FechaProgramada *string  `json:"fechaProgramada"`
	Status          *string  `json:"status"`
	Estado          *string  `json:"estado"`
	Checklist       []string `json:"checklist"`
}

func (r maintenanceReq) userID() *uint64 {
	if r.UserID != nil {
		return r.UserID
	}
	return r.UserIDAlt
}

func (r maintenanceReq) description() *string {
	if r.Description != nil {
		return trimPtr(r.Description)
	}
	return trimPtr(r.Descripcion)
}

func (r maintenanceReq) scheduledAt() *string {
	if r.ScheduledAt != nil {
		return r.ScheduledAt
	}
	return r.FechaProgramada
}

func (r maintenanceReq) status() *string {
	if r.Status != nil {
		return r.Status
	}
	return r.Estado
}

// Create schedules a job. The assignee defaults to the caller, the type to
// preventive and the status to pending.
func (h *MaintenanceHandler) Create(c echo.Context) error {
	var req maintenanceReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	plantID := firstID(req.PlantID, req.PlantIDAlt)
	desc, when := req.description(), req.scheduledAt()
	if plantID == 0 || desc == nil || *desc == "" || when == nil || strings.TrimSpace(*when) == "" {
		return fail(c, http.StatusBadRequest, "plant_id, description and scheduled_at are required")
	}
	scheduled, err := parseDate(*when)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid scheduled_at")
	}
	m := &model.Maintenance{
		PlantID:     plantID,
		UserID:      middleware.CurrentUserID(c),
		Type:        model.MaintenancePreventive,
		Description: *desc,
		ScheduledAt: scheduled,
		Status:      model.MaintenancePending,
	}
	if uid := req.userID(); uid != nil && *uid != 0 {
		m.UserID = *uid
	}
	if t := firstNonEmpty(req.Type, req.Tipo); t != "" {
		mt, ok := model.ParseMaintenanceType(t)
		if !ok {
			return fail(c, http.StatusBadRequest, "invalid type")
		}
		m.Type = mt
	}
	if s := req.status(); s != nil && *s != "" {
		st, ok := model.ParseMaintenanceStatus(*s)
		if !ok {
			return fail(c, http.StatusBadRequest, "invalid status")
		}
		m.Status = st
	}
	var labels []string
	for _, l := range req.Checklist {
		if l = strings.TrimSpace(l); l != "" {
			if msg := tooLong(lenRule{"checklist item", l, maxLabelLen}); msg != "" {
				return fail(c, http.StatusBadRequest, msg)
			}
			labels = append(labels, l)
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Maintenance.Create(ctx, m, labels); err != nil {
		return storeError(c, h.Log, "error creating maintenance", err)
	}
	return successMsg(c, http.StatusCreated, "maintenance scheduled successfully", m)
}

func (h *MaintenanceHandler) List(c echo.Context) error {
	page := pageFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Maintenance.List(ctx, page)
	if err != nil {
		return storeError(c, h.Log, "error listing maintenance", err)
	}
	return paged(c, items, page)
}

// Get returns the job with its checklist.
func (h *MaintenanceHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maintenance.GetByID(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error fetching maintenance", err)
	}
	return success(c, http.StatusOK, m)
}

func (h *MaintenanceHandler) ListByPlant(c echo.Context) error {
	plantID, ok := pathID(c, "plantId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid plant id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Maintenance.ListByPlant(ctx, plantID)
	if err != nil {
		return storeError(c, h.Log, "error listing maintenance by plant", err)
	}
	return success(c, http.StatusOK, items)
}

func (h *MaintenanceHandler) ListByTechnician(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Maintenance.ListByTechnician(ctx, userID)
	if err != nil {
		return storeError(c, h.Log, "error listing maintenance by technician", err)
	}
	return success(c, http.StatusOK, items)
}

// Update accepts description, scheduled date, status and assignee.
func (h *MaintenanceHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req maintenanceReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	patch := model.MaintenancePatch{Description: req.description(), UserID: req.userID()}
	if patch.Description != nil && *patch.Description == "" {
		return fail(c, http.StatusBadRequest, "description cannot be empty")
	}
	if w := req.scheduledAt(); w != nil {
		t, err := parseDate(*w)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid scheduled_at")
		}
		patch.ScheduledAt = &t
	}
	if s := req.status(); s != nil {
		st, ok := model.ParseMaintenanceStatus(*s)
		if !ok {
			return fail(c, http.StatusBadRequest, "invalid status")
		}
		patch.Status = &st
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maintenance.Update(ctx, id, patch)
	if err != nil {
		return storeError(c, h.Log, "error updating maintenance", err)
	}
	return successMsg(c, http.StatusOK, "maintenance updated successfully", m)
}

// ChangeStatus moves a job to a new status. Completing stamps the
// completion time once; leaving completed clears it.
func (h *MaintenanceHandler) ChangeStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req maintenanceReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	s := req.status()
	if s == nil || *s == "" {
		return fail(c, http.StatusBadRequest, "status is required")
	}
	st, ok := model.ParseMaintenanceStatus(*s)
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid status")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Maintenance.SetStatus(ctx, id, st)
	if err != nil {
		return storeError(c, h.Log, "error changing maintenance status", err)
	}
	return successMsg(c, http.StatusOK, "maintenance status updated", m)
}

func (h *MaintenanceHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Maintenance.Delete(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error deleting maintenance", err)
	}
	if !deleted {
		return fail(c, http.StatusNotFound, repository.ErrMaintenanceNotFound.Error())
	}
	return successMsg(c, http.StatusOK, "maintenance deleted successfully", nil)
}

type checklistReq struct {
	Label       string  `json:"label"`
	Tarea       string  `json:"tarea"`
	Completed   *bool   `json:"completed"`
	Completado  *bool   `json:"completado"`
	Notes       *string `json:"notes"`
	Observacion *string `json:"observaciones"`
}

func (h *MaintenanceHandler) AddChecklistItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req checklistReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	label := strings.TrimSpace(firstNonEmpty(req.Label, req.Tarea))
	if label == "" {
		return fail(c, http.StatusBadRequest, "label is required")
	}
	if msg := tooLong(lenRule{"label", label, maxLabelLen}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	item, err := h.Maintenance.AddChecklistItem(ctx, id, label)
	if err != nil {
		return storeError(c, h.Log, "error adding checklist item", err)
	}
	return successMsg(c, http.StatusCreated, "checklist item added", item)
}

// UpdateChecklistItem toggles completion and edits the observation note.
func (h *MaintenanceHandler) UpdateChecklistItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	itemID, ok2 := pathID(c, "itemId")
	if !ok || !ok2 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req checklistReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	patch := model.ChecklistPatch{Completed: req.Completed, Notes: trimPtr(req.Notes)}
	if patch.Completed == nil {
		patch.Completed = req.Completado
	}
	if patch.Notes == nil {
		patch.Notes = trimPtr(req.Observacion)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	item, err := h.Maintenance.UpdateChecklistItem(ctx, id, itemID, patch)
	if err != nil {
		return storeError(c, h.Log, "error updating checklist item", err)
	}
	return successMsg(c, http.StatusOK, "checklist item updated", item)
}

func (h *MaintenanceHandler) DeleteChecklistItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	itemID, ok2 := pathID(c, "itemId")
	if !ok || !ok2 {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Maintenance.DeleteChecklistItem(ctx, id, itemID)
	if err != nil {
		return storeError(c, h.Log, "error deleting checklist item", err)
	}
	if !deleted {
		return fail(c, http.StatusNotFound, repository.ErrChecklistNotFound.Error())
	}
	return successMsg(c, http.StatusOK, "checklist item deleted", nil)
}
