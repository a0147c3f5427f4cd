package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// PlantHandler serves /api/plantas.
type PlantHandler struct {
	Plants *repository.PlantRepo
	Log    *zap.Logger
}

type plantReq struct {
	Name      *string `json:"name"`
	Location  *string `json:"location"`
	ClientID  *uint64 `json:"client_id"`
	Nombre    *string `json:"nombre"`
	Ubicacion *string `json:"ubicacion"`
	ClienteID *uint64 `json:"clienteId"`
}

func (r plantReq) patch() model.PlantPatch {
	p := model.PlantPatch{Name: trimPtr(r.Name), Location: trimPtr(r.Location), ClientID: r.ClientID}
	if p.Name == nil {
		p.Name = trimPtr(r.Nombre)
	}
	if p.Location == nil {
		p.Location = trimPtr(r.Ubicacion)
	}
	if p.ClientID == nil {
		p.ClientID = r.ClienteID
	}
	return p
}

func plantTooLong(p model.PlantPatch) string {
	return tooLong(lenRule{"name", deref(p.Name), maxPlantNameLen}, lenRule{"location", deref(p.Location), maxLocationLen})
}

func (h *PlantHandler) Create(c echo.Context) error {
	var req plantReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	p := req.patch()
	if p.Name == nil || *p.Name == "" || p.Location == nil || *p.Location == "" || p.ClientID == nil || *p.ClientID == 0 {
		return fail(c, http.StatusBadRequest, "name, location and client_id are required")
	}
	if msg := plantTooLong(p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	plant := &model.Plant{Name: *p.Name, Location: *p.Location, ClientID: *p.ClientID}
	if err := h.Plants.Create(ctx, plant); err != nil {
		return storeError(c, h.Log, "error creating plant", err)
	}
	return successMsg(c, http.StatusCreated, "plant created successfully", plant)
}

func (h *PlantHandler) List(c echo.Context) error {
	page := pageFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	plants, err := h.Plants.List(ctx, page)
	if err != nil {
		return storeError(c, h.Log, "error listing plants", err)
	}
	return paged(c, plants, page)
}

func (h *PlantHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	plant, err := h.Plants.GetByID(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error fetching plant", err)
	}
	return success(c, http.StatusOK, plant)
}

// ListByClient returns every plant owned by :clientId.
func (h *PlantHandler) ListByClient(c echo.Context) error {
	clientID, ok := pathID(c, "clientId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid client id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	plants, err := h.Plants.ListByClient(ctx, clientID)
	if err != nil {
		return storeError(c, h.Log, "error listing plants by client", err)
	}
	return success(c, http.StatusOK, plants)
}

// Update changes name, location and owner. Other fields are ignored.
func (h *PlantHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	var req plantReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	p := req.patch()
	if (p.Name != nil && *p.Name == "") || (p.Location != nil && strings.TrimSpace(*p.Location) == "") {
		return fail(c, http.StatusBadRequest, "name and location cannot be empty")
	}
	if msg := plantTooLong(p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	plant, err := h.Plants.Update(ctx, id, p)
	if err != nil {
		return storeError(c, h.Log, "error updating plant", err)
	}
	return successMsg(c, http.StatusOK, "plant updated successfully", plant)
}

// Delete removes the plant together with its incidents, maintenance and
// reports.
func (h *PlantHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Plants.Delete(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error deleting plant", err)
	}
	if !deleted {
		return fail(c, http.StatusNotFound, repository.ErrPlantNotFound.Error())
	}
	return successMsg(c, http.StatusOK, "plant deleted successfully", nil)
}
