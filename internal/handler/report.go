package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/report"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

const (
	defaultReportType   = "general"
	defaultReportPeriod = "mensual"
)

// ReportHandler serves /api/reportes. Documents are rendered on download
// and never written to disk.
type ReportHandler struct {
	Reports     *repository.ReportRepo
	Plants      *repository.PlantRepo
	Incidents   *repository.IncidentRepo
	Maintenance *repository.MaintenanceRepo
	Log         *zap.Logger
}

type reportReq struct {
	PlantID     uint64 `json:"plant_id"`
	PlantIDAlt  uint64 `json:"plantId"`
	Type        string `json:"type"`
	Tipo        string `json:"tipo"`
	Description string `json:"description"`
	Descripcion string `json:"descripcion"`
	Period      string `json:"period"`
	Periodo     string `json:"periodo"`
	FilePath    string `json:"file_path"`
	RutaArchivo string `json:"rutaArchivo"`
}

func (h *ReportHandler) Create(c echo.Context) error {
	var req reportReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	plantID := firstID(req.PlantID, req.PlantIDAlt)
	if plantID == 0 {
		return fail(c, http.StatusBadRequest, "plant_id is required")
	}
	rep := &model.Report{
		PlantID:     plantID,
		UserID:      middleware.CurrentUserID(c),
		Type:        firstNonEmpty(req.Type, req.Tipo, defaultReportType),
		Description: firstNonEmpty(req.Description, req.Descripcion),
		Period:      firstNonEmpty(req.Period, req.Periodo, defaultReportPeriod),
		FilePath:    firstNonEmpty(req.FilePath, req.RutaArchivo),
	}
	if msg := tooLong(
		lenRule{"type", rep.Type, maxReportTypeLen},
		lenRule{"period", rep.Period, maxPeriodLen},
		lenRule{"file_path", rep.FilePath, maxFilePathLen},
	); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Reports.Create(ctx, rep); err != nil {
		return storeError(c, h.Log, "error creating report", err)
	}
	return successMsg(c, http.StatusCreated, "report generated successfully", rep)
}

func (h *ReportHandler) List(c echo.Context) error {
	page := pageFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Reports.List(ctx, page)
	if err != nil {
		return storeError(c, h.Log, "error listing reports", err)
	}
	return paged(c, items, page)
}

func (h *ReportHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rep, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error fetching report", err)
	}
	return success(c, http.StatusOK, rep)
}

func (h *ReportHandler) ListByPlant(c echo.Context) error {
	plantID, ok := pathID(c, "plantId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid plant id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Reports.ListByPlant(ctx, plantID)
	if err != nil {
		return storeError(c, h.Log, "error listing reports by plant", err)
	}
	return success(c, http.StatusOK, items)
}

func (h *ReportHandler) ListByUser(c echo.Context) error {
	userID, ok := pathID(c, "userId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Reports.ListByUser(ctx, userID)
	if err != nil {
		return storeError(c, h.Log, "error listing reports by user", err)
	}
	return success(c, http.StatusOK, items)
}

// Download renders the report as a PDF with the plant's current incident
// and maintenance figures.
func (h *ReportHandler) Download(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rep, err := h.Reports.GetByID(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error downloading report", err)
	}
	plant, err := h.Plants.GetByID(ctx, rep.PlantID)
	if err != nil {
		return storeError(c, h.Log, "error downloading report", err)
	}
	incidents, err := h.Incidents.ListByPlant(ctx, rep.PlantID)
	if err != nil {
		return storeError(c, h.Log, "error downloading report", err)
	}
	jobs, err := h.Maintenance.ListByPlant(ctx, rep.PlantID)
	if err != nil {
		return storeError(c, h.Log, "error downloading report", err)
	}

	var buf bytes.Buffer
	doc := report.Document{Report: *rep, Plant: *plant, Incidents: incidents, Maintenance: jobs}
	if err := report.Render(&buf, doc); err != nil {
		return storeError(c, h.Log, "error rendering report", err)
	}
	name := path.Base(rep.FilePath)
	if name == "." || name == "/" {
		name = fmt.Sprintf("reporte_%d.pdf", rep.ID)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *ReportHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	deleted, err := h.Reports.Delete(ctx, id)
	if err != nil {
		return storeError(c, h.Log, "error deleting report", err)
	}
	if !deleted {
		return fail(c, http.StatusNotFound, repository.ErrReportNotFound.Error())
	}
	return successMsg(c, http.StatusOK, "report deleted successfully", nil)
}
