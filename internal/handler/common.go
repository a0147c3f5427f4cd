package handler // package handler implements the HTTP endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// requestTimeout bounds every store round trip made by a handler.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// fail writes the error envelope shared by all endpoints.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func successMsg(c echo.Context, status int, msg string, data any) error {
	body := echo.Map{"success": true, "message": msg}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

func paged(c echo.Context, data any, page model.Page) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data, "pagination": page})
}

// storeError maps repository errors to responses. Unexpected failures are
// logged with their cause and answered with msg alone.
func storeError(c echo.Context, log *zap.Logger, msg string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrNoFieldsToUpdate):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrInvalidReference):
		return fail(c, http.StatusBadRequest, referenceMessage(err))
	case errors.Is(err, repository.ErrDuplicateKey):
		return fail(c, http.StatusBadRequest, "record already exists")
	}
	log.Error(msg,
		zap.String("route", c.Path()),
		zap.String("method", c.Request().Method),
		zap.Error(err))
	return fail(c, http.StatusInternalServerError, msg)
}

// referenceMessage turns "error creating plant: client: referenced record
// does not exist" into "client does not exist".
func referenceMessage(err error) string {
	parts := strings.Split(err.Error(), ": ")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + " does not exist"
	}
	return repository.ErrInvalidReference.Error()
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// pageFrom reads limit/page, also accepting the limite/pagina names the
// bundled frontend sends.
func pageFrom(c echo.Context) model.Page {
	limit := firstInt(c, "limit", "limite")
	page := firstInt(c, "page", "pagina")
	return model.NewPage(limit, page)
}

func firstInt(c echo.Context, names ...string) int {
	for _, n := range names {
		if v := c.QueryParam(n); v != "" {
			i, _ := strconv.Atoi(v)
			return i
		}
	}
	return 0
}

// parseDate accepts RFC 3339 timestamps, datetime-local values and plain
// dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// firstNonEmpty returns the first argument that is not blank.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstID(ids ...uint64) uint64 {
	for _, id := range ids {
		if id != 0 {
			return id
		}
	}
	return 0
}

// Column sizes from the schema.
const (
	maxEmailLen      = 255
	maxUserNameLen   = 120
	maxPlantNameLen  = 150
	maxLocationLen   = 255
	maxTitleLen      = 200
	maxLabelLen      = 255
	maxReportTypeLen = 40
	maxPeriodLen     = 40
	maxFilePathLen   = 255
)

type lenRule struct {
	field string
	value string
	max   int
}

// tooLong returns a validation message for the first rule whose value
// exceeds its limit in characters, or "".
func tooLong(rules ...lenRule) string {
	for _, r := range rules {
		if utf8.RuneCountInString(r.value) > r.max {
			return fmt.Sprintf("%s must be at most %d characters", r.field, r.max)
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
