// Package router wires handlers and middleware into an Echo instance.
package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/handler"
	"github.com/iliyamo/plant-maintenance/internal/mailer"
	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// Deps are the collaborators shared by every route. Redis is optional.
type Deps struct {
	Cfg      config.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier mailer.Notifier
	Log      *zap.Logger
}

// Handlers groups the handler values built from Deps.
type Handlers struct {
	Auth        *handler.AuthHandler
	Plants      *handler.PlantHandler
	Incidents   *handler.IncidentHandler
	Maintenance *handler.MaintenanceHandler
	Reports     *handler.ReportHandler
	Dashboard   *handler.DashboardHandler
	users       *repository.UserRepo
}

func NewHandlers(d Deps) *Handlers {
	users := repository.NewUserRepo(d.DB)
	plants := repository.NewPlantRepo(d.DB)
	incidents := repository.NewIncidentRepo(d.DB)
	jobs := repository.NewMaintenanceRepo(d.DB)
	reports := repository.NewReportRepo(d.DB)
	return &Handlers{
		Auth:        handler.NewAuthHandler(d.Cfg, users, d.Notifier, d.Log),
		Plants:      &handler.PlantHandler{Plants: plants, Log: d.Log},
		Incidents:   &handler.IncidentHandler{Incidents: incidents, Log: d.Log},
		Maintenance: &handler.MaintenanceHandler{Maintenance: jobs, Log: d.Log},
		Reports: &handler.ReportHandler{
			Reports: reports, Plants: plants, Incidents: incidents, Maintenance: jobs, Log: d.Log,
		},
		Dashboard: &handler.DashboardHandler{Stats: repository.NewDashboardRepo(d.DB), Log: d.Log},
		users:     users,
	}
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps, h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.Cfg.CORSOrigin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	RegisterRoutes(e)
	RegisterAuth(e, d, h)
	RegisterResources(e, d, h)
	RegisterStatic(e, d.Cfg)
	return e
}

// RegisterRoutes registers the unauthenticated health probes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/api/salud", handler.Health)
	e.GET("/api/health", handler.Health)
}

// RegisterAuth registers /api/auth. Credential-accepting routes are rate
// limited; session routes require a verified account.
func RegisterAuth(e *echo.Echo, d Deps, h *Handlers) {
	a := h.Auth
	public := e.Group("/api/auth", middleware.RateLimit(d.Cfg.RateLimit, d.Redis, d.Log))
	both(public.POST, a.Register, "/register", "/registrar")
	both(public.POST, a.VerifyEmail, "/verify-email", "/verificar-email")
	both(public.POST, a.Login, "/login", "/iniciar-sesion")
	both(public.POST, a.ForgotPassword, "/forgot-password", "/olvide-contrasena")
	both(public.POST, a.ResetPassword, "/reset-password/:token", "/restablecer-contrasena/:token")

	session := e.Group("/api/auth", authGate(d, h)...)
	both(session.GET, a.CheckAuth, "/check-auth", "/verificar-autenticacion")
	both(session.GET, a.Profile, "/profile", "/perfil")
	both(session.POST, a.Logout, "/logout", "/cerrar-sesion")
}

// authGate authenticates the caller and refuses unverified accounts.
func authGate(d Deps, h *Handlers) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.Authenticate(d.Cfg.JWTSecret, h.users, d.Log),
		middleware.RequireVerified(),
	}
}

type routeFunc func(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route

func both(add routeFunc, h echo.HandlerFunc, paths ...string) {
	for _, p := range paths {
		add(p, h)
	}
}

// errorHandler renders every framework error in the JSON envelope used by
// the handlers.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := http.StatusInternalServerError, "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = strings.ToLower(http.StatusText(code))
			}
		} else {
			log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"success": false, "message": msg})
	}
}
