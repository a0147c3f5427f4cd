package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
)

// RequireRole admits only users whose role is in roles. The user is read
// again from the store so a role change takes effect immediately; a user
// that disappeared yields 404. It must run after Authenticate.
func RequireRole(users UserLookup, log *zap.Logger, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := CurrentUserID(c)
			if id == 0 {
				return fail(c, http.StatusUnauthorized, "not authorized")
			}
			u, err := users.GetByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fail(c, http.StatusNotFound, "user not found")
				}
				log.Error("role: user lookup failed", zap.Uint64("user_id", id), zap.Error(err))
				return errInternal
			}
			if !allowed[u.Role] {
				return fail(c, http.StatusForbidden, "access denied for role "+string(u.Role))
			}
			return next(c)
		}
	}
}
