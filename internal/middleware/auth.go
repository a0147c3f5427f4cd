package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
	"github.com/iliyamo/plant-maintenance/internal/utils"
)

// UserLookup resolves an account by id. *repository.UserRepo satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// Authenticate is the single authentication gate. It takes the token from
// "Authorization: Bearer" or, failing that, from the token cookie, checks
// signature and expiry, and re-reads the user so that tokens of vanished
// accounts stop working. The user, its id and its role are stored on the
// context. Verification is checked separately by RequireVerified.
func Authenticate(secret string, users UserLookup, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return fail(c, http.StatusUnauthorized, "not authorized, no token provided")
			}

			claims, err := utils.ParseAccessToken(secret, raw)
			switch {
			case errors.Is(err, utils.ErrTokenExpired):
				return fail(c, http.StatusUnauthorized, "token expired, please sign in again")
			case err != nil:
				return fail(c, http.StatusUnauthorized, "invalid token")
			}
			id, err := claims.UserID()
			if err != nil {
				return fail(c, http.StatusUnauthorized, "invalid token")
			}

			u, err := users.GetByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fail(c, http.StatusUnauthorized, "user not found")
				}
				log.Error("auth: user lookup failed", zap.Uint64("user_id", id), zap.Error(err))
				return errInternal
			}

			c.Set(ctxUserID, u.ID)
			c.Set(ctxRole, string(u.Role))
			c.Set(ctxUser, u)
			return next(c)
		}
	}
}

// RequireVerified rejects accounts whose email has not been confirmed.
// It must run after Authenticate.
func RequireVerified() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				return fail(c, http.StatusUnauthorized, "not authorized")
			}
			if !u.IsVerified {
				return fail(c, http.StatusUnauthorized, "account not verified, please verify your email")
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); raw != "" {
			return raw
		}
	}
	if ck, err := c.Cookie(TokenCookie); err == nil {
		return ck.Value
	}
	return ""
}
