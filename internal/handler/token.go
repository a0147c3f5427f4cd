package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/utils"
)

// issueToken signs a bearer token for u and also sets it as an HTTP-only
// cookie. The raw token is returned for the JSON body.
func (h *AuthHandler) issueToken(c echo.Context, u *model.User) (string, error) {
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, string(u.Role), h.Cfg.TokenTTL)
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.Exp,
		MaxAge:   int(h.Cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	return tok.Token, nil
}

func (h *AuthHandler) clearToken(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}
