package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/plant-maintenance/internal/config"
	"github.com/iliyamo/plant-maintenance/internal/mailer"
	"github.com/iliyamo/plant-maintenance/internal/middleware"
	"github.com/iliyamo/plant-maintenance/internal/model"
	"github.com/iliyamo/plant-maintenance/internal/repository"
	"github.com/iliyamo/plant-maintenance/internal/utils"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour

	// attempts at drawing a code no other pending account holds
	codeAttempts = 5
)

// forgotPasswordReply is sent whether or not the email is registered.
const forgotPasswordReply = "if the email is registered, a reset link has been sent"

// AuthHandler bundles dependencies for the account endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Notifier mailer.Notifier
	Log      *zap.Logger

	// Now is the clock used for code and token expiry.
	Now     func() time.Time
	// NewCode draws verification codes.
	NewCode func() (string, error)
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, n mailer.Notifier, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		Cfg:      cfg,
		Users:    users,
		Notifier: n,
		Log:      log,
		Now:      func() time.Time { return time.Now().UTC() },
		NewCode:  utils.NewVerificationCode,
	}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token,omitempty"`
}

// Register creates an unverified account, issues a token and mails the
// six digit verification code. Admin accounts cannot be self-registered.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(firstNonEmpty(req.Name, req.Nombre))
	req.Role = firstNonEmpty(req.Role, req.Rol)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fail(c, http.StatusBadRequest, "email, password and name are required")
	}
	if !strings.Contains(req.Email, "@") {
		return fail(c, http.StatusBadRequest, "invalid email")
	}
	if msg := tooLong(lenRule{"email", req.Email, maxEmailLen}, lenRule{"name", req.Name, maxUserNameLen}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	role := model.RoleClient
	if r := strings.ToLower(strings.TrimSpace(req.Role)); r != "" {
		role = model.Role(r)
		if role != model.RoleClient && role != model.RoleTechnician {
			return fail(c, http.StatusBadRequest, "invalid role")
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return fail(c, http.StatusBadRequest, "user already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return storeError(c, h.Log, "error registering user", err)
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return storeError(c, h.Log, "error registering user", err)
	}
	code, err := h.freeCode(ctx)
	if err != nil {
		return storeError(c, h.Log, "error registering user", err)
	}
	expires := h.Now().Add(verificationTTL)
	u := &model.User{
		Email:                 req.Email,
		PasswordHash:          hash,
		Name:                  req.Name,
		Role:                  role,
		VerificationCode:      &code,
		VerificationExpiresAt: &expires,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return fail(c, http.StatusBadRequest, "user already exists")
		}
		return storeError(c, h.Log, "error registering user", err)
	}

	token, err := h.issueToken(c, u)
	if err != nil {
		return storeError(c, h.Log, "error issuing token", err)
	}
	if err := h.Notifier.SendVerification(ctx, u.Email, u.Name, code); err != nil {
		h.Log.Warn("verification email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}

	return c.JSON(http.StatusCreated, authResp{
		Success: true,
		Message: "user registered, check your email for the verification code",
		User:    u,
		Token:   token,
	})
}

// VerifyEmail consumes a verification code issued at registration. With
// an email the code is checked against that account only; a bare code must
// belong to exactly one pending account.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req struct {
		Code  string `json:"code"`
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return fail(c, http.StatusBadRequest, "verification code is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		u   *model.User
		err error
	)
	if email != "" {
		u, err = h.Users.GetByEmail(ctx, email)
	} else {
		u, err = h.Users.GetByVerificationCode(ctx, code)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "invalid or expired verification code")
		}
		return storeError(c, h.Log, "error verifying email", err)
	}
	if !h.codeMatches(u, code) {
		return fail(c, http.StatusBadRequest, "invalid or expired verification code")
	}
	if err := h.Users.MarkVerified(ctx, u.ID); err != nil {
		return storeError(c, h.Log, "error verifying email", err)
	}
	u.IsVerified = true
	u.VerificationCode, u.VerificationExpiresAt = nil, nil

	if err := h.Notifier.SendWelcome(ctx, u.Email, u.Name); err != nil {
		h.Log.Warn("welcome email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return c.JSON(http.StatusOK, authResp{Success: true, Message: "email verified successfully", User: u})
}

// codeMatches reports whether u is pending and holds an unexpired code.
func (h *AuthHandler) codeMatches(u *model.User, code string) bool {
	if u.IsVerified || u.VerificationCode == nil || u.VerificationExpiresAt == nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*u.VerificationCode), []byte(code)) != 1 {
		return false
	}
	return h.Now().Before(*u.VerificationExpiresAt)
}

// freeCode draws a verification code no other pending account holds.
func (h *AuthHandler) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := h.NewCode()
		if err != nil {
			return "", err
		}
		inUse, err := h.Users.VerificationCodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", errors.New("no unused verification code after retries")
}

// Login checks credentials and returns a fresh token. Unverified accounts
// are refused even with the right password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "invalid credentials")
		}
		return storeError(c, h.Log, "error signing in", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusBadRequest, "invalid credentials")
	}
	if !u.IsVerified {
		return fail(c, http.StatusUnauthorized, "account not verified, please verify your email")
	}

	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		return storeError(c, h.Log, "error signing in", err)
	}
	ts := h.Now()
	u.LastLoginAt = &ts

	token, err := h.issueToken(c, u)
	if err != nil {
		return storeError(c, h.Log, "error issuing token", err)
	}
	return c.JSON(http.StatusOK, authResp{Success: true, Message: "signed in successfully", User: u, Token: token})
}

// Logout clears the token cookie. Bearer tokens stay valid until expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearToken(c)
	return successMsg(c, http.StatusOK, "signed out successfully", nil)
}

// ForgotPassword mails a one hour reset link. The reply is identical for
// unknown emails.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return fail(c, http.StatusBadRequest, "email is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return successMsg(c, http.StatusOK, forgotPasswordReply, nil)
		}
		return storeError(c, h.Log, "error requesting password reset", err)
	}

	raw, err := utils.NewResetToken()
	if err != nil {
		return storeError(c, h.Log, "error requesting password reset", err)
	}
	if err := h.Users.SetResetToken(ctx, u.ID, utils.HashToken(raw), h.Now().Add(resetTTL)); err != nil {
		return storeError(c, h.Log, "error requesting password reset", err)
	}
	link := h.Cfg.ClientURL + "/reset-password/" + raw
	if err := h.Notifier.SendPasswordReset(ctx, u.Email, u.Name, link); err != nil {
		h.Log.Warn("password reset email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return successMsg(c, http.StatusOK, forgotPasswordReply, nil)
}

// ResetPassword replaces the password of the account owning :token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	raw := strings.TrimSpace(c.Param("token"))
	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if raw == "" {
		return fail(c, http.StatusBadRequest, "invalid or expired reset token")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByResetTokenHash(ctx, utils.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusBadRequest, "invalid or expired reset token")
		}
		return storeError(c, h.Log, "error resetting password", err)
	}
	if u.ResetExpiresAt == nil || !h.Now().Before(*u.ResetExpiresAt) {
		return fail(c, http.StatusBadRequest, "invalid or expired reset token")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return storeError(c, h.Log, "error resetting password", err)
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return storeError(c, h.Log, "error resetting password", err)
	}
	if err := h.Notifier.SendPasswordChanged(ctx, u.Email, u.Name); err != nil {
		h.Log.Warn("password changed email failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	return successMsg(c, http.StatusOK, "password reset successfully", nil)
}

// CheckAuth confirms the session and echoes the current user.
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	return c.JSON(http.StatusOK, authResp{Success: true, Message: "authenticated", User: middleware.CurrentUser(c)})
}

// Profile returns the authenticated user's record.
func (h *AuthHandler) Profile(c echo.Context) error {
	return success(c, http.StatusOK, middleware.CurrentUser(c))
}
