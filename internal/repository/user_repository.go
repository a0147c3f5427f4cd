package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

const userColumns = `id, email, password_hash, name, role, is_verified,
	verification_code, verification_expires_at, reset_token_hash, reset_expires_at,
	last_login_at, created_at, updated_at`

// UserRepo is the credential store. Users are never deleted.
type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u with a normalized email and fills in ID and timestamps.
// A taken email yields an error wrapping ErrDuplicateKey.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, role, is_verified,
			verification_code, verification_expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Name, u.Role, u.IsVerified,
		u.VerificationCode, u.VerificationExpiresAt, ts, ts)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("error creating user: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = ts, ts
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "email = ?", normalizeEmail(email))
}

// GetByVerificationCode returns the unverified user holding code. A code
// held by more than one pending account matches nobody. Expiry is left to
// the caller.
func (r *UserRepo) GetByVerificationCode(ctx context.Context, code string) (*model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users WHERE verification_code = ? AND is_verified = ? LIMIT 2", code, false)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if len(users) != 1 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// VerificationCodeInUse reports whether a pending account already holds code.
func (r *UserRepo) VerificationCodeInUse(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM users WHERE verification_code = ? AND is_verified = ?", code, false)
	if err != nil {
		return false, fmt.Errorf("error checking verification code: %w", err)
	}
	return n > 0, nil
}

// GetByResetTokenHash returns the user whose stored reset hash matches.
func (r *UserRepo) GetByResetTokenHash(ctx context.Context, hash string) (*model.User, error) {
	return r.getOne(ctx, "reset_token_hash = ?", hash)
}

func (r *UserRepo) getOne(ctx context.Context, where string, args ...any) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return &u, nil
}

// MarkVerified flips the verified flag and clears the verification code.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	return r.exec(ctx, "error verifying user",
		`UPDATE users SET is_verified = ?, verification_code = NULL,
			verification_expires_at = NULL, updated_at = ? WHERE id = ?`,
		true, now(), id)
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, id uint64) error {
	ts := now()
	return r.exec(ctx, "error updating last login",
		"UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?", ts, ts, id)
}

// SetResetToken stores the hash of a password reset token and its expiry.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, hash string, expires time.Time) error {
	return r.exec(ctx, "error saving reset token",
		"UPDATE users SET reset_token_hash = ?, reset_expires_at = ?, updated_at = ? WHERE id = ?",
		hash, expires.UTC(), now(), id)
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	return r.exec(ctx, "error updating password",
		`UPDATE users SET password_hash = ?, reset_token_hash = NULL,
			reset_expires_at = NULL, updated_at = ? WHERE id = ?`,
		passwordHash, now(), id)
}

func (r *UserRepo) exec(ctx context.Context, prefix, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountByRole returns the number of accounts per role.
func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	out, err := groupCounts(ctx, r.db,
		"SELECT role AS k, COUNT(*) AS n FROM users GROUP BY role",
		string(model.RoleClient), string(model.RoleTechnician), string(model.RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	return out, nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
