package model

import "time"

// Role is the access level of an account.
type Role string

const (
	RoleClient     Role = "client"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// User mirrors the users table. Secrets and one-time codes never leave the
// server, so they carry no JSON name.
type User struct {
	ID                    uint64     `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	Name                  string     `db:"name" json:"name"`
	Role                  Role       `db:"role" json:"role"`
	IsVerified            bool       `db:"is_verified" json:"is_verified"`
	VerificationCode      *string    `db:"verification_code" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`
	ResetTokenHash        *string    `db:"reset_token_hash" json:"-"`
	ResetExpiresAt        *time.Time `db:"reset_expires_at" json:"-"`
	LastLoginAt           *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}
