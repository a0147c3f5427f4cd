package config

import (
	"errors"
	"fmt"
)

// weakSecrets are values copied from sample .env files.
var weakSecrets = []string{
	"secret",
	"changeme",
	"jwt_secret",
	"your_jwt_secret",
	"supersecret",
	"mi_clave_secreta",
}

// ErrMissingSecret is returned when no signing secret is configured.
var ErrMissingSecret = errors.New("JWT_SECRET environment variable is required")

// ValidateSecret checks the token signing secret. Sample secrets are
// tolerated in development only; anything else must be 32 bytes or longer.
// The second return value is true when a weak secret was accepted.
func ValidateSecret(secret string, production bool) (weak bool, err error) {
	if secret == "" {
		return false, ErrMissingSecret
	}
	for _, w := range weakSecrets {
		if secret == w {
			if production {
				return true, errors.New("default/weak JWT secret not allowed in production")
			}
			return true, nil
		}
	}
	if len(secret) < 32 {
		return false, fmt.Errorf("JWT secret must be at least 32 characters (got %d)", len(secret))
	}
	return false, nil
}
