package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateSecret(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		production bool
		wantWeak   bool
		wantErr    bool
	}{
		{"empty", "", false, false, true},
		{"weak in development", "secret", false, true, false},
		{"weak in production", "secret", true, true, true},
		{"too short", "short-but-custom", true, false, true},
		{"strong", strings.Repeat("k", 32), true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weak, err := ValidateSecret(tt.secret, tt.production)
			if weak != tt.wantWeak {
				t.Errorf("weak = %v, want %v", weak, tt.wantWeak)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("x", 40))
	t.Setenv("DB_DRIVER", "SQLite3")
	t.Setenv("CLIENT_URL", "https://plants.example.com/")

	cfg := Load()

	if cfg.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q, want sqlite3", cfg.DBDriver)
	}
	if cfg.ClientURL != "https://plants.example.com" {
		t.Errorf("ClientURL = %q, want trailing slash trimmed", cfg.ClientURL)
	}
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.TokenTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
}

func TestLoad_MissingSecretIsReportedByValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := Load()

	if _, err := ValidateSecret(cfg.JWTSecret, cfg.IsProduction()); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("ValidateSecret err = %v, want ErrMissingSecret", err)
	}
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_LIMIT", "0")
	t.Setenv("RATE_LIMIT_WINDOW", "10ms")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	rl := LoadRateLimitConfig()

	if rl.Enabled {
		t.Error("Enabled = true, want false")
	}
	if rl.Limit != 1 {
		t.Errorf("Limit = %d, want 1", rl.Limit)
	}
	if rl.Window != time.Second {
		t.Errorf("Window = %v, want 1s", rl.Window)
	}
}
