package config // package config loads application configuration from environment variables

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. JWTSecret is checked by ValidateSecret before the
// server starts; other commands never sign tokens.
type Config struct {
	Env        string // application environment (development / production)
	Port       string // HTTP port to listen on
	DBDriver   string // mysql or sqlite3
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	DBPath     string // sqlite file, ":memory:" allowed
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	CORSOrigin string // allowed browser origin
	ClientURL  string // frontend base URL used in password reset links
	StaticDir  string // bundled frontend served in production
	AMQPURL    string // optional broker for the email queue

	SMTP      SMTPConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// SMTPConfig describes the outgoing mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether enough relay settings exist to send mail.
func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.From != "" }

// Load reads an optional .env file and then builds a Config from the
// process environment.
func Load() Config {
	// .env is optional; real deployments inject variables directly
	_ = godotenv.Load()

	return Config{
		Env:        envStr("APP_ENV", "development"),
		Port:       envStr("APP_PORT", envStr("PORT", "5000")),
		DBDriver:   strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBUser:     envStr("DB_USER", "root"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envStr("DB_PORT", "3306"),
		DBName:     envStr("DB_NAME", "plant_maintenance"),
		DBPath:     envStr("DB_PATH", "plant_maintenance.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   envDur("TOKEN_TTL", 7*24*time.Hour),
		BcryptCost: envInt("BCRYPT_COST", 10),
		CORSOrigin: envStr("CORS_ORIGIN", "http://localhost:5173"),
		ClientURL:  strings.TrimRight(envStr("CLIENT_URL", "http://localhost:5173"), "/"),
		StaticDir:  envStr("STATIC_DIR", "frontend/dist"),
		AMQPURL:    envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("MAIL_FROM", os.Getenv("SMTP_USER")),
		},
		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
	}
}

// IsProduction reports whether the bundled frontend should be served and
// secure cookies issued.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
