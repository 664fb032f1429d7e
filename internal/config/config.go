package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const devSecret = "dev-secret-change-in-production"

// Config holds all environment-driven settings for the API.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// BaseURL is used to build confirmation and reset links in outgoing mail.
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	DatabaseDSN string `envconfig:"DATABASE_DSN" default:"root:password@tcp(127.0.0.1:3306)/contactbook?parseTime=true"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"1h"`

	JWTSecret  string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AccessTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	VerifyTTL  time.Duration `envconfig:"VERIFY_TOKEN_TTL" default:"168h"`
	ResetTTL   time.Duration `envconfig:"RESET_TOKEN_TTL" default:"1h"`

	MailHost     string `envconfig:"MAIL_HOST" default:"localhost"`
	MailPort     int    `envconfig:"MAIL_PORT" default:"587"`
	MailUsername string `envconfig:"MAIL_USERNAME" default:""`
	MailPassword string `envconfig:"MAIL_PASSWORD" default:""`
	MailFrom     string `envconfig:"MAIL_FROM" default:"noreply@contactbook.local"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT" default:""`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY" default:""`
	S3SecretKey string `envconfig:"S3_SECRET_KEY" default:""`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"contactbook-avatars"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL" default:""`
}

// Load reads configuration from the environment.
func Load() Config {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Env == "production" && cfg.JWTSecret == devSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}
