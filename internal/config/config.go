package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Mailbox      MailboxConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	TeamIndexTTLSec int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
	// Fields are attached to every log line.
	Fields map[string]any
}

// AuthConfig holds the secret shared with the identity service that mints bearer tokens.
type AuthConfig struct {
	JWTSecret string
	// JWTIssuer, when set, must match the iss claim of every token.
	JWTIssuer string
}

// MailboxConfig points the starred-mail feed at an IMAP account.
type MailboxConfig struct {
	Addr           string
	User           string
	Password       string
	Mailbox        string
	TimeoutSeconds int
	// SyncIntervalSeconds > 0 enables the background sync into SyncWorkspaceID.
	SyncIntervalSeconds int
	SyncWorkspaceID     string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
	// QueueSize bounds events waiting for delivery to notification handlers.
	QueueSize int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "workflow-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:        os.Getenv("REDIS_PASSWORD"),
			DB:              redisDB,
			TeamIndexTTLSec: getEnvAsInt("REDIS_TEAM_INDEX_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
			JWTIssuer: os.Getenv("AUTH_JWT_ISSUER"),
		},
		Mailbox: MailboxConfig{
			Addr:                getEnv("IMAP_ADDR", "imap.gmail.com:993"),
			User:                os.Getenv("EMAIL_USER"),
			Password:            os.Getenv("EMAIL_PASSWORD"),
			Mailbox:             getEnv("IMAP_MAILBOX", "INBOX"),
			TimeoutSeconds:      getEnvAsInt("IMAP_TIMEOUT_SECONDS", 30),
			SyncIntervalSeconds: getEnvAsInt("MAILBOX_SYNC_INTERVAL_SECONDS", 0),
			SyncWorkspaceID:     os.Getenv("MAILBOX_SYNC_WORKSPACE_ID"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			QueueSize:  getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
	}

	cfg.Logger.Fields = map[string]any{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
		"env":     cfg.App.Env,
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TeamIndexTTL returns how long a cached team index may be served.
func (r RedisConfig) TeamIndexTTL() time.Duration {
	if r.TeamIndexTTLSec <= 0 {
		return 0
	}
	return time.Duration(r.TeamIndexTTLSec) * time.Second
}

// Configured reports whether credentials for the feed are present.
func (m MailboxConfig) Configured() bool {
	return m.User != "" && m.Password != ""
}

// SyncInterval returns the background sync period, or 0 when disabled.
func (m MailboxConfig) SyncInterval() time.Duration {
	if m.SyncIntervalSeconds <= 0 || m.SyncWorkspaceID == "" {
		return 0
	}
	return time.Duration(m.SyncIntervalSeconds) * time.Second
}

// Timeout returns the per-command IMAP timeout.
func (m MailboxConfig) Timeout() time.Duration {
	if m.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
