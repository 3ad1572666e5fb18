package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// QueryStrategy selects how a role's inbox source is queried from the backend.
type QueryStrategy string

const (
	// QueryByStatus filters each role's query by the statuses the role may see.
	QueryByStatus QueryStrategy = "status"
	// QueryByAssignee filters each role's query by assignedto = role name.
	QueryByAssignee QueryStrategy = "assignee"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Inbox    InboxConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Audit    AuditConfig
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

// BackendConfig points at the document-management backend.
type BackendConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RecordType        string
	DocumentType      string
	ChangeRequestType string
	// OrganizationID is the org unit whose children are offered as users.
	OrganizationID string
}

// InboxConfig tunes the inbox fan-out.
type InboxConfig struct {
	QueryStrategy QueryStrategy
	QueryTimeout  time.Duration
	PageSize      int
	MaxPages      int
	ViewIdleTTL   time.Duration
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session parameters.
type AuthConfig struct {
	JWTSecret     string
	SessionSecret string
	SessionTTL    time.Duration
}

// AuditConfig controls the inbox audit trail.
type AuditConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	strategy := QueryStrategy(strings.ToLower(getEnv("INBOX_QUERY_STRATEGY", string(QueryByStatus))))
	if strategy != QueryByStatus && strategy != QueryByAssignee {
		return nil, fmt.Errorf("invalid INBOX_QUERY_STRATEGY: %q", strategy)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dcr-inbox"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Backend: BackendConfig{
			BaseURL:           strings.TrimRight(os.Getenv("BACKEND_BASE_URL"), "/"),
			Timeout:           getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
			RecordType:        getEnv("BACKEND_RECORD_TYPE", "crchangerequestnewdoc"),
			DocumentType:      getEnv("BACKEND_DOCUMENT_TYPE", "published"),
			ChangeRequestType: getEnv("BACKEND_CHANGE_REQUEST_TYPE", "crchangerequestnewdoc"),
			OrganizationID:    getEnv("BACKEND_ORGANIZATION_ID", ""),
		},
		Inbox: InboxConfig{
			QueryStrategy: strategy,
			QueryTimeout:  getEnvAsDuration("INBOX_QUERY_TIMEOUT", 10*time.Second),
			PageSize:      getEnvAsInt("INBOX_PAGE_SIZE", 100),
			MaxPages:      getEnvAsInt("INBOX_MAX_PAGES", 50),
			ViewIdleTTL:   getEnvAsDuration("INBOX_VIEW_IDLE_TTL", 30*time.Minute),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "dcr-inbox"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionSecret: getEnv("AUTH_SESSION_SECRET", "dev-session-secret"),
			SessionTTL:    getEnvAsDuration("AUTH_SESSION_TTL", 8*time.Hour),
		},
		Audit: AuditConfig{
			Enabled: getEnvAsBool("AUDIT_ENABLED", true),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
