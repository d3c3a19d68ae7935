package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	IDs          IDConfig
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

// HTTPConfig holds transport-level knobs that are not tied to the bind address.
type HTTPConfig struct {
	AllowedOrigins []string
	PublicDir      string
}

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// StoreConfig selects the document store backend and lock behavior.
type StoreConfig struct {
	Backend            string
	LockTTLSeconds     int
	LockWaitMillis     int
	UseDistributedLock bool
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

// MongoConfig holds MongoDB connection values.
type MongoConfig struct {
	URI             string
	Database        string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	// AllowStandalone lets the store run without multi-document
	// transactions when the server is not a replica set member.
	AllowStandalone bool
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level          string
	File           string
	RotateHours    int
	MaxAgeHours    int
	DevelopmentLog bool
}

// AuthConfig defines identity provider parameters.
type AuthConfig struct {
	JWTSecret             string
	Issuer                string
	AccessTokenTTLMinutes int
	BcryptCost            int
	MinPasswordLength     int
	// Bootstrap admin created at startup when email and password are set.
	AdminEmail            string
	AdminPassword         string
	AdminUsername         string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// ID strategies.
const (
	IDStrategyUUID      = "uuid"
	IDStrategyKSUID     = "ksuid"
	IDStrategySnowflake = "snowflake"
)

// IDConfig selects how document identifiers are generated.
type IDConfig struct {
	Strategy      string
	SnowflakeNode int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	// PORT is what most PaaS hosts inject; APP_PORT wins when both are set.
	port := getEnv("APP_PORT", getEnv("PORT", "8080"))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  port,
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "*")),
			PublicDir:      getEnv("PUBLIC_DIR", "public"),
		},
		Store: StoreConfig{
			Backend:            strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
			LockTTLSeconds:     getEnvAsInt("STORE_LOCK_TTL_SECONDS", 10),
			LockWaitMillis:     getEnvAsInt("STORE_LOCK_WAIT_MILLIS", 5000),
			UseDistributedLock: getEnvAsBool("STORE_DISTRIBUTED_LOCK", true),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Mongo: MongoConfig{
			URI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:        getEnv("MONGO_DATABASE", "complaints"),
			MaxPoolSize:     uint64(getEnvAsInt("MONGO_MAX_POOL_SIZE", 100)),
			MinPoolSize:     uint64(getEnvAsInt("MONGO_MIN_POOL_SIZE", 10)),
			AllowStandalone: getEnvAsBool("MONGO_ALLOW_STANDALONE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:          getEnv("LOG_LEVEL", "info"),
			File:           os.Getenv("LOG_FILE"),
			RotateHours:    getEnvAsInt("LOG_ROTATE_HOURS", 24),
			MaxAgeHours:    getEnvAsInt("LOG_MAX_AGE_HOURS", 24*7),
			DevelopmentLog: getEnvAsBool("LOG_DEV", false),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			Issuer:                getEnv("AUTH_ISSUER", "complaint-service"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MinPasswordLength:     getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 6),
			AdminEmail:            getEnv("ADMIN_EMAIL", ""),
			AdminPassword:         getEnv("ADMIN_PASSWORD", ""),
			AdminUsername:         getEnv("ADMIN_USERNAME", "admin"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		IDs: IDConfig{
			Strategy:      strings.ToLower(getEnv("ID_STRATEGY", IDStrategyUUID)),
			SnowflakeNode: int64(getEnvAsInt("SNOWFLAKE_NODE", 1)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_BACKEND=%s", BackendPostgres)
		}
	case BackendMongo:
		if !strings.HasPrefix(c.Mongo.URI, "mongodb://") && !strings.HasPrefix(c.Mongo.URI, "mongodb+srv://") {
			return fmt.Errorf("invalid MONGO_URI %q", c.Mongo.URI)
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("MONGO_DATABASE is required when STORE_BACKEND=%s", BackendMongo)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.IDs.Strategy {
	case IDStrategyUUID, IDStrategyKSUID, IDStrategySnowflake:
	default:
		return fmt.Errorf("unknown ID_STRATEGY %q", c.IDs.Strategy)
	}

	if c.App.Env == "production" && c.Auth.JWTSecret == "dev-secret" {
		return fmt.Errorf("AUTH_JWT_SECRET must be set in production")
	}
	return nil
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

// LockTTL bounds how long a coordinator lock may be held.
func (s StoreConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// LockWait bounds how long a caller waits to acquire a coordinator lock.
func (s StoreConfig) LockWait() time.Duration {
	if s.LockWaitMillis <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.LockWaitMillis) * time.Millisecond
}

// AllowsAnyOrigin reports whether CORS is fully open.
func (h HTTPConfig) AllowsAnyOrigin() bool {
	return len(h.AllowedOrigins) == 1 && h.AllowedOrigins[0] == "*"
}

func parseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
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
