package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/organizator/organizator/pkg/observability"
	"github.com/organizator/organizator/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Security configuration
	Security SecurityConfig

	// Audit configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig

	// AccessPolicy holds per-operation minimum access levels, loaded from
	// the YAML file named by ORGANIZATOR_ACCESS_POLICY_FILE when set.
	AccessPolicy AccessPolicy
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SecurityConfig holds authentication and session settings.
type SecurityConfig struct {
	// RootUserID is the user id allowed to change other users' passwords.
	RootUserID int

	// MaxConcurrentHashes bounds in-flight password derivations.
	MaxConcurrentHashes int

	// SecureCookies marks session cookies Secure. Disable only for local
	// development over plain HTTP.
	SecureCookies bool

	// LoginAttemptsPerWindow and LoginWindow bound login attempts per
	// client IP. Zero attempts disables limiting.
	LoginAttemptsPerWindow int
	LoginWindow            time.Duration
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// RetentionDays is how long audit events are kept. Zero disables the
	// retention job.
	RetentionDays int

	// CleanupSchedule is the cron expression for the retention job.
	CleanupSchedule string

	// FileDir, when set, mirrors audit events to rotated JSON-lines files
	// in this directory alongside the database trail.
	FileDir string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Security:      loadSecurityConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
		AccessPolicy:  DefaultAccessPolicy(),
	}

	if policyFile := getEnv("ORGANIZATOR_ACCESS_POLICY_FILE", ""); policyFile != "" {
		policy, err := LoadAccessPolicy(policyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load access policy: %w", err)
		}
		cfg.AccessPolicy = policy
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("ORGANIZATOR_HOST", "0.0.0.0"),
		Port:            getEnv("ORGANIZATOR_PORT", "8080"),
		ReadTimeout:     getEnvDuration("ORGANIZATOR_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("ORGANIZATOR_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("ORGANIZATOR_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("ORGANIZATOR_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("ORGANIZATOR_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("ORGANIZATOR_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}
	if fsRoot := getEnv("ORGANIZATOR_FILESTORE_ROOT", ""); fsRoot != "" {
		cfg.FilesystemRoot = fsRoot
	}

	// PostgreSQL config
	if pgURL := getEnv("ORGANIZATOR_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if replicaURLs := getEnv("ORGANIZATOR_POSTGRES_REPLICA_URLS", ""); replicaURLs != "" {
		cfg.PostgresReplicaURLs = replicaURLs
	}
	if maxConns := getEnvInt("ORGANIZATOR_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("ORGANIZATOR_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("ORGANIZATOR_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	// S3 config
	if s3Endpoint := getEnv("ORGANIZATOR_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("ORGANIZATOR_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("ORGANIZATOR_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3AccessKey := getEnv("ORGANIZATOR_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("ORGANIZATOR_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	if s3UsePathStyle := getEnv("ORGANIZATOR_S3_USE_PATH_STYLE", ""); s3UsePathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(s3UsePathStyle) == "true"
	}

	// Redis config
	if redisURL := getEnv("ORGANIZATOR_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("ORGANIZATOR_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("ORGANIZATOR_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("ORGANIZATOR_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("ORGANIZATOR_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	return cfg
}

// loadSecurityConfig loads security configuration from environment
func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		RootUserID:             getEnvInt("ORGANIZATOR_ROOT_USER_ID", 1),
		MaxConcurrentHashes:    getEnvInt("ORGANIZATOR_MAX_CONCURRENT_HASHES", 4),
		SecureCookies:          getEnvBool("ORGANIZATOR_SECURE_COOKIES", true),
		LoginAttemptsPerWindow: getEnvInt("ORGANIZATOR_LOGIN_ATTEMPTS_PER_WINDOW", 10),
		LoginWindow:            getEnvDuration("ORGANIZATOR_LOGIN_WINDOW", time.Minute),
	}
}

// loadAuditConfig loads audit configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		RetentionDays:   getEnvInt("ORGANIZATOR_AUDIT_RETENTION_DAYS", 90),
		CleanupSchedule: getEnv("ORGANIZATOR_AUDIT_CLEANUP_SCHEDULE", "0 3 * * *"),
		FileDir:         getEnv("ORGANIZATOR_AUDIT_FILE_DIR", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("ORGANIZATOR_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("ORGANIZATOR_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("ORGANIZATOR_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("ORGANIZATOR_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("ORGANIZATOR_OTEL_SERVICE_NAME", "organizator"),
		OTelServiceVersion: getEnv("ORGANIZATOR_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("ORGANIZATOR_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	switch c.Storage.Type {
	case "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filestore root is required for filesystem storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be filesystem or s3)", c.Storage.Type)
	}

	if c.Security.RootUserID <= 0 {
		return fmt.Errorf("root user id must be positive")
	}
	if c.Security.MaxConcurrentHashes <= 0 {
		return fmt.Errorf("max concurrent hashes must be positive")
	}
	if c.Security.LoginAttemptsPerWindow > 0 && c.Security.LoginWindow <= 0 {
		return fmt.Errorf("login window must be positive when login limiting is enabled")
	}

	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit retention days must not be negative")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
