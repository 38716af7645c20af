// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database   DatabaseConfig   `json:"database"`
	Server     ServerConfig     `json:"server"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Cache      CacheConfig      `json:"cache"`
	Scheduler  SchedulerConfig  `json:"scheduler"`
	Delivery   DeliveryConfig   `json:"delivery"`
	Transport  TransportConfig  `json:"transport"`
	Admin      AdminConfig      `json:"admin"`
	Deployment DeploymentConfig `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host" env:"DB_HOST" envDefault:"localhost"`
	Port            int           `json:"port" env:"DB_PORT" envDefault:"5432"`
	Name            string        `json:"name" env:"DB_NAME" envDefault:"promo"`
	User            string        `json:"user" env:"DB_USER" envDefault:"postgres"`
	Password        string        `json:"-" env:"DB_PASSWORD"`
	SSLMode         string        `json:"ssl_mode" env:"DB_SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `json:"max_open_conns" env:"DB_POOL_MAX" envDefault:"20"`
	MaxIdleConns    int           `json:"max_idle_conns" env:"DB_POOL_MIN" envDefault:"5"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" envDefault:"15m"`
	AcquireTimeout  time.Duration `json:"acquire_timeout" env:"POOL_ACQUIRE_TIMEOUT" envDefault:"10s"`
	SlowQueryTime   time.Duration `json:"slow_query_time" env:"DB_SLOW_QUERY_TIME" envDefault:"1s"`
}

// DSN returns a libpq keyword/value connection string, usable by both gorm and pq.Listener
func (c DatabaseConfig) DSN() string {
	timeout := int(c.AcquireTimeout.Seconds())
	if timeout <= 0 {
		timeout = 10
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, timeout)
}

type ServerConfig struct {
	Host            string        `json:"host" env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `json:"port" env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `json:"read_timeout" env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `json:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	BodyLimit       int           `json:"body_limit" env:"SERVER_BODY_LIMIT" envDefault:"4194304"`
	AllowedOrigins  []string      `json:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimit       int           `json:"rate_limit" env:"GLOBAL_RATE_LIMIT" envDefault:"600"`
}

type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL" envDefault:"info"`       // debug, info, warn, error
	Format     string `json:"format" env:"LOG_FORMAT" envDefault:"json"`     // json, console
	Output     string `json:"output" env:"LOG_OUTPUT" envDefault:"stdout"`   // stdout, file, both
	FilePath   string `json:"file_path" env:"LOG_FILE_PATH" envDefault:"data/promo.log"`
	MaxSize    int    `json:"max_size" env:"LOG_MAX_SIZE" envDefault:"100"` // MB
	MaxBackups int    `json:"max_backups" env:"LOG_MAX_BACKUPS" envDefault:"10"`
	MaxAge     int    `json:"max_age" env:"LOG_MAX_AGE" envDefault:"30"` // days
	Compress   bool   `json:"compress" env:"LOG_COMPRESS" envDefault:"true"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `json:"path" env:"METRICS_PATH" envDefault:"/metrics"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled" env:"CACHE_ENABLED" envDefault:"true"`
	RedisURL    string        `json:"redis_url" env:"CACHE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix string        `json:"redis_prefix" env:"CACHE_REDIS_PREFIX" envDefault:"promo:"`
	StatsTTL    time.Duration `json:"stats_ttl" env:"STATS_CACHE_TTL" envDefault:"60s"`
	SettingsTTL time.Duration `json:"settings_ttl" env:"SETTINGS_CACHE_TTL" envDefault:"60s"`
}

type SchedulerConfig struct {
	Enabled               bool          `json:"enabled" env:"SCHEDULER_ENABLED" envDefault:"true"`
	Interval              time.Duration `json:"interval" env:"SCHEDULER_INTERVAL" envDefault:"30s"`
	QueueSize             int           `json:"queue_size" env:"SCHEDULER_QUEUE_SIZE" envDefault:"1000"`
	ShutdownGrace         time.Duration `json:"shutdown_grace" env:"SCHEDULER_SHUTDOWN_GRACE" envDefault:"30s"`
	PersistTimeout        time.Duration `json:"persist_timeout" env:"SCHEDULER_PERSIST_TIMEOUT" envDefault:"10s"`
	LockProvider          string        `json:"lock_provider" env:"SCHEDULER_LOCK_PROVIDER" envDefault:"postgres"` // postgres, redis
	LockTTL               time.Duration `json:"lock_ttl" env:"SCHEDULER_LOCK_TTL" envDefault:"30s"`
	ListenerMinReconnect  time.Duration `json:"listener_min_reconnect" env:"LISTENER_MIN_RECONNECT" envDefault:"10s"`
	ListenerMaxReconnect  time.Duration `json:"listener_max_reconnect" env:"LISTENER_MAX_RECONNECT" envDefault:"1m"`
	ListenerPingInterval  time.Duration `json:"listener_ping_interval" env:"LISTENER_PING_INTERVAL" envDefault:"90s"`
	SelectionPollInterval time.Duration `json:"selection_poll_interval" env:"RAFFLE_SELECTION_POLL_INTERVAL" envDefault:"200ms"`
	SelectionPollAttempts int           `json:"selection_poll_attempts" env:"RAFFLE_SELECTION_POLL_ATTEMPTS" envDefault:"25"`
}

type DeliveryConfig struct {
	MaxRetries      int           `json:"max_retries" env:"DELIVERY_MAX_RETRIES" envDefault:"3"`
	BaseBackoff     time.Duration `json:"base_backoff" env:"DELIVERY_BASE_BACKOFF" envDefault:"500ms"`
	MaxRetryAfter   time.Duration `json:"max_retry_after" env:"DELIVERY_MAX_RETRY_AFTER" envDefault:"5m"`
	PageSize        int           `json:"page_size" env:"BROADCAST_PAGE_SIZE" envDefault:"1000"`
	BatchSize       int           `json:"batch_size" env:"BROADCAST_BATCH_SIZE" envDefault:"25"`
	MessageDelay    time.Duration `json:"message_delay" env:"MESSAGE_DELAY" envDefault:"50ms"`
	CheckpointEvery int           `json:"checkpoint_every" env:"BROADCAST_CHECKPOINT_EVERY" envDefault:"100"`
}

// BatchDelay is the pause taken after every full broadcast batch
func (c DeliveryConfig) BatchDelay() time.Duration {
	return c.MessageDelay * time.Duration(c.BatchSize)
}

type TransportConfig struct {
	APIBaseURL string        `json:"api_base_url" env:"BOT_API_BASE_URL" envDefault:"https://api.telegram.org"`
	BotToken   string        `json:"-" env:"BOT_TOKEN"`
	Timeout    time.Duration `json:"timeout" env:"BOT_API_TIMEOUT" envDefault:"15s"`
}

type AdminConfig struct {
	Username     string        `json:"username" env:"ADMIN_USERNAME" envDefault:"admin"`
	PasswordHash string        `json:"-" env:"ADMIN_PASSWORD_HASH"`
	JWTSecret    string        `json:"-" env:"ADMIN_SECRET_KEY"`
	TokenTTL     time.Duration `json:"token_ttl" env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
	Issuer       string        `json:"issuer" env:"ADMIN_TOKEN_ISSUER" envDefault:"promo-engine"`
}

type DeploymentConfig struct {
	Environment string `json:"environment" env:"APP_ENV" envDefault:"production"`
	Version     string `json:"version" env:"VERSION" envDefault:"1.0.0"`
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Values already present in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := env.ParseAs[ProductionConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := ValidateProductionConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errs []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errs = append(errs, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errs = append(errs, "DB_USER is required")
	}
	if cfg.Database.MaxOpenConns < cfg.Database.MaxIdleConns {
		errs = append(errs, "DB_POOL_MAX must be greater than or equal to DB_POOL_MIN")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be between 1 and 65535")
	}

	// Validate scheduler configuration
	if cfg.Scheduler.Interval <= 0 {
		errs = append(errs, "SCHEDULER_INTERVAL must be positive")
	}
	if cfg.Scheduler.QueueSize <= 0 {
		errs = append(errs, "SCHEDULER_QUEUE_SIZE must be positive")
	}
	if !slices.Contains([]string{"postgres", "redis"}, cfg.Scheduler.LockProvider) {
		errs = append(errs, "SCHEDULER_LOCK_PROVIDER must be one of: postgres, redis")
	}
	if cfg.Scheduler.LockProvider == "redis" && (!cfg.Cache.Enabled || cfg.Cache.RedisURL == "") {
		errs = append(errs, "CACHE_REDIS_URL is required when SCHEDULER_LOCK_PROVIDER is redis")
	}

	// Validate delivery configuration
	if cfg.Delivery.MaxRetries < 1 {
		errs = append(errs, "DELIVERY_MAX_RETRIES must be at least 1")
	}
	if cfg.Delivery.PageSize <= 0 {
		errs = append(errs, "BROADCAST_PAGE_SIZE must be positive")
	}
	if cfg.Delivery.BatchSize <= 0 {
		errs = append(errs, "BROADCAST_BATCH_SIZE must be positive")
	}
	if cfg.Delivery.CheckpointEvery <= 0 {
		errs = append(errs, "BROADCAST_CHECKPOINT_EVERY must be positive")
	}

	// Validate transport configuration when the scheduler sends messages
	if cfg.Scheduler.Enabled && cfg.Transport.BotToken == "" {
		errs = append(errs, "BOT_TOKEN is required when the scheduler is enabled")
	}

	// Validate admin configuration
	if cfg.Admin.PasswordHash != "" && len(cfg.Admin.JWTSecret) < 32 {
		errs = append(errs, "ADMIN_SECRET_KEY must be at least 32 characters long")
	}

	// Validate logging configuration
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, cfg.Logging.Level) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
	}
	if !slices.Contains([]string{"stdout", "file", "both"}, cfg.Logging.Output) {
		errs = append(errs, "LOG_OUTPUT must be one of: stdout, file, both")
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errs = append(errs, "CACHE_REDIS_URL is required when cache is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
