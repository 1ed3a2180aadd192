package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Ledger   LedgerConfig
	Sync     SyncConfig
	Queue    QueueConfig
	Dispatch DispatchConfig
	Pricing  PricingConfig
	HTTP     HTTPConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret          string
	TokenExpiration time.Duration
	Issuer          string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// LedgerConfig holds external ledger API settings
type LedgerConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// SyncConfig holds reconciliation sync settings
type SyncConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
}

// QueueConfig holds dispatch queue worker settings
type QueueConfig struct {
	WorkerEnabled       bool
	BatchSize           int
	PollInterval        time.Duration
	RelayPollInterval   time.Duration
	MaintenanceInterval time.Duration
	CompletedRetention  time.Duration
	// BackoffMode selects the retry delay strategy: exponential or fixed
	BackoffMode string
	// InitialDelay holds back the first delivery of a published job
	InitialDelay time.Duration
	// JobExpiration dead-letters jobs not completed within the window
	JobExpiration time.Duration
	// VisibilityTimeout is how long a claimed job may sit in processing
	// before maintenance redelivers it
	VisibilityTimeout time.Duration
}

// DispatchConfig holds order dispatch settings
type DispatchConfig struct {
	MaxRetries         int
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
}

// PricingConfig holds storefront pricing settings
type PricingConfig struct {
	// MarkupPct is the resale margin applied at the markup stage of the
	// catalog price breakdown, as a percentage.
	MarkupPct float64
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with B2B_ prefix (e.g., B2B_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars cover it
	}

	v.SetEnvPrefix("B2B")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Boolean defaults must be registered before Get, a zero value is
	// indistinguishable from an unset key otherwise
	v.SetDefault("dispatch.idempotency_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			TokenExpiration: v.GetDuration("jwt.token_expiration"),
			Issuer:          v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Ledger: LedgerConfig{
			BaseURL:        v.GetString("ledger.base_url"),
			Token:          v.GetString("ledger.token"),
			TimeoutSeconds: v.GetInt("ledger.timeout_seconds"),
		},
		Sync: SyncConfig{
			Enabled:  v.GetBool("sync.enabled"),
			Interval: v.GetDuration("sync.interval"),
			Timeout:  v.GetDuration("sync.timeout"),
		},
		Queue: QueueConfig{
			WorkerEnabled:       v.GetBool("queue.worker_enabled"),
			BatchSize:           v.GetInt("queue.batch_size"),
			PollInterval:        v.GetDuration("queue.poll_interval"),
			RelayPollInterval:   v.GetDuration("queue.relay_poll_interval"),
			MaintenanceInterval: v.GetDuration("queue.maintenance_interval"),
			CompletedRetention:  v.GetDuration("queue.completed_retention"),
			BackoffMode:         v.GetString("queue.backoff_mode"),
			InitialDelay:        v.GetDuration("queue.initial_delay"),
			JobExpiration:       v.GetDuration("queue.job_expiration"),
			VisibilityTimeout:   v.GetDuration("queue.visibility_timeout"),
		},
		Dispatch: DispatchConfig{
			MaxRetries:         v.GetInt("dispatch.max_retries"),
			IdempotencyEnabled: v.GetBool("dispatch.idempotency_enabled"),
			IdempotencyTTL:     v.GetDuration("dispatch.idempotency_ttl"),
		},
		Pricing: PricingConfig{
			MarkupPct: v.GetFloat64("pricing.markup_pct"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "b2bstore-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "b2bstore"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.TokenExpiration == 0 {
		cfg.JWT.TokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "b2bstore"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Ledger.TimeoutSeconds == 0 {
		cfg.Ledger.TimeoutSeconds = 120
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 1 * time.Hour
	}
	if cfg.Sync.Timeout == 0 {
		cfg.Sync.Timeout = 15 * time.Minute
	}
	if cfg.Queue.BatchSize == 0 {
		cfg.Queue.BatchSize = 50
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = 5 * time.Second
	}
	if cfg.Queue.RelayPollInterval == 0 {
		cfg.Queue.RelayPollInterval = 2 * time.Second
	}
	if cfg.Queue.MaintenanceInterval == 0 {
		cfg.Queue.MaintenanceInterval = 1 * time.Hour
	}
	if cfg.Queue.CompletedRetention == 0 {
		cfg.Queue.CompletedRetention = 7 * 24 * time.Hour
	}
	if cfg.Queue.BackoffMode == "" {
		cfg.Queue.BackoffMode = "exponential"
	}
	if cfg.Queue.InitialDelay == 0 {
		cfg.Queue.InitialDelay = 2 * time.Second
	}
	if cfg.Queue.JobExpiration == 0 {
		cfg.Queue.JobExpiration = 24 * time.Hour
	}
	if cfg.Queue.VisibilityTimeout == 0 {
		cfg.Queue.VisibilityTimeout = 10 * time.Minute
	}
	if cfg.Dispatch.MaxRetries == 0 {
		cfg.Dispatch.MaxRetries = 5
	}
	if cfg.Dispatch.IdempotencyTTL == 0 {
		cfg.Dispatch.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
}

// validate checks configuration consistency
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Dispatch.MaxRetries <= 0 {
		return fmt.Errorf("dispatch.max_retries must be positive")
	}
	switch c.Queue.BackoffMode {
	case "exponential", "fixed":
	default:
		return fmt.Errorf("queue.backoff_mode must be exponential or fixed, got %q", c.Queue.BackoffMode)
	}
	if c.Pricing.MarkupPct < 0 {
		return fmt.Errorf("pricing.markup_pct cannot be negative")
	}
	if c.Sync.Enabled && c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync.interval must be at least one minute")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Ledger.BaseURL == "" {
			return fmt.Errorf("ledger.base_url is required in production")
		}
		if c.Ledger.Token == "" {
			return fmt.Errorf("ledger.token is required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis connection
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
