package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Messaging   MessagingConfig
	Lock        LockConfig
	Idempotency IdempotencyConfig
	Upload      UploadConfig
	Telemetry   TelemetryConfig
	Seed        SeedConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// MessagingConfig selects the broker and names the topics of the pipeline
type MessagingConfig struct {
	Driver          string // memory, pubsub
	ProjectID       string
	CredentialsJSON string
	CreateTopics    bool
	Workers         int
	PublishTimeout  time.Duration

	RawDataTopic               string
	ProcessedDataTopic         string
	InvoiceRequestsTopic       string
	InvoiceDataTopic           string
	RawDataSubscription        string
	InvoiceRequestSubscription string
}

// LockConfig holds distributed upsert lock settings
type LockConfig struct {
	Enabled bool
	TTL     time.Duration
	Wait    time.Duration
}

// IdempotencyConfig holds redelivery dedupe settings
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// UploadConfig holds batch upload settings
type UploadConfig struct {
	MaxSize        int64
	ArchiveEnabled bool
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3Prefix       string
	S3AccessKey    string
	S3SecretKey    string
	S3PathStyle    bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
}

// SeedConfig controls loading of the reference business units
type SeedConfig struct {
	Enabled bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MDM_ prefix (e.g., MDM_DATABASE_PASSWORD)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mdm")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("seed.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Messaging: MessagingConfig{
			Driver:                     v.GetString("messaging.driver"),
			ProjectID:                  v.GetString("messaging.project_id"),
			CredentialsJSON:            v.GetString("messaging.credentials_json"),
			CreateTopics:               v.GetBool("messaging.create_topics"),
			Workers:                    v.GetInt("messaging.workers"),
			PublishTimeout:             v.GetDuration("messaging.publish_timeout"),
			RawDataTopic:               v.GetString("messaging.raw_data_topic"),
			ProcessedDataTopic:         v.GetString("messaging.processed_data_topic"),
			InvoiceRequestsTopic:       v.GetString("messaging.invoice_requests_topic"),
			InvoiceDataTopic:           v.GetString("messaging.invoice_data_topic"),
			RawDataSubscription:        v.GetString("messaging.raw_data_subscription"),
			InvoiceRequestSubscription: v.GetString("messaging.invoice_request_subscription"),
		},
		Lock: LockConfig{
			Enabled: v.GetBool("lock.enabled"),
			TTL:     v.GetDuration("lock.ttl"),
			Wait:    v.GetDuration("lock.wait"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("idempotency.enabled"),
			TTL:     v.GetDuration("idempotency.ttl"),
		},
		Upload: UploadConfig{
			MaxSize:        v.GetInt64("upload.max_size"),
			ArchiveEnabled: v.GetBool("upload.archive_enabled"),
			S3Bucket:       v.GetString("upload.s3_bucket"),
			S3Region:       v.GetString("upload.s3_region"),
			S3Endpoint:     v.GetString("upload.s3_endpoint"),
			S3Prefix:       v.GetString("upload.s3_prefix"),
			S3AccessKey:    v.GetString("upload.s3_access_key"),
			S3SecretKey:    v.GetString("upload.s3_secret_key"),
			S3PathStyle:    v.GetBool("upload.s3_path_style"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Seed: SeedConfig{
			Enabled: v.GetBool("seed.enabled"),
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
		cfg.App.Name = "mdm-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
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
		cfg.Database.DBName = "mdm"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "mdm.db"
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
		cfg.Database.ConnMaxIdleTime = 10
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Messaging.Driver == "" {
		cfg.Messaging.Driver = "memory"
	}
	if cfg.Messaging.Workers == 0 {
		cfg.Messaging.Workers = 4
	}
	if cfg.Messaging.PublishTimeout == 0 {
		cfg.Messaging.PublishTimeout = 30 * time.Second
	}
	if cfg.Messaging.RawDataTopic == "" {
		cfg.Messaging.RawDataTopic = "raw-data"
	}
	if cfg.Messaging.ProcessedDataTopic == "" {
		cfg.Messaging.ProcessedDataTopic = "processed-data"
	}
	if cfg.Messaging.InvoiceRequestsTopic == "" {
		cfg.Messaging.InvoiceRequestsTopic = "invoice-requests"
	}
	if cfg.Messaging.InvoiceDataTopic == "" {
		cfg.Messaging.InvoiceDataTopic = "invoice-data"
	}
	if cfg.Messaging.RawDataSubscription == "" {
		cfg.Messaging.RawDataSubscription = "mdm-raw-data"
	}
	if cfg.Messaging.InvoiceRequestSubscription == "" {
		cfg.Messaging.InvoiceRequestSubscription = "mdm-invoice-requests"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 10 * time.Second
	}
	if cfg.Lock.Wait == 0 {
		cfg.Lock.Wait = 2 * time.Second
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 20 << 20
	}
	if cfg.Upload.S3Prefix == "" {
		cfg.Upload.S3Prefix = "uploads"
	}
	if cfg.Upload.S3Region == "" {
		cfg.Upload.S3Region = "us-east-1"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "mdm-service"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
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

	switch c.Messaging.Driver {
	case "memory":
	case "pubsub":
		if c.Messaging.ProjectID == "" {
			return fmt.Errorf("messaging.project_id is required for the pubsub driver")
		}
	default:
		return fmt.Errorf("messaging.driver must be memory or pubsub, got %q", c.Messaging.Driver)
	}
	if c.Messaging.Workers < 1 {
		return fmt.Errorf("messaging.workers must be positive")
	}

	if c.Lock.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("lock.enabled requires redis.enabled")
	}
	if c.Upload.ArchiveEnabled && c.Upload.S3Bucket == "" {
		return fmt.Errorf("upload.s3_bucket is required when upload.archive_enabled is true")
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "sqlite" {
			return fmt.Errorf("database.driver cannot be sqlite in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
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

// URL returns the golang-migrate database URL. SQLite databases use the
// sqlite3 scheme with the configured file path.
func (d *DatabaseConfig) URL() string {
	if d.Driver == "sqlite" {
		return "sqlite3://" + d.SQLitePath
	}
	return d.DSN()
}

// Addr returns host:port for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
