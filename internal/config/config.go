// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Vision   VisionConfig   `mapstructure:"vision"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig contains entity store settings. The sqlite driver with an
// in-memory DSN is the default; postgres is available for durable deployments.
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig contains the sqlite DSN.
type SQLiteConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PostgresConfig contains PostgreSQL connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig contains the leaderboard cache settings.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

// UploadsConfig contains photo storage settings.
type UploadsConfig struct {
	Backend     string `mapstructure:"backend"` // "local" or "s3"
	Dir         string `mapstructure:"dir"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3KeyPrefix string `mapstructure:"s3_key_prefix"`
}

// VisionConfig contains image analysis provider settings.
type VisionConfig struct {
	Provider    string            `mapstructure:"provider"` // "gemini" or "rekognition"
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	Rekognition RekognitionConfig `mapstructure:"rekognition"`
}

// GeminiConfig contains Gemini API settings.
type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RekognitionConfig contains AWS Rekognition settings.
type RekognitionConfig struct {
	Region        string  `mapstructure:"region"`
	MinConfidence float32 `mapstructure:"min_confidence"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/wastenot/")
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.dsn", "file::memory:?cache=shared")
	v.SetDefault("redis.ttl", 60)
	v.SetDefault("uploads.backend", "local")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_size_mb", 5)
	v.SetDefault("vision.provider", "gemini")
	v.SetDefault("vision.gemini.model", "gemini-1.5-flash")
	v.SetDefault("vision.gemini.timeout_seconds", 30)
	v.SetDefault("vision.rekognition.min_confidence", 75)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Bind specific environment variables (explicit bindings for 12-factor app compliance)
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.sqlite.dsn", "SQLITE_DSN")
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")

	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("uploads.backend", "UPLOADS_BACKEND")
	_ = v.BindEnv("uploads.dir", "UPLOADS_DIR")
	_ = v.BindEnv("uploads.s3_bucket", "UPLOADS_S3_BUCKET")
	_ = v.BindEnv("uploads.s3_region", "UPLOADS_S3_REGION", "AWS_REGION")

	_ = v.BindEnv("vision.provider", "VISION_PROVIDER")
	_ = v.BindEnv("vision.gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("vision.gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("vision.rekognition.region", "REKOGNITION_REGION", "AWS_REGION")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.DSN == "" {
			return fmt.Errorf("database.sqlite.dsn is required")
		}
	case "postgres":
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if c.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Uploads.Backend {
	case "local":
		if c.Uploads.Dir == "" {
			return fmt.Errorf("uploads.dir is required")
		}
	case "s3":
		if c.Uploads.S3Bucket == "" {
			return fmt.Errorf("uploads.s3_bucket is required")
		}
	default:
		return fmt.Errorf("unsupported uploads backend %q", c.Uploads.Backend)
	}

	switch c.Vision.Provider {
	case "gemini":
		if c.Vision.Gemini.APIKey == "" {
			return fmt.Errorf("vision.gemini.api_key is required")
		}
	case "rekognition":
		if c.Vision.Rekognition.Region == "" {
			return fmt.Errorf("vision.rekognition.region is required")
		}
	default:
		return fmt.Errorf("unsupported vision provider %q", c.Vision.Provider)
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}

	return nil
}

// RedisAddr returns the host:port address of the redis server.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
