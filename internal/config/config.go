// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "murmur-dev-secret-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env             string `mapstructure:"APP_ENV"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogRepoOps      bool   `mapstructure:"LOG_REPO_OPERATIONS"`
	LogStreamEvents bool   `mapstructure:"LOG_STREAM_EVENTS"`

	StoreBackend       string `mapstructure:"STORE_BACKEND"`
	StorePath          string `mapstructure:"STORE_PATH"`
	FirestoreProjectID string `mapstructure:"FIRESTORE_PROJECT_ID"`
	MongoURI           string `mapstructure:"MONGO_URI"`
	MongoDatabase      string `mapstructure:"MONGO_DATABASE"`

	BlobBackend       string `mapstructure:"BLOB_BACKEND"`
	BlobRoot          string `mapstructure:"BLOB_ROOT"`
	BlobPublicBaseURL string `mapstructure:"BLOB_PUBLIC_BASE_URL"`
	AWSRegion         string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID    string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey      string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3BucketPrefix    string `mapstructure:"S3_BUCKET_PREFIX"`

	PrefsBackend string `mapstructure:"PREFS_BACKEND"`
	PrefsPath    string `mapstructure:"PREFS_PATH"`
	RedisURL     string `mapstructure:"REDIS_URL"`

	SessionPath     string `mapstructure:"SESSION_PATH"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`

	ConnectivityProbeAddr       string `mapstructure:"CONNECTIVITY_PROBE_ADDR"`
	ConnectivityIntervalSeconds int    `mapstructure:"CONNECTIVITY_INTERVAL_SECONDS"`

	TracingEnabled bool `mapstructure:"TRACING_ENABLED"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.murmur")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config.%s.yml: %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "warn")
	viper.SetDefault("LOG_REPO_OPERATIONS", true)
	viper.SetDefault("LOG_STREAM_EVENTS", true)
	viper.SetDefault("STORE_BACKEND", "memory")
	viper.SetDefault("STORE_PATH", "./.murmur/store.yml")
	viper.SetDefault("FIRESTORE_PROJECT_ID", "")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "murmur")
	viper.SetDefault("BLOB_BACKEND", "local")
	viper.SetDefault("BLOB_ROOT", "./.murmur/blobs")
	viper.SetDefault("BLOB_PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_BUCKET_PREFIX", "")
	viper.SetDefault("PREFS_BACKEND", "file")
	viper.SetDefault("PREFS_PATH", "./.murmur/prefs.yml")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("SESSION_PATH", "./.murmur/session")
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("SESSION_TTL_HOURS", 24*30)
	viper.SetDefault("CONNECTIVITY_PROBE_ADDR", "1.1.1.1:443")
	viper.SetDefault("CONNECTIVITY_INTERVAL_SECONDS", 5)
	viper.SetDefault("TRACING_ENABLED", false)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.BlobBackend = strings.ToLower(strings.TrimSpace(c.BlobBackend))
	c.PrefsBackend = strings.ToLower(strings.TrimSpace(c.PrefsBackend))
	c.BlobPublicBaseURL = strings.TrimRight(strings.TrimSpace(c.BlobPublicBaseURL), "/")
}

// IsProduction reports whether the configuration targets production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SessionTTL returns the lifetime of a login session.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// ConnectivityInterval returns the connectivity probe interval.
func (c *Config) ConnectivityInterval() time.Duration {
	return time.Duration(c.ConnectivityIntervalSeconds) * time.Second
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "firestore":
		if c.FirestoreProjectID == "" {
			return errors.New("FIRESTORE_PROJECT_ID is required for the firestore store backend")
		}
	case "mongo":
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo store backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.BlobBackend {
	case "local", "memory":
	case "s3":
		if c.AWSRegion == "" {
			return errors.New("AWS_REGION is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}

	switch c.PrefsBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown PREFS_BACKEND %q", c.PrefsBackend)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionTTLHours <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.ConnectivityIntervalSeconds <= 0 {
		return errors.New("CONNECTIVITY_INTERVAL_SECONDS must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.StoreBackend == "memory" {
			log.Println("WARNING: STORE_BACKEND is 'memory' in production. Nothing will be persisted.")
		}
	}

	return nil
}
