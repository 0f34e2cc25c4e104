package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultSecretKey                = "secret"
	DefaultAccessTokenExpireMinutes = 30
)

type Config struct {
	ServerPort int `env:"SERVER_PORT" envDefault:"8080"`
	Database   DatabaseConfig
	Auth       AuthConfig
	Log        LogConfig
	MQ         MQConfig
	Storage    StorageConfig
}

type DatabaseConfig struct {
	// URL selects the driver by scheme: postgres:// or sqlite:///path.
	URL         string `env:"DATABASE_URL" envDefault:"sqlite:///./todo.db"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	SecretKey string `env:"SECRET_KEY" envDefault:"secret"`
	// AccessTokenExpireMinutes falls back to the default on missing or
	// unparsable input instead of failing startup, see LoadConfig.
	AccessTokenExpireMinutes int `env:"-"`
	RefreshTokenExpireDays   int `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
	// RejectRefreshAsAccess stops refresh tokens from authorizing API
	// calls. Off by default.
	RejectRefreshAsAccess bool `env:"AUTH_REJECT_REFRESH_AS_ACCESS" envDefault:"false"`
	BcryptCost            int  `env:"BCRYPT_COST" envDefault:"10"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type MQConfig struct {
	// Backend is one of "", "rabbitmq" or "pubsub". Empty disables task events.
	Backend           string `env:"MQ_BACKEND"`
	TaskEventsChannel string `env:"TASK_EVENTS_CHANNEL" envDefault:"task-events"`
	RabbitMQ          RabbitMQConfig
	PubSub            PubSubConfig
}

type RabbitMQConfig struct {
	URL           string `env:"RABBITMQ_URL"`
	PrefetchCount int    `env:"RABBITMQ_PREFETCH_COUNT" envDefault:"10"`
	// Durable makes the event exchange survive broker restarts and marks
	// published events persistent.
	Durable bool `env:"RABBITMQ_DURABLE" envDefault:"true"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
	// OrderedDelivery keeps each user's events in publish order.
	OrderedDelivery bool `env:"PUBSUB_ORDERED_DELIVERY" envDefault:"true"`
}

type StorageConfig struct {
	// Backend is one of "", "minio" or "gcs". Empty disables task exports.
	Backend string `env:"STORAGE_BACKEND"`
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"todo-exports"`
	Region    string `env:"MINIO_REGION" envDefault:"us-east-1"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

// LoadConfig reads the process environment once. In dev mode a local .env
// file is loaded first.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Auth.AccessTokenExpireMinutes = getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", DefaultAccessTokenExpireMinutes)

	cfg.MQ.Backend = strings.ToLower(strings.TrimSpace(cfg.MQ.Backend))
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	return cfg, nil
}

// AccessTokenTTL is the lifetime of access tokens.
func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RefreshTokenTTL is the lifetime of refresh tokens.
func (c AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// UsesDefaultSecret reports whether SECRET_KEY was left at its default.
func (c AuthConfig) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey
}

func getEnvInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
