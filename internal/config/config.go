// Package config loads application configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/iliyamo/mission-reveal/internal/database"
	"github.com/iliyamo/mission-reveal/internal/storage"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable named in its envconfig tag.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"dev"`    // dev, test, prod
	Port     string `envconfig:"APP_PORT" default:"8080"`  // HTTP port to listen on
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // zerolog level name

	DBDriver    string `envconfig:"DB_DRIVER" default:"mysql"` // mysql or postgres
	DBUser      string `envconfig:"DB_USER" required:"true"`
	DBPass      string `envconfig:"DB_PASS"` // empty allowed
	DBHost      string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string `envconfig:"DB_PORT" default:"3306"`
	DBName      string `envconfig:"DB_NAME" required:"true"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	EncryptionKey     string `envconfig:"ENCRYPTION_KEY" required:"true"`      // field codec key material
	JWTSecret         string `envconfig:"JWT_SECRET" required:"true"`          // signs admin tokens
	AccessTTLMin      int    `envconfig:"ACCESS_TOKEN_TTL_MIN" default:"120"`  // admin token lifetime
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"` // bcrypt hash
	BcryptCost        int    `envconfig:"BCRYPT_COST" default:"12"`            // used by revealctl hash-password

	LLMBaseURL      string        `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	LLMAPIKey       string        `envconfig:"LLM_API_KEY"`
	LLMChatModel    string        `envconfig:"LLM_CHAT_MODEL" default:"gpt-4o-mini"`
	LLMExtractModel string        `envconfig:"LLM_EXTRACT_MODEL" default:"gpt-4o"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	GazetteerPath   string        `envconfig:"GAZETTEER_PATH"`

	RabbitURL     string `envconfig:"RABBITMQ_URL"`
	EventsEnabled bool   `envconfig:"EVENTS_ENABLED" default:"true"`
	EventLogPath  string `envconfig:"EVENT_LOG_PATH" default:"logs/reveal.log"`

	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3BaseEndpoint string `envconfig:"S3_BASE_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET"` // empty disables asset URLs
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if cfg.RabbitURL == "" {
		cfg.RabbitURL = os.Getenv("AMQP_URL")
	}
	switch cfg.DBDriver {
	case database.DriverMySQL, database.DriverPostgres:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	if cfg.AccessTTLMin <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL_MIN must be positive, got %d", cfg.AccessTTLMin)
	}
	return cfg, nil
}

// DBParams extracts the database connection settings.
func (c Config) DBParams() database.Params {
	return database.Params{
		Driver: c.DBDriver,
		User:   c.DBUser,
		Pass:   c.DBPass,
		Host:   c.DBHost,
		Port:   c.DBPort,
		Name:   c.DBName,
	}
}

// StorageOptions extracts the S3 settings.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Bucket:       c.S3Bucket,
	}
}

// AccessTTL is the admin token lifetime.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}
