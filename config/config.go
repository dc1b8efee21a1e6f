package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	// Database configuration
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"plateful"`
	DBSSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`

	// Redis configuration. RedisURL takes precedence when set.
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisURL      string `env:"REDIS_URL"`

	// JWT configuration
	JWTSecret string `env:"JWT_SECRET"`

	// Recipe image storage. When S3Bucket is empty, images are written
	// to MediaDir on local disk.
	S3Bucket  string `env:"S3_BUCKET_NAME"`
	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`
	MediaDir  string `env:"MEDIA_DIR" envDefault:"./media"`

	// Domain bounds
	MinCookingTime      int `env:"MIN_COOKING_TIME" envDefault:"1"`
	MaxCookingTime      int `env:"MAX_COOKING_TIME" envDefault:"32000"`
	MinIngredientAmount int `env:"MIN_INGREDIENT_AMOUNT" envDefault:"1"`
	MaxIngredientAmount int `env:"MAX_INGREDIENT_AMOUNT" envDefault:"32000"`

	// Pagination defaults
	PageSize     int `env:"PAGE_SIZE" envDefault:"6"`
	RecipesLimit int `env:"RECIPES_LIMIT" envDefault:"3"`
}

// secretOverrides maps Docker secret file names to the config fields they
// replace. Secrets win over environment variables when present.
var secretOverrides = map[string]func(*Config, string){
	"db_user":        func(c *Config, v string) { c.DBUser = v },
	"db_password":    func(c *Config, v string) { c.DBPassword = v },
	"redis_password": func(c *Config, v string) { c.RedisPassword = v },
	"jwt_secret":     func(c *Config, v string) { c.JWTSecret = v },
}

// LoadConfig creates a Config from environment variables, applies Docker
// secrets where present and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	applySecrets(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applySecrets(cfg *Config) {
	for name, set := range secretOverrides {
		if value := readSecret(name); value != "" {
			set(cfg, value)
		}
	}
}

// readSecret reads a Docker secret from the secrets directory.
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// Validate checks that required values are set and bounds are sane.
func (c *Config) Validate() error {
	var errs []string

	if c.JWTSecret == "" && GetEnvironment() == Production {
		errs = append(errs, "JWT_SECRET is required in production")
	}
	if c.DBPassword == "" && GetEnvironment() == Production {
		errs = append(errs, "DB_PASSWORD is required in production")
	}
	if c.MinCookingTime < 1 || c.MaxCookingTime < c.MinCookingTime {
		errs = append(errs, "cooking time bounds are invalid")
	}
	if c.MinIngredientAmount < 1 || c.MaxIngredientAmount < c.MinIngredientAmount {
		errs = append(errs, "ingredient amount bounds are invalid")
	}
	if c.PageSize < 1 {
		errs = append(errs, "PAGE_SIZE must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
