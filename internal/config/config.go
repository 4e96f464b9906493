// Package config loads the directory proxy configuration from app.env and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Directory DirectoryConfig
	Cache     CacheConfig
	Redis     RedisConfig
	App       AppConfig
	Logger    LoggerConfig
}

// DirectoryConfig holds configuration for the upstream directory API
type DirectoryConfig struct {
	BaseURL      string        `mapstructure:"DIRECTORY_BASE_URL" validate:"required,url"`
	Endpoint     string        `mapstructure:"DIRECTORY_ENDPOINT" validate:"required,startswith=/"`
	UserAgent    string        `mapstructure:"USER_AGENT" validate:"required"`
	FetchTimeout time.Duration `mapstructure:"FETCH_TIMEOUT" validate:"gt=0"`
	MaxRetries   int           `mapstructure:"MAX_RETRIES" validate:"gte=0,lte=10"`
}

// CacheConfig holds configuration for the result cache and pagination
type CacheConfig struct {
	StaleAfter   time.Duration `mapstructure:"CACHE_STALE_AFTER" validate:"gte=0"`
	ItemsPerPage int           `mapstructure:"ITEMS_PER_PAGE" validate:"gt=0,lte=500"`
}

// RedisConfig holds configuration for the HTTP validator store.
// An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	DB        int           `mapstructure:"REDIS_DB" validate:"gte=0"`
	Retention time.Duration `mapstructure:"REDIS_RETENTION" validate:"gte=0"`
}

// AppConfig holds configuration for the HTTP server
type AppConfig struct {
	HTTPPort string `mapstructure:"HTTP_PORT" validate:"required,numeric"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	Pretty bool   `mapstructure:"LOG_PRETTY"`
	File   string `mapstructure:"LOG_FILE"`
}

// Enabled reports whether the validator store is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Load reads configuration from path/app.env, overridden by environment
// variables, and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.Directory.BaseURL = v.GetString("DIRECTORY_BASE_URL")
	config.Directory.Endpoint = v.GetString("DIRECTORY_ENDPOINT")
	config.Directory.UserAgent = v.GetString("USER_AGENT")
	config.Directory.FetchTimeout = v.GetDuration("FETCH_TIMEOUT")
	config.Directory.MaxRetries = v.GetInt("MAX_RETRIES")

	config.Cache.StaleAfter = v.GetDuration("CACHE_STALE_AFTER")
	config.Cache.ItemsPerPage = v.GetInt("ITEMS_PER_PAGE")

	config.Redis.Addr = v.GetString("REDIS_ADDR")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.Retention = v.GetDuration("REDIS_RETENTION")

	config.App.HTTPPort = v.GetString("HTTP_PORT")

	config.Logger.Level = strings.ToLower(v.GetString("LOG_LEVEL"))
	config.Logger.Pretty = v.GetBool("LOG_PRETTY")
	config.Logger.File = v.GetString("LOG_FILE")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DIRECTORY_BASE_URL", "")
	v.SetDefault("DIRECTORY_ENDPOINT", "/users")
	v.SetDefault("USER_AGENT", "directory-client/0.1.0")
	v.SetDefault("FETCH_TIMEOUT", "10s")
	v.SetDefault("MAX_RETRIES", 2) // 3 attempts in total

	v.SetDefault("CACHE_STALE_AFTER", "5m")
	v.SetDefault("ITEMS_PER_PAGE", 10)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_RETENTION", "24h")

	v.SetDefault("HTTP_PORT", "8080")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("LOG_FILE", "")
}
