package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	UploadDir   string   `mapstructure:"UPLOAD_DIR"`
	MaxFileSize int64    `mapstructure:"MAX_FILE_SIZE"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	AuthSecret  string   `mapstructure:"AUTH_SECRET"`
}

// DefaultMaxFileSize is the upload size cap applied when MAX_FILE_SIZE is
// not configured (5 MiB).
const DefaultMaxFileSize = 5 * 1024 * 1024

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_FILE_SIZE", DefaultMaxFileSize)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("MAX_FILE_SIZE")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production the
// server refuses to start without an AUTH_SECRET, since every request would
// otherwise be unauthenticated.
func (c *Config) Validate() error {
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR must not be empty")
	}
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	return nil
}
