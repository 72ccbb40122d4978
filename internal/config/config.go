package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"judolog/internal/crypto"
)

type Config struct {
	Env           string
	Port          string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     []byte
	EncryptionKey []byte
	BlindIndexKey []byte
	CORSOrigins   []string
	CacheTTL      time.Duration
}

func (c *Config) Development() bool { return c.Env == "development" }

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("CACHE_TTL", "5m")

	cfg := &Config{
		Env:         strings.ToLower(v.GetString("APP_ENV")),
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		RedisURL:    v.GetString("REDIS_URL"),
		JWTSecret:   []byte(v.GetString("JWT_SECRET")),
		CacheTTL:    v.GetDuration("CACHE_TTL"),
	}
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.CacheTTL <= 0 {
		return nil, errors.New("CACHE_TTL must be a positive duration")
	}
	if cfg.DatabaseURL != "" {
		var err error
		if cfg.EncryptionKey, err = crypto.DecodeKey(v.GetString("ENCRYPTION_KEY")); err != nil {
			return nil, errors.New("ENCRYPTION_KEY must be 32 bytes, base64 encoded")
		}
		if cfg.BlindIndexKey, err = crypto.DecodeKey(v.GetString("BLIND_INDEX_KEY")); err != nil {
			return nil, errors.New("BLIND_INDEX_KEY must be 32 bytes, base64 encoded")
		}
	}
	return cfg, nil
}
