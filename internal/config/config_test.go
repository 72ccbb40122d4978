package config

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port: want=%q got=%q", "8080", cfg.Port)
	}
	if cfg.Env != "production" || cfg.Development() {
		t.Fatalf("Env: want=production got=%q", cfg.Env)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("CacheTTL: want=5m got=%s", cfg.CacheTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("Load: expected error, got nil")
	}
}

func TestLoadDatabaseRequiresKeys(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/judolog")
	t.Setenv("ENCRYPTION_KEY", "")
	t.Setenv("BLIND_INDEX_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("Load: expected error for missing keys")
	}

	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{9}, 32))
	t.Setenv("ENCRYPTION_KEY", key)
	t.Setenv("BLIND_INDEX_KEY", key)
	t.Setenv("CORS_ORIGINS", "https://app.judolog.io, capacitor://localhost")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.EncryptionKey) != 32 || len(cfg.BlindIndexKey) != 32 {
		t.Fatalf("keys: enc=%d blind=%d", len(cfg.EncryptionKey), len(cfg.BlindIndexKey))
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "capacitor://localhost" {
		t.Fatalf("CORSOrigins: got=%v", cfg.CORSOrigins)
	}
}
