package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "STORAGE_DRIVER", "MIGRATE_ON_START",
		"USERS_FILE", "AUTH_JWT_SECRET", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR", "SLOT_CACHE_TTL",
		"WEBHOOK_ARCHIVE_BUCKET",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != defaultDatabaseURL {
		t.Fatalf("expected default database url, got %s", cfg.DatabaseURL)
	}
	if cfg.UseMemoryStore() {
		t.Fatalf("expected postgres storage by default")
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("expected migrations on start by default")
	}
	if cfg.UsersFile != "app/users.json" {
		t.Fatalf("expected default users file, got %s", cfg.UsersFile)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected redis disabled by default, got %s", cfg.RedisAddr)
	}
	if cfg.SlotCacheTTL != 30*time.Second {
		t.Fatalf("expected default slot cache ttl, got %s", cfg.SlotCacheTTL)
	}
	if cfg.AuthTokenTTL != 12*time.Hour {
		t.Fatalf("expected default token ttl, got %s", cfg.AuthTokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("STORAGE_DRIVER", " Memory ")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SLOT_CACHE_TTL", "2m")
	t.Setenv("LOGIN_RATE_PER_SEC", "0.5")
	t.Setenv("DB_MAX_CONNS", "25")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if !cfg.UseMemoryStore() {
		t.Fatalf("expected memory storage override")
	}
	if cfg.MigrateOnStart {
		t.Fatalf("expected migrations disabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Fatalf("expected slot cache ttl override, got %s", cfg.SlotCacheTTL)
	}
	if cfg.LoginRatePerSec != 0.5 {
		t.Fatalf("expected login rate override, got %v", cfg.LoginRatePerSec)
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("expected max conns override, got %d", cfg.DBMaxConns)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("SLOT_CACHE_TTL", "soon")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.DBMaxConns != 10 {
		t.Fatalf("expected fallback max conns, got %d", cfg.DBMaxConns)
	}
	if cfg.SlotCacheTTL != 30*time.Second {
		t.Fatalf("expected fallback ttl, got %s", cfg.SlotCacheTTL)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected redis tls fallback false")
	}
}
