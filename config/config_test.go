package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	v, err := LoadConfig("does-not-exist")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	v.Set("database.dsn", "host=localhost dbname=test")

	cfg, err := ParseConfig(v)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	if cfg.Auth.NonceTTL != 5*time.Minute {
		t.Fatalf("nonce TTL %v, want 5m", cfg.Auth.NonceTTL)
	}
	if cfg.Auth.NonceRateLimit != 5 {
		t.Fatalf("rate limit %d, want 5", cfg.Auth.NonceRateLimit)
	}
	if cfg.Auth.NonceRateWindow != time.Minute {
		t.Fatalf("rate window %v, want 1m", cfg.Auth.NonceRateWindow)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port %s, want 8080", cfg.Server.Port)
	}
}

func TestMissingDSN(t *testing.T) {
	v, err := LoadConfig("does-not-exist")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, err := ParseConfig(v); err == nil {
		t.Fatalf("expected error for missing DSN")
	}
}
