package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FTPTimeout != 30*time.Second {
		t.Fatalf("expected default ftp timeout 30s, got %v", cfg.FTPTimeout)
	}
	if cfg.HTTPRetryAttempts != 3 {
		t.Fatalf("expected default retry attempts 3, got %d", cfg.HTTPRetryAttempts)
	}
	if cfg.PriceCacheTTL != 24*time.Hour {
		t.Fatalf("expected default cache ttl 24h, got %v", cfg.PriceCacheTTL)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("HTTP_TIMEOUT", "30 seconds")

	if _, err := Load(); err == nil {
		t.Fatal("expected malformed HTTP_TIMEOUT to fail loading")
	}
}

func TestLoadRejectsMalformedInt(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	t.Setenv("FTP_MAX_RETRIES", "mange")

	if _, err := Load(); err == nil {
		t.Fatal("expected malformed FTP_MAX_RETRIES to fail loading")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail loading")
	}
}
