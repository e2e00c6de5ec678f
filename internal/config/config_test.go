package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	if cfg.Server.Port != "3001" {
		t.Fatalf("default port want 3001 got %s", cfg.Server.Port)
	}
	if cfg.Client.Storage.Driver != "sqlite" {
		t.Fatalf("default storage driver want sqlite got %s", cfg.Client.Storage.Driver)
	}
	if cfg.Client.Timeout() != 15*time.Second {
		t.Fatalf("default timeout want 15s got %s", cfg.Client.Timeout())
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := []byte("client:\n  api_base_url: http://shop.local/api\n  storage:\n    driver: memory\nredis:\n  port: 6380\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	cfg := LoadFile(path)
	if cfg.Client.APIBaseURL != "http://shop.local/api" {
		t.Fatalf("unexpected api base url: %s", cfg.Client.APIBaseURL)
	}
	if cfg.Client.Storage.Driver != "memory" {
		t.Fatalf("unexpected storage driver: %s", cfg.Client.Storage.Driver)
	}
	if cfg.Redis.Addr() != "127.0.0.1:6380" {
		t.Fatalf("unexpected redis addr: %s", cfg.Redis.Addr())
	}
}

func TestClientTimeoutZero(t *testing.T) {
	if (ClientConfig{}).Timeout() != 0 {
		t.Fatalf("zero timeout seconds should disable timeout")
	}
}
