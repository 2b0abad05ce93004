package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func load(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	return LoadConfig()
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := load(t, "http:\n  addr: \":3001\"\n")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Fatalf("store backend default: %q", cfg.Store.Backend)
	}
	if cfg.Logging.Service != "darkwire-server" || cfg.Logging.Env != "dev" || cfg.Logging.Backend != "std" {
		t.Fatalf("logging defaults: %+v", cfg.Logging)
	}
	if cfg.Relay.Timeout() != 10*time.Second {
		t.Fatalf("relay timeout default: %v", cfg.Relay.Timeout())
	}
	if cfg.Store.TTL() != 0 {
		t.Fatalf("room ttl default: %v", cfg.Store.TTL())
	}
}

func TestLoadConfigRequiresAddr(t *testing.T) {
	if _, err := load(t, "logging:\n  env: dev\n"); err == nil {
		t.Fatalf("expected error for missing http.addr")
	}
}

func TestLoadConfigRedisBackendNeedsAddr(t *testing.T) {
	yaml := "http:\n  addr: \":3001\"\nstore:\n  backend: redis\n"
	if _, err := load(t, yaml); err == nil {
		t.Fatalf("expected error for redis backend without addr")
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	yaml := "http:\n  addr: \":3001\"\nstore:\n  backend: etcd\n"
	if _, err := load(t, yaml); err == nil {
		t.Fatalf("expected error for unknown store backend")
	}
}

func TestLoadConfigParsesDurations(t *testing.T) {
	yaml := "http:\n  addr: \":3001\"\nstore:\n  roomTtl: 24h\nrelay:\n  fetchTimeout: 3s\n"
	cfg, err := load(t, yaml)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.TTL() != 24*time.Hour {
		t.Fatalf("room ttl: %v", cfg.Store.TTL())
	}
	if cfg.Relay.Timeout() != 3*time.Second {
		t.Fatalf("fetch timeout: %v", cfg.Relay.Timeout())
	}
}
