package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // darkwire-server
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Store struct {
	Backend  string   `yaml:"backend"` // redis|postgres|memory
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	RoomTTL  string   `yaml:"roomTtl"` // optional expiry for abandoned rooms, e.g. "24h"
}

type Relay struct {
	FetchTimeout  string `yaml:"fetchTimeout"`  // e.g. "10s"
	MaxFetchBytes int64  `yaml:"maxFetchBytes"` // response size cap for image downloads
}

type Audit struct {
	BookmarkURL string `yaml:"bookmarkUrl"` // empty disables join bookmarks
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Logging Logging `yaml:"logging"`
	Store   Store   `yaml:"store"`
	Relay   Relay   `yaml:"relay"`
	Audit   Audit   `yaml:"audit"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	switch c.Store.Backend {
	case "":
		c.Store.Backend = "memory"
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required")
		}
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("store.backend %q is not one of redis|postgres|memory", c.Store.Backend)
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "darkwire-server"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

// TTL returns the configured room expiry, or zero for none.
func (s Store) TTL() time.Duration {
	return parseDurationOr(0, s.RoomTTL)
}

func (r Relay) Timeout() time.Duration {
	return parseDurationOr(10*time.Second, r.FetchTimeout)
}

func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
