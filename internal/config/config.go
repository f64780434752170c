package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Session struct {
		HeartbeatInterval   string `yaml:"heartbeat_interval"`
		MaxMissedHeartbeats int    `yaml:"max_missed_heartbeats"`
		PersistRetries      int    `yaml:"persist_retries"`
		CodeAttempts        int    `yaml:"code_attempts"`
		SnapshotTTL         string `yaml:"snapshot_ttl"`
	} `yaml:"session"`
	Auth struct {
		JWTSecret string   `yaml:"jwt_secret"`
		TokenTTL  string   `yaml:"token_ttl"`
		AdminIDs  []string `yaml:"admin_ids"`
	} `yaml:"auth"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
