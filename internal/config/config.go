package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            string `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quest struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"quest"`
	Scorer struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
		MaxEdge int    `yaml:"max_edge"`
		// StaticScore is nil when unset; an explicit 0 is kept.
		StaticScore *float64 `yaml:"static_score"`
	} `yaml:"scorer"`
	Images struct {
		Dir string `yaml:"dir"`
		S3  struct {
			Bucket string `yaml:"bucket"`
			Region string `yaml:"region"`
			Prefix string `yaml:"prefix"`
		} `yaml:"s3"`
	} `yaml:"images"`
	Reward struct {
		// Ledger is "store" or "redis".
		Ledger          string `yaml:"ledger"`
		InitialInterval string `yaml:"initial_interval"`
		MaxInterval     string `yaml:"max_interval"`
		MaxElapsed      string `yaml:"max_elapsed"`
	} `yaml:"reward"`
	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path, expanding ${VAR} references from the
// environment first.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Scorer.MaxEdge == 0 {
		c.Scorer.MaxEdge = 512
	}
	if c.Scorer.StaticScore == nil {
		score := 0.5
		c.Scorer.StaticScore = &score
	}
	if c.Images.Dir == "" {
		c.Images.Dir = "images"
	}
	if c.Reward.Ledger == "" {
		c.Reward.Ledger = "store"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "quest-events"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
