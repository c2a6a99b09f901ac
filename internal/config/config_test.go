package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("QUEST_PG_URL", "postgres://quest:secret@db:5432/quests")
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
postgres:
  url: ${QUEST_PG_URL}
scorer:
  url: http://clip:9000
  timeout: 3s
reward:
  ledger: redis
kafka:
  enabled: true
  brokers: ["kafka:9092"]
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.URL != "postgres://quest:secret@db:5432/quests" {
		t.Fatalf("env not expanded: %q", cfg.Postgres.URL)
	}
	if cfg.Server.Port != "8080" || cfg.Kafka.Topic != "quest-events" || cfg.Log.Format != "json" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Reward.Ledger != "redis" || len(cfg.Kafka.Brokers) != 1 {
		t.Fatalf("explicit values lost: %+v", cfg)
	}
	if got := TTLDuration(cfg.Scorer.Timeout, time.Second); got != 3*time.Second {
		t.Fatalf("expected 3s scorer timeout, got %s", got)
	}
	if cfg.Scorer.StaticScore == nil || *cfg.Scorer.StaticScore != 0.5 {
		t.Fatalf("expected static score default of 0.5, got %v", cfg.Scorer.StaticScore)
	}
}

func TestLoadKeepsExplicitZeroStaticScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scorer:\n  static_score: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scorer.StaticScore == nil || *cfg.Scorer.StaticScore != 0 {
		t.Fatalf("explicit zero static score was replaced: %v", cfg.Scorer.StaticScore)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %s", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %s", got)
	}
}
