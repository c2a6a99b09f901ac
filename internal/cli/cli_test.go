package cli

import (
	"bytes"
	"strings"
	"testing"

	"photo-quest-service/internal/app"
)

func TestPromptCommandPrintsBuiltInPrompt(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"prompt"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := strings.TrimSpace(out.String())
	found := false
	for _, p := range app.DefaultPrompts {
		if p == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestPromptCommandAll(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"prompt", "--all"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != len(app.DefaultPrompts) {
		t.Fatalf("expected %d prompts, got %d", len(app.DefaultPrompts), len(lines))
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "--config", "../../config/config.yaml"})
	t.Setenv("DATABASE_URL", "")
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "postgres url not configured") {
		t.Fatalf("expected missing postgres error, got %v", err)
	}
}
