package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "debug", "json")
	logger.WithField("quest_id", "q1").Debug("score recorded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if entry["quest_id"] != "q1" || entry["msg"] != "score recorded" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestTextLoggerAndLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "loud", "text")
	if logger.Level != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.Level)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
