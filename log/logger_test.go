package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_CarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("run-123").WithOutput(&buf)

	logger.Info("brick stored", map[string]any{"path": "verified_bricks/add"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if entry["run_id"] != "run-123" {
		t.Errorf("run_id = %v, want run-123", entry["run_id"])
	}
	if entry["message"] != "brick stored" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestLogger_WithBrick(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("run-123").WithOutput(&buf).WithBrick("add")

	logger.Debug("attempt validated", nil)

	if !strings.Contains(buf.String(), `"brick":"add"`) {
		t.Errorf("brick field missing: %s", buf.String())
	}
}

func TestNop_DiscardsEverything(t *testing.T) {
	// Must not panic or write anywhere.
	logger := Nop()
	logger.Info("ignored", nil)
	logger.Sugar().Infof("ignored %d", 1)
}
