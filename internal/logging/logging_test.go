package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew_JSONIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("body", "Earth")).Debug(context.Background(), "placed",
		Float64("x", 1.5), Int64("tick", 7), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "placed" || rec["body"] != "Earth" || rec["x"] != 1.5 || rec["error"] != "boom" {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "WARN", Output: &buf})
	log.Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn should be logged, got %q", buf.String())
	}
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "chatty", Output: &buf})
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWithRunLogger_KeepsRunID(t *testing.T) {
	var buf bytes.Buffer
	ctx, log := WithRunLogger(context.Background(), New(Config{Output: &buf}))
	id := RunID(ctx)
	if len(id) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", id)
	}

	ctx2, _ := WithRunLogger(ctx, Noop())
	if RunID(ctx2) != id {
		t.Fatalf("nested run logger replaced id %q with %q", id, RunID(ctx2))
	}

	FromContext(ctx).Info(ctx, "tick")
	log.Info(ctx, "tock")
	if strings.Count(buf.String(), "run_id="+id) != 2 {
		t.Fatalf("expected both records tagged with %s, got %q", id, buf.String())
	}
}

func TestFromContext_DefaultsToNoop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected a usable logger")
	}
	if RunID(context.Background()) != "" {
		t.Fatalf("expected no run id")
	}
}
