package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"plexbridge/internal/config"
	"plexbridge/internal/logging"
	"plexbridge/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	logPath := filepath.Join(t.TempDir(), "run.log")

	logger, err := logging.NewFromConfig(&cfg, logPath, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("bridge started", logging.String(logging.FieldEventType, "bridge_started"))

	if got := readLog(t, logPath); !strings.Contains(got, "bridge started") {
		t.Fatalf("expected message in run log, got %q", got)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerHeaderCarriesComponentAndPlayer(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "bridge").Info("player updated",
		logging.String(logging.FieldPlayerID, "abc"),
		logging.String("status", "Playing"),
	)

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO [bridge] player abc: player updated") {
		t.Fatalf("unexpected header: %q", content)
	}
	if !strings.Contains(content, "    - status: Playing") {
		t.Fatalf("expected status bullet, got %q", content)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("fetch failed", logging.Int("players", 2))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg"} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %q key in %v", key, entry)
		}
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoggerRedactsTokens(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "redact.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(logging.String("art", "http://h:32400/a?X-Plex-Token=first-secret")).
		Info("calling http://h:32400/status/sessions?X-Plex-Token=second-secret",
			logging.Error(errors.New("GET http://h/x?X-Plex-Token=third-secret failed")),
		)

	content := readLog(t, logPath)
	for _, secret := range []string{"first-secret", "second-secret", "third-secret"} {
		if strings.Contains(content, secret) {
			t.Fatalf("token %q leaked into log: %q", secret, content)
		}
	}
	if !strings.Contains(content, "X-Plex-Token=[REDACTED]") {
		t.Fatalf("expected redaction marker, got %q", content)
	}
}

func TestRedact(t *testing.T) {
	got := logging.Redact(`<user authenticationToken="abc123" id="1">`)
	if strings.Contains(got, "abc123") {
		t.Fatalf("expected token removed, got %q", got)
	}
	if logging.Redact("plain text") != "plain text" {
		t.Fatal("plain text should pass through")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	hub := logging.NewStreamHub(8)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{filepath.Join(t.TempDir(), "ctx.log")}, Stream: hub})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithPlayerID(context.Background(), "player-1")
	ctx = services.WithTick(ctx, 3)
	ctx = services.WithRequestID(ctx, "corr")
	logging.WithContext(ctx, logger).Info("tick complete")

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.PlayerID != "player-1" || evt.Tick != 3 || evt.CorrelationID != "corr" {
		t.Fatalf("unexpected event fields: %+v", evt)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	hub := logging.NewStreamHub(8)
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{filepath.Join(t.TempDir(), "warn.log")}, Stream: hub})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "fetch failed", "sessions_fetch_failed")

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	fields := events[0].Fields
	if fields[logging.FieldEventType] != "sessions_fetch_failed" {
		t.Fatalf("unexpected event_type: %v", fields)
	}
	if fields[logging.FieldErrorHint] == "" || fields[logging.FieldImpact] == "" {
		t.Fatalf("expected default hint and impact, got %v", fields)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logger.Error("ignored")
}
