package main

import (
	"strings"
	"testing"
	"time"

	"plexbridge/internal/api"
	"plexbridge/internal/logging"
)

func TestLogsCommandPrintsRecentEvents(t *testing.T) {
	env := setupCLITestEnv(t)
	env.hub.Publish(logging.LogEvent{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     "INFO",
		Message:   "poll complete",
		Component: "poller",
		Fields:    map[string]string{"players": "2"},
	})

	out, _, err := runCLI(t, env.configPath, "logs", "-n", "5")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "[poller] poll complete players=2")

	env.hub.Publish(logging.LogEvent{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC),
		Level:     "INFO",
		Message:   "player state changed",
		PlayerID:  "den",
	})
	out, _, err = runCLI(t, env.configPath, "logs", "--player", "den")
	if err != nil {
		t.Fatalf("logs --player: %v", err)
	}
	requireContains(t, out, "player=den player state changed")
	if strings.Contains(out, "poll complete") {
		t.Fatalf("expected player filter to drop other events:\n%s", out)
	}
}

func TestFormatLogEvent(t *testing.T) {
	got := formatLogEvent(api.LogEvent{
		Timestamp: "2026-01-02T03:04:05.000Z",
		Level:     "warn",
		Message:   "fetch failed",
		Component: "bridge",
		PlayerID:  "den",
		Fields:    map[string]string{"b": "2", "a": "1"},
	})
	want := "2026-01-02T03:04:05.000Z WARN  [bridge] player=den fetch failed a=1 b=2"
	if got != want {
		t.Fatalf("formatLogEvent = %q, want %q", got, want)
	}
}
