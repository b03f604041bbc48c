package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"plexbridge/internal/api"
	"plexbridge/internal/ipc"
	"plexbridge/internal/testsupport"
)

func TestProcessAlive(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Fatal("current process should be alive")
	}
	if ProcessAlive(0) || ProcessAlive(-1) {
		t.Fatal("non-positive pids are never alive")
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	missing, err := ReadPID(filepath.Join(dir, "missing.pid"))
	if err != nil || missing != 0 {
		t.Fatalf("missing file: pid=%d err=%v", missing, err)
	}

	path := filepath.Join(dir, "plexbridge.pid")
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pid, err := ReadPID(path)
	if err != nil || pid != 4242 {
		t.Fatalf("pid=%d err=%v", pid, err)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if pid, _ := ReadPID(path); pid != 0 {
		t.Fatalf("garbage pid parsed as %d", pid)
	}
}

func TestForceKillRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	if _, err := ForceKillProcess(filepath.Join(dir, "none.pid"), "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill current process")
	}
	if _, err := ForceKillProcess(filepath.Join(dir, "none.pid"), "", 0); err == nil {
		t.Fatal("expected error without a pid")
	}
}

func TestStopAndTerminateNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := StopAndTerminate(cfg, 100*time.Millisecond); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForShutdownWithoutSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := WaitForShutdown(cfg.SocketPath(), 100*time.Millisecond); err != nil {
		t.Fatalf("expected immediate success, got %v", err)
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Host = ""

	snap, err := BuildStatusSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.Status.Running {
		t.Fatal("daemon should not be running")
	}
	if snap.Status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("database path = %q", snap.Status.DatabasePath)
	}
	if snap.Status.History.Error == "" {
		t.Fatal("expected history error before the database exists")
	}

	labels := map[string]api.StatusLine{}
	for _, line := range snap.SystemChecks {
		labels[line.Label] = line
	}
	if line := labels["Plexbridge"]; !strings.Contains(line.Detail, "Not running") {
		t.Fatalf("daemon line: %+v", line)
	}
	if line := labels["Plex Server"]; line.Severity != "error" {
		t.Fatalf("server line: %+v", line)
	}
	if line := labels["History"]; line.Severity != "warn" {
		t.Fatalf("history line: %+v", line)
	}
}

func TestBuildSystemChecksFromDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithNtfyTopic("https://ntfy.example/plex"))
	status := ipc.StatusResponse{
		Running: true,
		APIBind: "127.0.0.1:7497",
		Server:  api.ServerStatus{Online: true, Server: "https://10.0.0.5:32400"},
		History: api.HistoryStatus{Players: 2, PlayerEvents: 9, SchemaVersion: "1"},
	}
	lines := BuildSystemChecks(context.Background(), cfg, status, true)
	want := map[string]string{
		"Plexbridge":    "ok",
		"Plex Server":   "ok",
		"Notifications": "ok",
		"History":       "ok",
		"HTTP API":      "ok",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %+v", len(lines), lines)
	}
	for _, line := range lines {
		if want[line.Label] != line.Severity {
			t.Fatalf("line %q severity %q", line.Label, line.Severity)
		}
	}
}

func TestServerLine(t *testing.T) {
	cases := []struct {
		server   api.ServerStatus
		severity string
	}{
		{api.ServerStatus{Online: true}, "ok"},
		{api.ServerStatus{ErrorKind: "authentication", Detail: "rejected"}, "error"},
		{api.ServerStatus{ErrorKind: "unreachable", Detail: "connection refused"}, "warn"},
		{api.ServerStatus{}, "info"},
	}
	for _, tc := range cases {
		if got := serverLine(tc.server); got.Severity != tc.severity {
			t.Fatalf("serverLine(%+v) = %+v", tc.server, got)
		}
	}
}
