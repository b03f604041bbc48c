package main

import (
	"encoding/json"
	"testing"

	"plexbridge/internal/daemonctl"
	"plexbridge/internal/testsupport"
)

func TestStartReportsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon already running")
}

func TestStatusShowsRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPlayers("den"))
	env.source.set(playingSession("den", "Pilot"))

	if _, _, err := runCLI(t, env.configPath, "refresh"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	out := waitForOutput(t, env.configPath, renderStatusLine("Active", statusOK, "1", false), "status")
	requireContains(t, out, "System Status")
	requireContains(t, out, "Plexbridge:")
	requireContains(t, out, "[OK] Running")
	requireContains(t, out, renderStatusLine("Registered", statusInfo, "1", false))
	requireContains(t, out, env.cfg.DatabasePath())
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status", "--json")
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var snap daemonctl.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !snap.Status.Running {
		t.Fatal("expected running status")
	}
	if snap.Status.SocketPath != env.cfg.SocketPath() {
		t.Fatalf("socket path = %q", snap.Status.SocketPath)
	}
	if len(snap.SystemChecks) == 0 {
		t.Fatal("expected system checks")
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	cfg := offlineConfig(t)
	configPath := testsupport.WriteConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "Plex Server:")
	requireContains(t, out, "not created yet")
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := offlineConfig(t)
	configPath := testsupport.WriteConfig(t, cfg)

	out, _, err := runCLI(t, configPath, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestCommandsRequireDaemon(t *testing.T) {
	cfg := offlineConfig(t)
	configPath := testsupport.WriteConfig(t, cfg)

	_, _, err := runCLI(t, configPath, "players", "list")
	if err == nil {
		t.Fatal("expected error without a daemon")
	}
	requireContains(t, err.Error(), "plexbridge start")
}
