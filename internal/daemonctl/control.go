package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"plexbridge/internal/api"
	"plexbridge/internal/config"
	"plexbridge/internal/daemonrun"
	"plexbridge/internal/ipc"
	"plexbridge/internal/preflight"
	"plexbridge/internal/store"
)

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
	StartStateRequested      StartState = "start_requested"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	Message  string
}

// Launch starts a detached plexbridge daemon process in its own session.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon process when its socket is absent and
// asks it to start the bridge when it is idle.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	statusResp, statusErr := client.Status()
	if statusErr == nil && statusResp != nil && statusResp.Running {
		if launched {
			return StartResult{State: StartStateStarted, Launched: true}, nil
		}
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	resp, err := client.Start()
	if err != nil {
		return StartResult{}, err
	}
	message := strings.TrimSpace(resp.Message)
	if resp.Started {
		return StartResult{State: StartStateStarted, Launched: launched, Message: message}, nil
	}
	if message != "" {
		return StartResult{State: StartStateRequested, Launched: launched, Message: message}, nil
	}
	return StartResult{State: StartStateRequested, Launched: launched, Message: "Start request sent"}, nil
}

// WaitForShutdown waits for daemon IPC to disappear.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		_ = client.Close()
		lastErr = fmt.Errorf("daemon still running")
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// ProcessAlive reports whether a process with pid exists.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// ReadPID returns the pid recorded in path, or 0 when absent.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, nil
	}
	return pid, nil
}

// ForceKillProcess sends SIGKILL to the daemon process and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		pid = fallbackPID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if ProcessAlive(pid) {
		if err := unix.Kill(pid, unix.SIGKILL); err != nil {
			return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
		}
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// StopAndTerminate requests daemon stop and force-kills the process if still
// alive after gracePeriod.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	socketPath := cfg.SocketPath()
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid := 0
	if statusResp, statusErr := client.Status(); statusErr == nil && statusResp != nil {
		pid = statusResp.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp.Stopped}

	if err := WaitForShutdown(socketPath, gracePeriod); err == nil {
		return result, nil
	}
	if !ProcessAlive(pid) {
		return result, nil
	}
	killedPID, killErr := ForceKillProcess(daemonrun.PIDPath(cfg), cfg.LockPath(), pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Snapshot is the status view rendered by the CLI.
type Snapshot struct {
	Status       ipc.StatusResponse
	SystemChecks []api.StatusLine
}

// BuildStatusSnapshot collects daemon status and applies offline fallbacks
// for history and server reachability when the daemon is not reachable.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{}
	reachable := false

	if client, err := ipc.Dial(cfg.SocketPath()); err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snap.Status = *resp
			reachable = true
		}
	}

	if !reachable {
		snap.Status.DatabasePath = cfg.DatabasePath()
		snap.Status.LockFilePath = cfg.LockPath()
		snap.Status.SocketPath = cfg.SocketPath()
		snap.Status.History = offlineHistory(ctx, cfg)
	}

	snap.SystemChecks = BuildSystemChecks(ctx, cfg, snap.Status, reachable)
	return snap, nil
}

func offlineHistory(ctx context.Context, cfg *config.Config) api.HistoryStatus {
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := os.Stat(cfg.DatabasePath()); err != nil {
		return api.HistoryStatus{Path: cfg.DatabasePath(), Error: "not created yet"}
	}
	st, err := store.OpenPath(cfg.DatabasePath())
	if err != nil {
		return api.HistoryStatus{Path: cfg.DatabasePath(), Error: err.Error()}
	}
	defer st.Close()
	health, err := st.CheckHealth(queryCtx)
	status := api.FromHealth(health)
	if err != nil {
		status.Path = cfg.DatabasePath()
		status.Error = err.Error()
	}
	return status
}

// BuildSystemChecks resolves status lines that combine runtime state and
// config checks. The server line probes Plex directly only when the daemon
// cannot report it.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, status ipc.StatusResponse, daemonReachable bool) []api.StatusLine {
	lines := make([]api.StatusLine, 0, 5)
	switch {
	case status.Running:
		lines = append(lines, api.StatusLine{Label: "Plexbridge", Severity: "ok", Detail: "Running"})
	case daemonReachable:
		lines = append(lines, api.StatusLine{Label: "Plexbridge", Severity: "warn", Detail: "Idle (bridge failed to start; fix config and run `plexbridge start`)"})
	default:
		lines = append(lines, api.StatusLine{Label: "Plexbridge", Severity: "warn", Detail: "Not running (run `plexbridge start`)"})
	}

	if daemonReachable {
		lines = append(lines, serverLine(status.Server))
	} else {
		creds := preflight.CheckCredentials(cfg)
		if !creds.Passed {
			lines = append(lines, api.StatusLine{Label: "Plex Server", Severity: "error", Detail: creds.Detail})
		} else {
			check := preflight.CheckPlexServer(ctx, cfg)
			severity := "warn"
			if check.Passed {
				severity = "ok"
			}
			lines = append(lines, api.StatusLine{Label: "Plex Server", Severity: severity, Detail: check.Detail})
		}
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		lines = append(lines, api.StatusLine{Label: "Notifications", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, api.StatusLine{Label: "Notifications", Severity: "info", Detail: "Not configured"})
	}

	if status.History.Error != "" {
		lines = append(lines, api.StatusLine{Label: "History", Severity: "warn", Detail: status.History.Error})
	} else {
		lines = append(lines, api.StatusLine{
			Label:    "History",
			Severity: "ok",
			Detail:   fmt.Sprintf("%d players, %d events (schema %s)", status.History.Players, status.History.PlayerEvents, status.History.SchemaVersion),
		})
	}

	if bind := strings.TrimSpace(status.APIBind); bind != "" {
		lines = append(lines, api.StatusLine{Label: "HTTP API", Severity: "ok", Detail: bind})
	} else if strings.TrimSpace(cfg.Paths.APIBind) == "" {
		lines = append(lines, api.StatusLine{Label: "HTTP API", Severity: "info", Detail: "Disabled"})
	}
	return lines
}

func serverLine(server api.ServerStatus) api.StatusLine {
	switch {
	case server.Online:
		detail := "Online"
		if server.Server != "" {
			detail = "Online at " + server.Server
		}
		return api.StatusLine{Label: "Plex Server", Severity: "ok", Detail: detail}
	case server.ErrorKind == "configuration" || server.ErrorKind == "authentication":
		return api.StatusLine{Label: "Plex Server", Severity: "error", Detail: server.Detail}
	case server.Detail != "":
		return api.StatusLine{Label: "Plex Server", Severity: "warn", Detail: "Offline: " + server.Detail}
	default:
		return api.StatusLine{Label: "Plex Server", Severity: "info", Detail: "Awaiting first poll"}
	}
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
