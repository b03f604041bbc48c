package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"plexbridge/internal/bridge"
	"plexbridge/internal/config"
	"plexbridge/internal/services"
	"plexbridge/internal/services/plex"
)

const serverCheckTimeout = 15 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentials reports whether a host and a token or full credential
// pair are configured.
func CheckCredentials(cfg *config.Config) Result {
	const name = "Credentials"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if err := cfg.ValidateConnection(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if strings.TrimSpace(cfg.Server.Token) != "" {
		return Result{Name: name, Passed: true, Detail: "Token configured"}
	}
	return Result{Name: name, Passed: true, Detail: "Username and password configured"}
}

// CheckPlexServer bootstraps a connection with the configured settings and
// fetches the session list once over it.
func CheckPlexServer(ctx context.Context, cfg *config.Config) Result {
	const name = "Plex server"
	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	clientID, err := plex.NewIdentityStore(cfg.ClientStatePath()).LoadOrCreate()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client identity unavailable (%v)", err)}
	}
	identity := plex.Identity{
		ClientIdentifier: clientID,
		Product:          cfg.Plex.Product,
		DeviceName:       cfg.Plex.DeviceName,
	}

	checkCtx, cancel := context.WithTimeout(ctx, serverCheckTimeout)
	defer cancel()

	connector := plex.NewConnector(bridge.SettingsFromConfig(cfg).Plex, identity, nil, nil)
	conn, err := connector.Bootstrap(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeServerError(err)}
	}
	snap, err := connector.FetchSessions(checkCtx, conn)
	if err != nil {
		return Result{Name: name, Detail: summarizeServerError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable at %s (%d active sessions)", conn.BaseURL(), snap.Size)}
}

// CheckNotifications reports whether ntfy delivery is configured.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured"}
	}
	return Result{Name: name, Passed: true, Detail: "ntfy topic configured"}
}

func summarizeServerError(err error) string {
	switch {
	case errors.Is(err, services.ErrAuthentication):
		return fmt.Sprintf("authentication failed (%v)", err)
	case errors.Is(err, services.ErrConfiguration):
		return fmt.Sprintf("configuration error (%v)", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out (server unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out (server unreachable)"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
