package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable. Connection credentials are
// checked separately by ValidateConnection so CLI commands that only talk to
// the daemon can load a partial config.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateConnection checks the settings the bridge needs before it may
// bootstrap: a host and either a token or a complete username/password pair.
func (c *Config) ValidateConnection() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigLocation
		}
		return fmt.Errorf("server.host is required. Set PLEX_HOST env var or edit %s (create with 'plexbridge config init')", defaultPath)
	}
	if c.Server.Token != "" {
		return nil
	}
	if c.Server.Username == "" || c.Server.Password == "" {
		return errors.New("server.token or both server.username and server.password must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Server.RefreshInterval < 1 {
		return errors.New("server.refresh_interval must be at least 1 second")
	}
	if c.Server.RequestTimeoutMS <= 0 {
		return errors.New("server.request_timeout_ms must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.APIBind != "" {
		if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
			return fmt.Errorf("paths.api_bind: %w", err)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
}
