package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.normalizePlex()
	c.normalizePlayers()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		if value, ok := os.LookupEnv("PLEX_HOST"); ok {
			c.Server.Host = strings.TrimSpace(value)
		}
	}
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.Token == "" {
		if value, ok := os.LookupEnv("PLEX_TOKEN"); ok {
			c.Server.Token = strings.TrimSpace(value)
		}
	}
	c.Server.Username = strings.TrimSpace(c.Server.Username)
	if c.Server.Username == "" {
		if value, ok := os.LookupEnv("PLEX_USERNAME"); ok {
			c.Server.Username = strings.TrimSpace(value)
		}
	}
	if c.Server.Password == "" {
		if value, ok := os.LookupEnv("PLEX_PASSWORD"); ok {
			c.Server.Password = value
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.RefreshInterval == 0 {
		c.Server.RefreshInterval = defaultRefreshInterval
	}
	if c.Server.RequestTimeoutMS == 0 {
		c.Server.RequestTimeoutMS = defaultRequestTimeoutMS
	}
}

func (c *Config) normalizePlex() {
	c.Plex.SignInURL = strings.TrimSpace(c.Plex.SignInURL)
	if c.Plex.SignInURL == "" {
		c.Plex.SignInURL = defaultSignInURL
	}
	c.Plex.ResourcesURL = strings.TrimSpace(c.Plex.ResourcesURL)
	if c.Plex.ResourcesURL == "" {
		c.Plex.ResourcesURL = defaultResourcesURL
	}
	c.Plex.Product = strings.TrimSpace(c.Plex.Product)
	if c.Plex.Product == "" {
		c.Plex.Product = defaultProduct
	}
	c.Plex.DeviceName = strings.TrimSpace(c.Plex.DeviceName)
	if c.Plex.DeviceName == "" {
		if host, err := os.Hostname(); err == nil && strings.TrimSpace(host) != "" {
			c.Plex.DeviceName = host
		} else {
			c.Plex.DeviceName = defaultDeviceName
		}
	}
}

func (c *Config) normalizePlayers() {
	if len(c.Players.IDs) == 0 {
		return
	}
	ids := make([]string, 0, len(c.Players.IDs))
	seen := make(map[string]struct{}, len(c.Players.IDs))
	for _, id := range c.Players.IDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	c.Players.IDs = ids
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("PLEXBRIDGE_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
