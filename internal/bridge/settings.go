package bridge

import (
	"plexbridge/internal/config"
	"plexbridge/internal/services/plex"
)

// SettingsFromConfig maps the loaded configuration onto bridge settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		Plex: plex.Settings{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			Token:        cfg.Server.Token,
			Username:     cfg.Server.Username,
			Password:     cfg.Server.Password,
			SignInURL:    cfg.Plex.SignInURL,
			ResourcesURL: cfg.Plex.ResourcesURL,
			Timeout:      cfg.RequestTimeout(),
		},
		RefreshInterval: cfg.RefreshInterval(),
		Notifications:   cfg.Server.Notifications,
	}
}
