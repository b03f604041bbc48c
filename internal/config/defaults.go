package config

const (
	defaultPort                     = 32400
	defaultRefreshInterval          = 5
	defaultRequestTimeoutMS         = 2000
	defaultSignInURL                = "https://plex.tv/users/sign_in.xml"
	defaultResourcesURL             = "https://plex.tv/api/resources?includeHttps=1"
	defaultProduct                  = "plexbridge"
	defaultDeviceName               = "plexbridge"
	defaultStateDir                 = "~/.local/share/plexbridge"
	defaultLogDir                   = "~/.local/share/plexbridge/logs"
	defaultLogRetentionDays         = 30
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultAPIBind                  = "127.0.0.1:7497"
	defaultNotifyRequestTimeout     = 10
	defaultNotifyDedupWindowSeconds = 300
	defaultConfigLocation           = "~/.config/plexbridge/config.toml"
	projectConfigName               = "plexbridge.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:             defaultPort,
			RefreshInterval:  defaultRefreshInterval,
			RequestTimeoutMS: defaultRequestTimeoutMS,
		},
		Plex: Plex{
			SignInURL:    defaultSignInURL,
			ResourcesURL: defaultResourcesURL,
			Product:      defaultProduct,
			DeviceName:   defaultDeviceName,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			Connectivity:       true,
			Playback:           false,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
