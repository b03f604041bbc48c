package plex

import (
	"context"
	"strings"

	"plexbridge/internal/logging"
	"plexbridge/internal/services"
)

// Bootstrap settles the token and scheme for the configured server.
//
// A configured token skips sign-in. Otherwise username and password are
// exchanged for a token, and a failed exchange is an authentication error.
// With neither a token nor complete credentials Bootstrap fails with a
// configuration error. Scheme resolution failures are logged and fall back to
// http.
func (c *Connector) Bootstrap(ctx context.Context) (*Connection, error) {
	s := c.settings
	host := strings.TrimSpace(s.Host)
	if host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "plex", "bootstrap", "server host is required", nil)
	}
	conn := &Connection{Scheme: "http", Host: host, Port: s.Port}

	switch {
	case strings.TrimSpace(s.Token) != "":
		conn.Token = strings.TrimSpace(s.Token)
	case s.Username != "" && s.Password != "":
		token, err := c.SignIn(ctx, s.Username, s.Password)
		if err != nil {
			return nil, services.Wrap(services.ErrAuthentication, "plex", "sign in", "credential exchange failed", err)
		}
		conn.Token = token
		c.logger.Info("plex sign-in succeeded",
			logging.String(logging.FieldEventType, "plex_signin"),
			logging.String("username", s.Username),
		)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "plex", "bootstrap", "token or username and password required", nil)
	}

	connections, err := c.FetchResources(ctx, conn.Token)
	if err != nil {
		logging.WarnWithContext(c.logger, "plex resources lookup failed; using http", "plex_resources_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access to plex.tv"),
			logging.String(logging.FieldImpact, "server is contacted over plain http"),
		)
		return conn, nil
	}
	scheme, matched := SchemeForHost(connections, host)
	conn.Scheme = scheme
	c.logger.Info("plex connection resolved",
		logging.String(logging.FieldEventType, "plex_connection_resolved"),
		logging.String("scheme", scheme),
		logging.String("host", host),
		logging.Int("port", s.Port),
		logging.Bool("advertised", matched),
		logging.Int("connections", len(connections)),
	)
	return conn, nil
}
