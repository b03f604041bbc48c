package plex

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"plexbridge/internal/logging"
)

const (
	notificationsPath    = "/:/websockets/notifications"
	notificationMinRetry = 2 * time.Second
	notificationMaxRetry = 30 * time.Second
)

// PlaySessionState is one entry of a "playing" notification.
type PlaySessionState struct {
	SessionKey string `json:"sessionKey"`
	GUID       string `json:"guid"`
	RatingKey  string `json:"ratingKey"`
	Key        string `json:"key"`
	State      string `json:"state"`
	ViewOffset int64  `json:"viewOffset"`
}

type notificationEnvelope struct {
	Container struct {
		Type   string             `json:"type"`
		Size   int                `json:"size"`
		States []PlaySessionState `json:"PlaySessionStateNotification"`
	} `json:"NotificationContainer"`
}

// ParseNotification extracts playback state updates from one websocket
// message. Messages of other types yield nil.
func ParseNotification(payload []byte) ([]PlaySessionState, error) {
	var env notificationEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}
	if env.Container.Type != "playing" {
		return nil, nil
	}
	out := make([]PlaySessionState, 0, len(env.Container.States))
	for _, st := range env.Container.States {
		if strings.TrimSpace(st.SessionKey) == "" {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// NotificationListener follows the server notification websocket and hands
// playback state changes to Handler. It reconnects with exponential backoff
// until the context ends.
type NotificationListener struct {
	conn     Connection
	identity Identity
	dialer   *websocket.Dialer
	handler  func(PlaySessionState)
	logger   *slog.Logger
	minRetry time.Duration
	maxRetry time.Duration
}

// NewNotificationListener builds a listener for conn.
func NewNotificationListener(conn Connection, identity Identity, handler func(PlaySessionState), logger *slog.Logger) *NotificationListener {
	return &NotificationListener{
		conn:     conn,
		identity: identity,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			// Plex servers commonly present certificates for *.plex.direct
			// while being addressed by IP.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
		handler:  handler,
		logger:   logging.NewComponentLogger(logger, "plex-notifications"),
		minRetry: notificationMinRetry,
		maxRetry: notificationMaxRetry,
	}
}

// URL returns the websocket endpoint, ws or wss following the connection scheme.
func (l *NotificationListener) URL() string {
	scheme := "ws"
	if strings.EqualFold(l.conn.Scheme, "https") {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: joinHostPort(l.conn.Host, l.conn.Port), Path: notificationsPath}
	q := u.Query()
	q.Set("X-Plex-Token", l.conn.Token)
	u.RawQuery = q.Encode()
	return u.String()
}

// Run blocks until ctx is cancelled.
func (l *NotificationListener) Run(ctx context.Context) {
	retry := l.minRetry
	for {
		if ctx.Err() != nil {
			return
		}
		received, err := l.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if received {
			retry = l.minRetry
		}
		logging.WarnWithContext(l.logger, "plex notification stream lost; reconnecting", "plex_notifications_disconnected",
			logging.Error(err),
			logging.Duration("retry_in", retry),
			logging.String(logging.FieldImpact, "player status updates fall back to polling"),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
		if retry < l.maxRetry {
			retry *= 2
			if retry > l.maxRetry {
				retry = l.maxRetry
			}
		}
	}
}

// session dials once and reads until the connection fails. It reports
// whether any message arrived so Run can reset its backoff.
func (l *NotificationListener) session(ctx context.Context) (bool, error) {
	header := http.Header{}
	header.Set("X-Plex-Client-Identifier", l.identity.ClientIdentifier)
	header.Set("X-Plex-Product", l.identity.Product)
	header.Set("Accept", "application/json")

	ws, _, err := l.dialer.DialContext(ctx, l.URL(), header)
	if err != nil {
		return false, err
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = ws.Close()
	})
	defer stop()

	l.logger.Info("plex notification stream connected",
		logging.String(logging.FieldEventType, "plex_notifications_connected"))

	received := false
	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return received, err
		}
		received = true
		states, err := ParseNotification(payload)
		if err != nil {
			l.logger.Debug("plex notification ignored", logging.Error(err))
			continue
		}
		for _, st := range states {
			if l.handler != nil {
				l.handler(st)
			}
		}
	}
}
