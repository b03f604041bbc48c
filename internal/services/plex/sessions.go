package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"plexbridge/internal/services"
)

const sessionsPath = "/status/sessions"

// SessionList is the decoded /status/sessions payload. Items keeps every
// session element (Video, Track, Photo) in document order.
type SessionList struct {
	XMLName xml.Name  `xml:"MediaContainer"`
	Size    string    `xml:"size,attr"`
	Items   []Session `xml:",any"`
}

// Session is one active playback record. Player and Media may be absent in
// partial payloads.
type Session struct {
	XMLName          xml.Name
	Title            string         `xml:"title,attr"`
	Type             string         `xml:"type,attr"`
	Art              string         `xml:"art,attr"`
	Thumb            string         `xml:"thumb,attr"`
	GrandparentTitle string         `xml:"grandparentTitle,attr"`
	GrandparentThumb string         `xml:"grandparentThumb,attr"`
	SessionKey       string         `xml:"sessionKey,attr"`
	ViewOffsetRaw    string         `xml:"viewOffset,attr"`
	DurationRaw      string         `xml:"duration,attr"`
	Player           *SessionPlayer `xml:"Player"`
	Media            []SessionMedia `xml:"Media"`
}

// SessionPlayer identifies the client playing a session.
type SessionPlayer struct {
	MachineIdentifier string `xml:"machineIdentifier,attr"`
	State             string `xml:"state,attr"`
	LocalRaw          string `xml:"local,attr"`
	Title             string `xml:"title,attr"`
	Product           string `xml:"product,attr"`
	Platform          string `xml:"platform,attr"`
	Address           string `xml:"address,attr"`
}

// SessionMedia describes one media part of a session.
type SessionMedia struct {
	DurationRaw string `xml:"duration,attr"`
}

// Snapshot is the result of one sessions fetch.
type Snapshot struct {
	Size      int
	Sessions  []Session
	FetchedAt time.Time
}

// Local reports whether the player is on the server's LAN.
func (p *SessionPlayer) Local() bool {
	if p == nil {
		return false
	}
	return parseFlag(p.LocalRaw)
}

// ViewOffset is the elapsed playback position in milliseconds.
func (s Session) ViewOffset() int64 {
	return parseMillis(s.ViewOffsetRaw)
}

// Duration returns the first positive media duration, falling back to the
// session's own duration attribute. Zero means unknown.
func (s Session) Duration() int64 {
	for _, m := range s.Media {
		if d := parseMillis(m.DurationRaw); d > 0 {
			return d
		}
	}
	return parseMillis(s.DurationRaw)
}

// MachineIdentifier returns the player id or "" when the Player element is missing.
func (s Session) MachineIdentifier() string {
	if s.Player == nil {
		return ""
	}
	return strings.TrimSpace(s.Player.MachineIdentifier)
}

// PlayerState returns the raw state string or "" when the Player element is missing.
func (s Session) PlayerState() string {
	if s.Player == nil {
		return ""
	}
	return s.Player.State
}

func isSessionElement(name string) bool {
	switch name {
	case "Video", "Track", "Photo", "Episode", "Movie":
		return true
	default:
		return false
	}
}

// FetchSessions retrieves the server's active sessions. Transport, timeout,
// status, and decode failures are returned as fetch errors; no retry happens
// here.
func (c *Connector) FetchSessions(ctx context.Context, conn *Connection) (Snapshot, error) {
	if conn == nil {
		return Snapshot{}, services.Wrap(services.ErrFetch, "plex", "sessions", "connection not bootstrapped", nil)
	}
	req, err := http.NewRequest(http.MethodPost, conn.BaseURL()+sessionsPath, nil)
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrFetch, "plex", "sessions", "build request", err)
	}
	body, err := c.do(ctx, c.server, req, conn.Token)
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrFetch, "plex", "sessions", "request failed", err)
	}
	snapshot, err := ParseSessions(body, *conn)
	if err != nil {
		return Snapshot{}, services.Wrap(services.ErrFetch, "plex", "sessions", "decode failed", err)
	}
	return snapshot, nil
}

// ParseSessions decodes a sessions payload and rewrites artwork references
// into token-bearing URLs for conn. An empty body is an empty snapshot.
func ParseSessions(body []byte, conn Connection) (Snapshot, error) {
	snapshot := Snapshot{FetchedAt: time.Now()}
	if len(strings.TrimSpace(string(body))) == 0 {
		return snapshot, nil
	}
	var list SessionList
	if err := xml.Unmarshal(body, &list); err != nil {
		return Snapshot{}, fmt.Errorf("decode sessions: %w", err)
	}
	snapshot.Size, _ = strconv.Atoi(strings.TrimSpace(list.Size))
	for _, item := range list.Items {
		if !isSessionElement(item.XMLName.Local) {
			continue
		}
		item.Art = conn.MediaURL(item.Art)
		item.Thumb = conn.MediaURL(item.Thumb)
		item.GrandparentThumb = conn.MediaURL(item.GrandparentThumb)
		snapshot.Sessions = append(snapshot.Sessions, item)
	}
	if snapshot.Size == 0 {
		snapshot.Size = len(snapshot.Sessions)
	}
	return snapshot, nil
}

func parseMillis(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0
		}
		v = int64(f)
	}
	if v < 0 {
		return 0
	}
	return v
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
