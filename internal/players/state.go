package players

import (
	"time"

	"plexbridge/internal/services/plex"
)

// State is the tracked playback state of one registered player.
type State struct {
	ID               string
	Status           Status
	RawStatus        string
	Active           bool
	Title            string
	Type             string
	Art              string
	Thumb            string
	GrandparentTitle string
	GrandparentThumb string
	SessionKey       string
	// Offset and Duration are milliseconds. A Duration of 0 means unknown.
	Offset    int64
	Duration  int64
	Local     bool
	Device    string
	UpdatedAt time.Time
}

// Progress returns Offset/Duration clamped to [0,1], or ok=false when the
// duration is unknown.
func (s State) Progress() (float64, bool) {
	if s.Duration <= 0 {
		return 0, false
	}
	p := float64(s.Offset) / float64(s.Duration)
	switch {
	case p < 0:
		p = 0
	case p > 1:
		p = 1
	}
	return p, true
}

// Remaining is the unplayed time, never negative, or ok=false when the
// duration is unknown.
func (s State) Remaining() (time.Duration, bool) {
	if s.Duration <= 0 {
		return 0, false
	}
	left := s.Duration - s.Offset
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Millisecond, true
}

// applySession overwrites every session-derived field from rec. Fields the
// record cannot supply are cleared rather than left stale.
func (s *State) applySession(rec plex.Session, now time.Time) {
	raw := rec.PlayerState()
	status, _ := ParseStatus(raw)
	s.Status = status
	s.RawStatus = raw
	s.Active = true
	s.Title = rec.Title
	s.Type = rec.Type
	s.Art = rec.Art
	s.Thumb = rec.Thumb
	s.GrandparentTitle = rec.GrandparentTitle
	s.GrandparentThumb = rec.GrandparentThumb
	s.SessionKey = rec.SessionKey
	s.Offset = rec.ViewOffset()
	s.Duration = rec.Duration()
	s.Local = rec.Player.Local()
	s.Device = ""
	if rec.Player != nil {
		s.Device = rec.Player.Title
	}
	s.UpdatedAt = now
}
