package players

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the playback status of a player.
type Status int

const (
	StatusStopped Status = iota
	StatusBuffering
	StatusPlaying
	StatusPaused
	// StatusUnrecognized marks a state string the server sent that none of
	// the known statuses match. Callers must handle it explicitly.
	StatusUnrecognized
)

var statusNames = map[Status]string{
	StatusStopped:      "stopped",
	StatusBuffering:    "buffering",
	StatusPlaying:      "playing",
	StatusPaused:       "paused",
	StatusUnrecognized: "unrecognized",
}

var titleCaser = cases.Title(language.Und)

// ParseStatus matches a server state string case-insensitively. Unknown and
// empty values return StatusUnrecognized and ok=false.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "stopped":
		return StatusStopped, true
	case "buffering":
		return StatusBuffering, true
	case "playing":
		return StatusPlaying, true
	case "paused":
		return StatusPaused, true
	default:
		return StatusUnrecognized, false
	}
}

// String returns the display label, e.g. "Playing".
func (s Status) String() string {
	name, ok := statusNames[s]
	if !ok {
		name = statusNames[StatusUnrecognized]
	}
	return titleCaser.String(name)
}

// MarshalText renders the display label.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
