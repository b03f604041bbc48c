package notifications

// Event identifies a notification kind.
type Event string

const (
	EventServerOffline   Event = "server_offline"
	EventServerOnline    Event = "server_online"
	EventPlaybackStarted Event = "playback_started"
	EventTest            Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	v, _ := p[key].(string)
	return v
}
