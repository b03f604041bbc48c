package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Player describes the published state of a registered player.
type Player struct {
	ID               string   `json:"id"`
	Status           string   `json:"status"`
	Power            string   `json:"power"`
	Title            string   `json:"title,omitempty"`
	Type             string   `json:"type,omitempty"`
	Art              string   `json:"art,omitempty"`
	Thumb            string   `json:"thumb,omitempty"`
	GrandparentTitle string   `json:"grandparentTitle,omitempty"`
	GrandparentThumb string   `json:"grandparentThumb,omitempty"`
	Progress         *float64 `json:"progress,omitempty"`
	EndTime          string   `json:"endTime,omitempty"`
	Local            bool     `json:"local"`
	Device           string   `json:"device,omitempty"`
}

// Sighting describes an unregistered player seen in sessions.
type Sighting struct {
	MachineIdentifier string `json:"machineIdentifier"`
	Name              string `json:"name,omitempty"`
	Product           string `json:"product,omitempty"`
	Platform          string `json:"platform,omitempty"`
	MediaTitle        string `json:"mediaTitle,omitempty"`
	LastSeen          string `json:"lastSeen,omitempty"`
}

// Counts carries the aggregate player counters.
type Counts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// ServerStatus summarizes the bridge connection.
type ServerStatus struct {
	Initialized            bool   `json:"initialized"`
	Online                 bool   `json:"online"`
	Server                 string `json:"server,omitempty"`
	Detail                 string `json:"detail,omitempty"`
	ErrorKind              string `json:"errorKind,omitempty"`
	LastReport             string `json:"lastReport,omitempty"`
	RefreshIntervalSeconds int    `json:"refreshIntervalSeconds"`
}

// HistoryStatus summarizes the history database.
type HistoryStatus struct {
	Path               string `json:"path"`
	SchemaVersion      string `json:"schemaVersion"`
	Players            int    `json:"players"`
	PlayerEvents       int    `json:"playerEvents"`
	ConnectivityEvents int    `json:"connectivityEvents"`
	Error              string `json:"error,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	SessionID    string        `json:"sessionId,omitempty"`
	StartedAt    string        `json:"startedAt,omitempty"`
	DatabasePath string        `json:"databasePath"`
	LockFilePath string        `json:"lockFilePath"`
	SocketPath   string        `json:"socketPath"`
	APIBind      string        `json:"apiBind,omitempty"`
	LogPath      string        `json:"logPath,omitempty"`
	Server       ServerStatus  `json:"server"`
	Counts       Counts        `json:"counts"`
	History      HistoryStatus `json:"history"`
}

// PlayerEvent is one recorded status transition.
type PlayerEvent struct {
	PlayerID         string   `json:"playerId"`
	Status           string   `json:"status"`
	Power            string   `json:"power"`
	Title            string   `json:"title,omitempty"`
	GrandparentTitle string   `json:"grandparentTitle,omitempty"`
	Type             string   `json:"type,omitempty"`
	Progress         *float64 `json:"progress,omitempty"`
	OccurredAt       string   `json:"occurredAt"`
}

// Event types broadcast on the events websocket.
const (
	EventConnectivity = "connectivity"
	EventPlayer       = "player"
	EventCounts       = "counts"
	EventRemoved      = "removed"
)

// Event is the envelope for one report pushed to websocket subscribers.
type Event struct {
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Online    *bool   `json:"online,omitempty"`
	Detail    string  `json:"detail,omitempty"`
	PlayerID  string  `json:"playerId,omitempty"`
	Player    *Player `json:"player,omitempty"`
	Counts    *Counts `json:"counts,omitempty"`
}

// LogEvent is a transport representation of a structured log line.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     string            `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	PlayerID      string            `json:"playerId,omitempty"`
	Tick          uint64            `json:"tick,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogTailResponse wraps log events with the cursor for the next fetch.
type LogTailResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// PlayersResponse wraps the registered players.
type PlayersResponse struct {
	Players []Player `json:"players"`
	Counts  Counts   `json:"counts"`
}

// DiscoveredResponse wraps unregistered sightings.
type DiscoveredResponse struct {
	Players []Sighting `json:"players"`
}

// StatusLine is one labeled readiness line in status output.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}
