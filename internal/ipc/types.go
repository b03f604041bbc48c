package ipc

import "plexbridge/internal/api"

// StartRequest asks the daemon to (re)start the bridge.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is the combined daemon and bridge status.
type StatusResponse = api.DaemonStatus

// PlayersRequest lists registered players.
type PlayersRequest struct{}

// PlayersResponse carries player projections and counts.
type PlayersResponse = api.PlayersResponse

// DiscoveredRequest lists unregistered players seen in sessions.
type DiscoveredRequest struct{}

// DiscoveredResponse carries discovery sightings.
type DiscoveredResponse = api.DiscoveredResponse

// RegisterPlayerRequest registers a player by machine identifier.
type RegisterPlayerRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// RegisterPlayerResponse returns the player's current projection.
type RegisterPlayerResponse struct {
	Player  api.Player `json:"player"`
	Created bool       `json:"created"`
}

// DeregisterPlayerRequest removes a registered player.
type DeregisterPlayerRequest struct {
	ID string `json:"id"`
}

// DeregisterPlayerResponse reports whether the player was known.
type DeregisterPlayerResponse struct {
	Removed bool `json:"removed"`
}

// HistoryRequest fetches recorded transitions. An empty PlayerID returns
// events for every player.
type HistoryRequest struct {
	PlayerID string `json:"player_id"`
	Limit    int    `json:"limit"`
}

// HistoryResponse carries recorded transitions, newest first.
type HistoryResponse struct {
	Events []api.PlayerEvent `json:"events"`
}

// RefreshRequest asks for an immediate poll.
type RefreshRequest struct{}

// RefreshResponse acknowledges a refresh request.
type RefreshResponse struct {
	Requested bool `json:"requested"`
}

// LogTailRequest fetches buffered log events after a cursor.
type LogTailRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Follow     bool   `json:"follow"`
	Tail       bool   `json:"tail"`
	WaitMillis int    `json:"wait_millis"`
}

// LogTailResponse returns log events and the next cursor.
type LogTailResponse = api.LogTailResponse

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the notification was sent.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
