package store

import "time"

// PlayerRecord is a persisted player registration.
type PlayerRecord struct {
	ID           string
	Label        string
	RegisteredAt time.Time
}

// PlayerEvent is one recorded status transition.
type PlayerEvent struct {
	ID               int64
	PlayerID         string
	Status           string
	Power            string
	Title            string
	GrandparentTitle string
	MediaType        string
	// Progress is nil when the duration was unknown.
	Progress   *float64
	OccurredAt time.Time
}

// ConnectivityEvent is one recorded server reachability change.
type ConnectivityEvent struct {
	ID         int64
	Online     bool
	Detail     string
	OccurredAt time.Time
}

// Health summarizes the database for status output.
type Health struct {
	Path               string
	SchemaVersion      string
	Players            int
	PlayerEvents       int
	ConnectivityEvents int
}
