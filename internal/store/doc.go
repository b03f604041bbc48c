// Package store persists player registrations and playback history in
// SQLite.
//
// Registered players survive daemon restarts through the players table.
// Status transitions and server connectivity changes are appended to
// player_events and connectivity_events by Recorder, which implements the
// bridge reporter contract and writes from its own goroutine so poll ticks
// never wait on disk I/O. Schema changes ship as embedded migrations applied
// in filename order on Open.
package store
