// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal player, history, and log models into
// transport-friendly DTOs so the CLI and HTTP consumers never depend on
// internal types.
//
// # Key Types
//
// Player: projected playback state of one registered player.
//
// Sighting: an unregistered player seen in recent sessions.
//
// ServerStatus and DaemonStatus: bridge connectivity, counts, and daemon
// runtime paths.
//
// Event: envelope broadcast on the events websocket for every report.
//
// LogEvent/LogTailResponse: structured log payloads for live tailing.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds in
// UTC. Progress is omitted when the media duration is unknown rather than
// reported as zero.
package api
