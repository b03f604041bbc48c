// Package daemon coordinates the long-running plexbridge process.
//
// It wires configuration, the history store, the bridge, and its report sinks
// (log, history recorder, ntfy notifier, status cache, websocket events) into
// a single lifecycle with flock-based locking to prevent multiple instances.
// Player registration flows through here so the store and the bridge registry
// stay in step, and the optional HTTP API is served from the same process.
//
// Keep orchestration logic here: polling and reconciliation live in the
// bridge and players packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
