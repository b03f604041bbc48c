// Package logging assembles structured slog loggers and formatting helpers used
// across plexbridge.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, redacts Plex tokens before anything reaches a writer, and exposes
// context-aware helpers so poll ticks and player updates are tagged with
// player IDs, tick numbers, and correlation IDs. An in-memory StreamHub keeps
// recent events for `plexbridge logs`.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape and routing guarantees as the rest of the daemon.
package logging
