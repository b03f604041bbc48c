// Package services defines shared utilities consumed by the bridge, the Plex
// client, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp player identifiers, poll tick numbers, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can separate
//     fatal setup failures (configuration, authentication) from per-tick
//     fetch failures with errors.Is.
//
// Use these helpers when wiring new integrations so failure classification and
// log correlation stay uniform across the daemon.
package services
