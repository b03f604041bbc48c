// Package config loads, normalizes, and validates plexbridge configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// environment fallbacks such as PLEX_TOKEN and PLEX_HOST. The Config type
// centralizes every knob the daemon and CLI need so the Plex connection,
// registered players, and state directories are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
