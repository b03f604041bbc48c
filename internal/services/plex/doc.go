// Package plex talks to plex.tv and a Plex Media Server on behalf of the
// bridge.
//
// The Connector bootstraps a Connection (token from configuration or a
// username/password sign-in, then scheme resolution through the resources
// endpoint), fetches the server's active playback sessions, and rewrites
// artwork references into token-bearing URLs. NotificationListener follows the
// server websocket for live playback state changes. Every request carries the
// same client identification headers, with the client identifier persisted in
// the state directory so the server sees one stable device across restarts.
//
// The package is read-only with respect to the server: it never issues
// playback commands.
package plex
