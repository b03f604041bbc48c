// Package logs reads buffered daemon log events over the HTTP API.
//
// The CLI prefers this path when an API bind address is configured, so long
// follow sessions do not hold an IPC connection open, and falls back to IPC
// when the API is disabled or unreachable.
package logs
