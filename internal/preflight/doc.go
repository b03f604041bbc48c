// Package preflight runs the readiness checks shared by `config validate`
// and `status`: state directory access, connection settings, and whether the
// Plex server can actually be bootstrapped with them.
package preflight
