// Package bridge ties the Plex connector, the player registry, and the poll
// loop into one server bridge with an explicit lifecycle.
//
// Initialize validates settings, bootstraps the connection, and only then
// starts polling. Each tick fetches sessions, reconciles them into the
// registry, projects every player, and hands the results to a Reporter. A
// failed fetch still projects every player (all inactive) and reports the
// server unreachable for that tick. Players can be registered and
// deregistered at any time, including while a tick is in flight.
package bridge
