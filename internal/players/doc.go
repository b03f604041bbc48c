// Package players owns per-player playback state and the reconciliation of
// session snapshots into it.
//
// Registry maps machine identifiers to State records under a single mutex and
// only ever hands out copies. Reconcile merges one snapshot into the registry
// (reset every player, then overwrite the ones found in sessions) and Project
// turns a State into the observable values published each tick: status,
// power, title, artwork, progress, and estimated end time. Discovery tracks
// sessions whose player is not registered so operators can add them.
package players
