package players

import (
	"sort"
	"strings"
	"time"

	"plexbridge/internal/services/plex"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Players int
	Active  int
	// States holds every registered player after the pass, ordered by id.
	States []State
	// Unregistered lists sessions whose player is not registered.
	Unregistered []Sighting
	// Unrecognized lists player ids whose session carried an unknown status.
	Unrecognized []string
}

// Reconcile merges sessions into reg under a single lock acquisition.
//
// Every player is first marked inactive. Each session whose machine
// identifier is registered then overwrites that player's state and marks it
// active; with duplicate identifiers the last session wins. Sessions without
// a player element or for unregistered players never create entries. Active
// counts matching session records, so a player appearing twice counts twice.
func Reconcile(reg *Registry, sessions []plex.Session) Result {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, st := range reg.entries {
		st.Active = false
	}

	now := reg.now()
	res := Result{Players: len(reg.entries)}
	unrecognized := make(map[string]struct{})
	for _, rec := range sessions {
		id := rec.MachineIdentifier()
		if id == "" {
			continue
		}
		st, ok := reg.entries[id]
		if !ok {
			res.Unregistered = append(res.Unregistered, sightingFrom(rec, now))
			continue
		}
		st.applySession(rec, now)
		res.Active++
		if st.Status == StatusUnrecognized {
			unrecognized[id] = struct{}{}
		} else {
			delete(unrecognized, id)
		}
	}
	for id := range unrecognized {
		res.Unrecognized = append(res.Unrecognized, id)
	}
	sort.Strings(res.Unrecognized)
	res.States = reg.snapshotLocked()
	return res
}

func sightingFrom(rec plex.Session, now time.Time) Sighting {
	s := Sighting{
		MachineIdentifier: rec.MachineIdentifier(),
		MediaTitle:        strings.TrimSpace(rec.Title),
		LastSeen:          now,
	}
	if rec.Player != nil {
		s.Name = rec.Player.Title
		s.Product = rec.Player.Product
		s.Platform = rec.Player.Platform
	}
	return s
}
