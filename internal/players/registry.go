package players

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry maps player identities to their state. All methods are safe for
// concurrent use and return copies, so callers never observe a record while
// it is being mutated.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*State
	now     func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*State), now: time.Now}
}

// Register adds id if absent and returns its state. Registering an existing
// id returns the current state unchanged.
func (r *Registry) Register(id string) (State, bool) {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[id]; ok {
		return *existing, false
	}
	st := &State{ID: id, Status: StatusStopped, UpdatedAt: r.now()}
	r.entries[id] = st
	return *st, true
}

// Deregister removes id. Unknown ids are ignored.
func (r *Registry) Deregister(id string) bool {
	id = strings.TrimSpace(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	return true
}

// Lookup returns a copy of the state for id.
func (r *Registry) Lookup(id string) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.entries[strings.TrimSpace(id)]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// All returns a snapshot of every entry ordered by id.
func (r *Registry) All() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// IDs returns the registered identities in order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered players.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ResetAll marks every player inactive and returns the resulting snapshot.
// Stored titles and artwork are kept for display.
func (r *Registry) ResetAll() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, st := range r.entries {
		st.Active = false
	}
	return r.snapshotLocked()
}

// UpdateBySessionKey applies a live status change to every active player
// whose current session key matches. It returns copies of the updated states.
func (r *Registry) UpdateBySessionKey(sessionKey, rawStatus string, offset int64) []State {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil
	}
	status, _ := ParseStatus(rawStatus)
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated []State
	for _, st := range r.entries {
		if !st.Active || st.SessionKey != sessionKey {
			continue
		}
		st.Status = status
		st.RawStatus = rawStatus
		if offset > 0 {
			st.Offset = offset
		}
		if status == StatusStopped {
			st.Active = false
		}
		st.UpdatedAt = r.now()
		updated = append(updated, *st)
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })
	return updated
}

func (r *Registry) snapshotLocked() []State {
	out := make([]State, 0, len(r.entries))
	for _, st := range r.entries {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
