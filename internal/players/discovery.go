package players

import (
	"sort"
	"sync"
	"time"
)

// Sighting records a session whose player is not registered.
type Sighting struct {
	MachineIdentifier string    `json:"machine_identifier"`
	Name              string    `json:"name,omitempty"`
	Product           string    `json:"product,omitempty"`
	Platform          string    `json:"platform,omitempty"`
	MediaTitle        string    `json:"media_title,omitempty"`
	LastSeen          time.Time `json:"last_seen"`
}

// Discovery remembers unregistered players seen in recent snapshots.
type Discovery struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]Sighting
}

// NewDiscovery keeps sightings for ttl after they were last seen. A
// non-positive ttl keeps them until Forget.
func NewDiscovery(ttl time.Duration) *Discovery {
	return &Discovery{ttl: ttl, entries: make(map[string]Sighting)}
}

// Record stores sightings and returns the ids seen for the first time.
func (d *Discovery) Record(sightings []Sighting) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var fresh []string
	for _, s := range sightings {
		if s.MachineIdentifier == "" {
			continue
		}
		if _, ok := d.entries[s.MachineIdentifier]; !ok {
			fresh = append(fresh, s.MachineIdentifier)
		}
		d.entries[s.MachineIdentifier] = s
	}
	return fresh
}

// Forget drops id, typically once it has been registered.
func (d *Discovery) Forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, id)
}

// List returns live sightings ordered by most recent first.
func (d *Discovery) List(now time.Time) []Sighting {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Sighting, 0, len(d.entries))
	for id, s := range d.entries {
		if d.ttl > 0 && now.Sub(s.LastSeen) > d.ttl {
			delete(d.entries, id)
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].MachineIdentifier < out[j].MachineIdentifier
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}
