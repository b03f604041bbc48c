package daemon

import (
	"sync"
	"time"

	"plexbridge/internal/players"
)

type cachedStatus struct {
	online     bool
	detail     string
	lastReport time.Time
	total      int
	active     int
}

// statusCache keeps the last connectivity and count reports for status
// output.
type statusCache struct {
	mu    sync.RWMutex
	now   func() time.Time
	state cachedStatus
}

func newStatusCache(now func() time.Time) *statusCache {
	if now == nil {
		now = time.Now
	}
	return &statusCache{now: now}
}

func (c *statusCache) ReportConnectivity(online bool, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.online = online
	c.state.detail = detail
	c.state.lastReport = c.now()
}

func (c *statusCache) ReportPlayerState(string, players.Projection) {}

func (c *statusCache) ReportAggregateCounts(total, active int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.total = total
	c.state.active = active
	c.state.lastReport = c.now()
}

func (c *statusCache) get() cachedStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}
