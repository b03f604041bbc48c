package bridge

import (
	"plexbridge/internal/players"
)

// Reporter receives the observable results of the bridge.
type Reporter interface {
	ReportConnectivity(online bool, detail string)
	ReportPlayerState(id string, p players.Projection)
	ReportAggregateCounts(total, active int)
}

// RemovalReporter is implemented by reporters that track per-player records
// and need to drop them on deregistration.
type RemovalReporter interface {
	ReportPlayerRemoved(id string)
}

// MultiReporter forwards every report to each sink in order.
type MultiReporter []Reporter

func (m MultiReporter) ReportConnectivity(online bool, detail string) {
	for _, r := range m {
		if r != nil {
			r.ReportConnectivity(online, detail)
		}
	}
}

func (m MultiReporter) ReportPlayerState(id string, p players.Projection) {
	for _, r := range m {
		if r != nil {
			r.ReportPlayerState(id, p)
		}
	}
}

func (m MultiReporter) ReportAggregateCounts(total, active int) {
	for _, r := range m {
		if r != nil {
			r.ReportAggregateCounts(total, active)
		}
	}
}

func (m MultiReporter) ReportPlayerRemoved(id string) {
	for _, r := range m {
		if rr, ok := r.(RemovalReporter); ok {
			rr.ReportPlayerRemoved(id)
		}
	}
}

type nopReporter struct{}

func (nopReporter) ReportConnectivity(bool, string)              {}
func (nopReporter) ReportPlayerState(string, players.Projection) {}
func (nopReporter) ReportAggregateCounts(int, int)               {}
