// Package poller runs a function on a fixed-delay schedule.
//
// The next run is scheduled only after the previous one returns, so runs
// never overlap. Trigger requests an early run without breaking that rule.
package poller
