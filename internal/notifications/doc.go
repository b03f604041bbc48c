// Package notifications delivers bridge events via ntfy.
//
// NewService publishes to the topic configured in config.toml and degrades to
// a no-op when no topic is set. Connectivity and playback events can be
// switched off individually, and repeats of the same event inside the dedup
// window are dropped. Reporter adapts a Service to the bridge reporter
// contract so server outages and playback starts are pushed without the poll
// loop waiting on the network.
package notifications
