// Package main hosts the plexbridge CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into IPC calls against
// the daemon: lifecycle control, player registration, history and log
// inspection, and configuration scaffolding. The hidden daemon command runs
// the long-lived process itself.
package main
