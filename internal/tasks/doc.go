// Package tasks implements background synchronization against the backend.
//
// The core abstraction is [Poller], which periodically fetches the
// authoritative request set and installs it into a local projection sink.
// Fetches may overlap under network jitter; ordering is resolved by fetch
// start time so a stale response never overwrites a fresher projection.
// Updates are emitted via an optional channel for non-blocking status
// reporting to CLI/UI layers.
package tasks
