// Package services defines the boundary to the remote request backend.
//
// [Backend] lists the logical operations the engine consumes; [HTTPBackend]
// implements them over JSON/HTTP with bounded timeouts and client-side rate
// limiting. All backend replies pass through the normalizer in normalize.go,
// which folds the backend's variant response envelopes into the canonical
// shapes in [github.com/rockolahq/rockola/internal/models] before they reach
// any business logic.
package services
