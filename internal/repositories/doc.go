// Package repositories provides the local persistence layer.
//
// Only client-side state lives here: the per-restaurant session record, a
// song cache for the current visit, and a favorites cache used as the guest
// fallback. Queue state is never persisted locally; the backend is the
// source of truth and the in-memory projection is rebuilt by polling.
package repositories
