// Package models defines the data model for the song request engine.
//
// The authoritative copies of [Request] and [Restaurant] live in the remote
// backend; values here are reconciled projections of that state. [UserSession]
// is a purely local construct persisted per restaurant scope, and [Song] values
// are immutable once fetched.
package models
