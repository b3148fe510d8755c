// Package sweeperr defines the error taxonomy of a sweep.
//
// TypeNotFoundError, SchemaError and EmptySpaceError are raised while the
// configuration tree is built and abort the sweep before anything runs.
// ComputationError describes one failed combination and is recorded, never
// propagated. CancellationSignal ends a sweep early and keeps what was
// collected.
package sweeperr
