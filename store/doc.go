// Package store persists named flag sets in Redis.
//
// Each entry is a Redis hash holding the canonical name list of the set and
// the fingerprint of the registry that wrote it. Reads through a registry
// with a different fingerprint fail with [ErrFingerprintMismatch] instead of
// reinterpreting names against the wrong declarations.
//
// # Architecture boundaries
//
// The store converts sets only through Set.String and Registry.TryParse. Bit
// positions never reach Redis, so reordering declarations cannot silently
// change stored grants.
//
// # What this package must NOT do
//
//   - Decide what a flag means to the application.
//   - Write sets that belong to a different registry.
//   - Overwrite entries written under another fingerprint during Grant/Revoke.
package store
