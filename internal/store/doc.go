// Package store keeps a SQLite history of compile runs.
//
// A run records the input it compiled, the fingerprint of every pass the
// pipeline ran, the semantic diagnostics of dropped rules and the
// fingerprint of the rendered output. Runs are append-only and ordered by
// seq, a per-database logical counter; wall time is never stored so two
// identical compilations produce identical rows apart from their IDs.
//
// # Database Configuration
//
//   - WAL mode: history can be read while a compile writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: stages and diagnostics are deleted with their run
//
// The schema is embedded from schema.sql and versioned with user_version.
package store
