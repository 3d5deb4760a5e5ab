// Package store persists event controller settings in SQLite.
//
// Two tables are kept:
//   - controllers: threshold, comparison direction, aggregation mode,
//     working flag and selected event of each controller block
//   - event_settings: the scalar setting of an event on a block, keyed by
//     (block id, event type tag)
//
// Values of event_settings are opaque strings; the events package owns
// their format and range checks.
//
// # Deterministic Listings
//
// Every listing orders by block_id ASC, event_type ASC COLLATE BINARY so
// that CLI output and scenario traces are stable across runs.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
