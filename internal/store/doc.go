// Package store provides a SQLite-backed journal of pipeline runs.
//
// The journal is append-only:
//   - Runs: one row per pipeline run, updated once when it finishes
//   - Pass results: one row per pass invocation, keyed by the run's logical clock
//   - Changes: the change-log entries (added, removed, modified) of each pass
//
// All ordering uses seq columns (logical clocks), never timestamps, so two
// runs of the same schema journal identical rows apart from their run IDs.
// Name lists are stored as RFC 8785 canonical JSON.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
