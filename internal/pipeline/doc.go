// Package pipeline drives the rewrite passes over a schema graph.
//
// A run executes the configured passes in order, optionally repeating the
// whole sequence until a sweep changes nothing. The subtype lineage index
// is rebuilt whenever a pass touches a subtype constraint. Each pass
// invocation is stamped with a logical sequence number and, when a
// Recorder is configured, journaled together with its change log.
//
// Errors:
//   - ITERATION_LIMIT: still changing after the allowed number of sweeps
//   - LINEAGE_INVALID: subtype cycle or a type with two roots
//   - JOURNAL_FAILED: the Recorder returned an error
//   - INVARIANT_VIOLATED: the rewritten graph is structurally inconsistent
//   - UNKNOWN_PASS: a configured pass name is not known
package pipeline
