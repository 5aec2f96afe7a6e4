// Package model provides the in-memory schema graph that every rewrite reads
// and mutates.
//
// The Model owns every object type, relationship and constraint. Entities
// refer to each other by pointer handle and carry a stable ID; ownership is
// graph-wide rather than tree-shaped, so a role points at its relationship
// and player, and every covered element points back at the constraints that
// cover it.
//
// Key design constraints:
//   - Back-references are only changed through Model methods (Add, Remove and
//     the Replace* edits). Each edit uncovers the constraint, mutates it and
//     re-covers it as one step, so a caller cannot leave covered_by stale.
//   - Derived attributes (Role.Mandatory, Role.Unique, ObjectType.Domain,
//     ObjectType.Primitive) are computed from live back-references on read.
//   - Element sets are insertion ordered so every pass visits candidates in a
//     reproducible order.
//   - model imports nothing internal.
package model
