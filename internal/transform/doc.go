// Package transform implements the rewrites that reduce a schema graph to
// the ORM- constraint vocabulary.
//
// Every rewrite implements Transformation. Execute makes one pass over the
// rewrite's candidates, mutating the graph only through model.Model, and
// reports whether anything changed. The ChangeLog read through Changes
// lists what the last Execute added, removed and modified.
//
// Rewrites do not check their ordering preconditions. The pipeline package
// runs them in an order that satisfies them:
//   - subset pruning expects join paths to be materialized already;
//   - root-role unification expects an acyclic subset graph.
package transform
