// Package harness runs reduction scenarios: a schema, a pipeline
// configuration and a list of assertions about the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files. The schema path is relative to the scenario.
//
//	name: subset_cycle
//	description: "Mutual subsets collapse to one under a root role"
//	schema: schemas/cycle.yaml
//	passes: [subset-pruning, root-roles]   # optional, default all
//	iterate: true                          # optional
//	max_iterations: 10                     # optional
//	assertions:
//	  - type: iterations
//	    count: 2
//	  - type: element_absent
//	    element: S2
//	  - type: change
//	    pass: subset-pruning
//	    op: removed
//	    element: S2
//	  - type: root_role
//	    element: R1.a
//	    root: R2.a
//
// # Assertion Types
//
//   - iterations: the run took exactly count sweeps
//   - element_present / element_absent: an object type, relationship,
//     constraint or role (Relationship.role) is or is not in the result
//   - change: a pass logged op on element (pass and op optional)
//   - dropped: the dropped report equals values, in order
//   - root_role: the role's root role is root
//   - constraint_count: the result has exactly count constraints
//   - error: the run failed with the pipeline error code
//   - journal_status: the journaled run ended with status
//
// Each scenario runs against a fresh in-memory journal with sequential
// element and run IDs, so traces are reproducible and can be compared
// against golden files with RunWithGolden.
package harness
