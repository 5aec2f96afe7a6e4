package pipeline

import (
	"fmt"
	"slices"

	"github.com/roach88/ormminus/internal/transform"
)

// Factory creates a pass over env.
type Factory func(env transform.Env) transform.Transformation

var registry = map[string]Factory{
	transform.ValueConstraintsPass:     func(env transform.Env) transform.Transformation { return transform.NewValueConstraints(env) },
	transform.AbsorptionPass:           func(env transform.Env) transform.Transformation { return transform.NewAbsorption(env) },
	transform.DisjunctiveReferencePass: func(env transform.Env) transform.Transformation { return transform.NewDisjunctiveReference(env) },
	transform.JoinPathsPass:            func(env transform.Env) transform.Transformation { return transform.NewJoinPaths(env) },
	transform.EUCStrengtheningPass:     func(env transform.Env) transform.Transformation { return transform.NewEUCStrengthening(env) },
	transform.OverlappingFrequencyPass: func(env transform.Env) transform.Transformation { return transform.NewOverlappingFrequency(env) },
	transform.SubsetPruningPass:        func(env transform.Env) transform.Transformation { return transform.NewSubsetPruning(env) },
	transform.TupleSubsetsPass:         func(env transform.Env) transform.Transformation { return transform.NewTupleSubsets(env) },
	transform.RootRolesPass:            func(env transform.Env) transform.Transformation { return transform.NewRootRoles(env) },
}

// DefaultPasses returns the full pipeline in execution order.
func DefaultPasses() []string {
	return []string{
		transform.ValueConstraintsPass,
		transform.AbsorptionPass,
		transform.DisjunctiveReferencePass,
		transform.JoinPathsPass,
		transform.EUCStrengtheningPass,
		transform.OverlappingFrequencyPass,
		transform.SubsetPruningPass,
		transform.TupleSubsetsPass,
		transform.RootRolesPass,
	}
}

// validatePasses rejects unknown and repeated pass names.
func validatePasses(names []string) error {
	for i, name := range names {
		if _, ok := registry[name]; !ok {
			return &PipelineError{
				Code:    ErrCodeUnknownPass,
				Message: fmt.Sprintf("unknown pass %q", name),
				Details: map[string]string{"known": fmt.Sprint(DefaultPasses())},
			}
		}
		if slices.Contains(names[:i], name) {
			return &PipelineError{
				Code:    ErrCodeUnknownPass,
				Message: fmt.Sprintf("pass %q listed twice", name),
			}
		}
	}
	return nil
}
