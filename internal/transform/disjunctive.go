package transform

import "github.com/roach88/ormminus/internal/model"

// DisjunctiveReference replaces disjunctive reference schemes with
// conjunctive ones: every reference role becomes mandatory and inclusive-or
// mandatory constraints over reference roles are dropped.
type DisjunctiveReference struct {
	pass
}

// NewDisjunctiveReference creates the disjunctive-reference pass.
func NewDisjunctiveReference(env Env) *DisjunctiveReference {
	return &DisjunctiveReference{pass: newPass(DisjunctiveReferencePass, env)}
}

// Execute runs one pass.
func (t *DisjunctiveReference) Execute() bool {
	t.begin()
	for _, obj := range t.graph().ObjectTypes.All() {
		for _, r := range obj.RefRoles() {
			for _, c := range r.CoveredBy() {
				if mc, ok := c.(*model.MandatoryConstraint); ok && !mc.Simple() {
					t.logger().Debug("dropping disjunctive mandatory", "constraint", mc.Name(), "object_type", obj.Name())
					t.remove(mc)
				}
			}
			t.requireMandatory(r)
		}
	}
	return t.log.Changed()
}
