package transform

import "github.com/roach88/ormminus/internal/model"

// EUCStrengthening replaces each external uniqueness constraint that spans
// a join path with internal uniqueness constraints: one on the covered role
// of the path's first relationship and one on the incoming role of every
// join.
type EUCStrengthening struct {
	pass
}

// NewEUCStrengthening creates the external-uniqueness strengthening pass.
func NewEUCStrengthening(env Env) *EUCStrengthening {
	return &EUCStrengthening{pass: newPass(EUCStrengtheningPass, env)}
}

// Execute runs one pass.
func (t *EUCStrengthening) Execute() bool {
	t.begin()
	for _, fc := range constraintsOf[*model.FrequencyConstraint](t.graph()) {
		if !fc.IsUniqueness() || fc.Internal() || fc.JoinPath().Len() == 0 {
			continue
		}
		t.strengthen(fc)
	}
	return t.log.Changed()
}

func (t *EUCStrengthening) strengthen(euc *model.FrequencyConstraint) {
	path := euc.JoinPath()
	first := path.Relationships()[0]
	var anchor *model.Role
	for _, r := range euc.Roles() {
		if r.Relationship() == first {
			anchor = r
			break
		}
	}
	if anchor == nil {
		t.logger().Debug("skipping external uniqueness without a role on its first relationship", "constraint", euc.Name(), "relationship", first.Name())
		return
	}

	owner := euc.IdentifierFor()
	var refRoles []*model.Role
	if owner != nil {
		refRoles = owner.RefRoles()
	}
	t.remove(euc)
	t.requireUnique(anchor)
	if owner != nil {
		t.graph().SetRefRoles(owner, refRoles)
		t.modified(owner)
	}
	for _, j := range path.Joins() {
		if t.graph().Has(j.In) {
			t.requireUnique(j.In)
		}
	}
}
