package transform

import (
	"slices"

	"github.com/roach88/ormminus/internal/model"
)

// SubsetPruning removes subset and equality constraints ORM- cannot
// express, strengthens the implicit disjunctive mandatory rule where a
// subset makes it explicit, and then breaks every cycle in the subset graph.
type SubsetPruning struct {
	pass
}

// NewSubsetPruning creates the subset pruning and cycle breaking pass.
func NewSubsetPruning(env Env) *SubsetPruning {
	return &SubsetPruning{pass: newPass(SubsetPruningPass, env)}
}

// Execute runs one pass.
func (t *SubsetPruning) Execute() bool {
	t.begin()
	for _, sc := range constraintsOf[*model.SubsetConstraint](t.graph()) {
		if reason := t.unsupported(sc); reason != "" {
			t.logger().Debug("removing subset constraint", "constraint", sc.Name(), "reason", reason)
			t.remove(sc)
			continue
		}
		sub, sup := sc.Subset().Roles, sc.Superset().Roles
		for i := range sub {
			if implicitMandatory(sub[i], sup[i]) {
				t.requireMandatory(sub[i])
			}
		}
	}
	for _, sc := range model.SubsetBackEdges(t.graph()) {
		t.logger().Debug("breaking subset cycle", "constraint", sc.Name())
		t.remove(sc)
	}
	return t.log.Changed()
}

// unsupported returns why sc must be removed, or "".
func (t *SubsetPruning) unsupported(sc *model.SubsetConstraint) string {
	sub, sup := sc.Subset(), sc.Superset()
	if sub.JoinPath != nil || sup.JoinPath != nil {
		return "join path"
	}
	if len(sub.Roles) != len(sup.Roles) || len(sub.Roles) == 0 {
		return "sequence length mismatch"
	}
	covers := sc.Covers()
	for i, el := range covers {
		if slices.Contains(covers[i+1:], el) {
			return "role covered twice"
		}
	}
	for i := range sub.Roles {
		if !t.lineage().Compatible(sub.Roles[i].Player(), sup.Roles[i].Player()) {
			return "incompatible players"
		}
	}
	return ""
}

// implicitMandatory reports whether the subset makes the implicit
// disjunctive mandatory rule force sub to be mandatory.
func implicitMandatory(sub, sup *model.Role) bool {
	player := sub.Player()
	if !player.SubjectToIDMC() || player.IsRefRole(sub) || sub.Mandatory() {
		return false
	}
	return sup.Player().IsRefRole(sup) || !sup.Player().Primitive()
}
