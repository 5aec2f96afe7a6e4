package transform

import (
	"cmp"
	"slices"

	"github.com/roach88/ormminus/internal/model"
)

// OverlappingFrequency strengthens internal frequency constraints whose
// role sets overlap on the same relationship until none overlap or no
// sound strengthening remains.
type OverlappingFrequency struct {
	pass
}

// NewOverlappingFrequency creates the overlapping-frequency pass.
func NewOverlappingFrequency(env Env) *OverlappingFrequency {
	return &OverlappingFrequency{pass: newPass(OverlappingFrequencyPass, env)}
}

// Execute runs one pass.
func (t *OverlappingFrequency) Execute() bool {
	t.begin()
	for _, rel := range t.graph().Relationships.All() {
		var ifcs []*model.FrequencyConstraint
		for _, fc := range constraintsOf[*model.FrequencyConstraint](t.graph()) {
			if fc.Relationship() == rel {
				ifcs = append(ifcs, fc)
			}
		}
		slices.SortStableFunc(ifcs, func(a, b *model.FrequencyConstraint) int {
			return cmp.Or(cmp.Compare(len(a.Roles()), len(b.Roles())), cmp.Compare(a.Name(), b.Name()))
		})
		for i, a := range ifcs {
			for _, b := range ifcs[i+1:] {
				if !t.graph().Has(a) {
					break
				}
				if t.graph().Has(b) {
					t.resolve(a, b)
				}
			}
		}
	}
	return t.log.Changed()
}

// resolve handles one pair; a never covers more roles than b.
func (t *OverlappingFrequency) resolve(a, b *model.FrequencyConstraint) {
	ra, rb := a.Roles(), b.Roles()
	if !overlaps(ra, rb) {
		return
	}
	switch {
	case subsetOf(ra, rb):
		t.contained(a, b)
	case subsetOf(rb, ra):
		t.contained(b, a)
	default:
		lower, upper := a, b
		if cmp.Or(cmp.Compare(b.Min(), a.Min()), cmp.Compare(b.Name(), a.Name())) < 0 {
			lower, upper = b, a
		}
		if lower.Min() != 1 {
			t.logger().Debug("leaving overlapping constraints", "first", a.Name(), "second", b.Name())
			return
		}
		t.shorten(lower, exclusive(lower.Roles(), upper.Roles()))
	}
}

// contained handles inner's roles lying within outer's. With unit minimums
// the outer constraint goes and the inner becomes a uniqueness constraint,
// unless the inner is already unique and the outer is not: then the outer
// is shortened to its exclusive roles.
func (t *OverlappingFrequency) contained(inner, outer *model.FrequencyConstraint) {
	switch {
	case inner.Min() == 1 && outer.Min() == 1 && !(inner.IsUniqueness() && !outer.IsUniqueness()):
		identifies := outer.IdentifierFor()
		t.remove(outer)
		if inner.Max() != 1 {
			t.graph().ReplaceFrequency(inner, 1, 1)
			t.modified(inner)
		}
		if identifies != nil && inner.IdentifierFor() == nil {
			t.graph().ReplaceIdentifierFor(inner, identifies)
			t.modified(inner)
		}
	case outer.Min() == 1:
		rest := exclusive(outer.Roles(), inner.Roles())
		if len(rest) == 0 {
			t.logger().Debug("leaving constraints with equal coverage", "inner", inner.Name(), "outer", outer.Name())
			return
		}
		t.shorten(outer, rest)
	default:
		t.logger().Debug("leaving nested constraints", "inner", inner.Name(), "outer", outer.Name())
	}
}

// shorten narrows fc to roles and makes it a uniqueness constraint.
func (t *OverlappingFrequency) shorten(fc *model.FrequencyConstraint, roles []*model.Role) {
	t.graph().ReplaceRoles(fc, roles)
	t.graph().ReplaceFrequency(fc, 1, 1)
	t.modified(fc)
	t.logger().Debug("strengthened frequency constraint", "constraint", fc.Name(), "roles", len(roles))
}

func overlaps(a, b []*model.Role) bool {
	return slices.ContainsFunc(a, func(r *model.Role) bool { return slices.Contains(b, r) })
}

func subsetOf(a, b []*model.Role) bool {
	for _, r := range a {
		if !slices.Contains(b, r) {
			return false
		}
	}
	return true
}

// exclusive returns the roles of a not in b, in a's order.
func exclusive(a, b []*model.Role) []*model.Role {
	var out []*model.Role
	for _, r := range a {
		if !slices.Contains(b, r) {
			out = append(out, r)
		}
	}
	return out
}
