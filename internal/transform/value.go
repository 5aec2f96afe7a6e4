package transform

import "github.com/roach88/ormminus/internal/model"

// ValueConstraints moves role value constraints onto object types where
// that is sound, and leaves at most one subtype value constraint per
// subtype lineage, pruned to and ordered first within the root's domain.
type ValueConstraints struct {
	pass
}

// NewValueConstraints creates the value-constraint relocation pass.
func NewValueConstraints(env Env) *ValueConstraints {
	return &ValueConstraints{pass: newPass(ValueConstraintsPass, env)}
}

// Execute runs one pass.
func (t *ValueConstraints) Execute() bool {
	t.begin()
	seen := make(map[*model.ObjectType]bool)
	for _, vc := range constraintsOf[*model.ValueConstraint](t.graph()) {
		if !t.graph().Has(vc) {
			continue
		}
		switch target := vc.Target().(type) {
		case *model.Role:
			t.relocate(vc, target)
		case *model.ObjectType:
			if !target.Primitive() {
				t.subtype(vc, target, seen)
			}
		}
	}
	return t.log.Changed()
}

// relocate moves vc from role to its player when the role is the player's
// only role and is mandatory, explicitly or implicitly. Otherwise vc is
// removed. A player that is already value constrained keeps its first
// value constraint, narrowed to the intersection of every domain.
func (t *ValueConstraints) relocate(vc *model.ValueConstraint, role *model.Role) {
	obj := role.Player()
	if len(obj.Roles()) != 1 || !(role.Mandatory() || !obj.Independent) {
		t.logger().Debug("dropping role value constraint", "constraint", vc.Name(), "role", role.FullName())
		t.remove(vc)
		return
	}
	existing := obj.ValueConstraints()
	if len(existing) == 0 {
		t.graph().ReplaceValue(vc, obj, vc.Domain())
		t.modified(vc)
		t.logger().Debug("moved role value constraint", "constraint", vc.Name(), "object_type", obj.Name())
		return
	}

	keep := existing[0]
	d := keep.Domain()
	for _, other := range existing[1:] {
		d = d.Intersect(other.Domain())
		t.remove(other)
	}
	d = d.Intersect(vc.Domain())
	t.remove(vc)
	if !d.Equal(keep.Domain()) {
		t.graph().ReplaceValue(keep, obj, d)
		t.modified(keep)
	}
	t.logger().Debug("merged role value constraint", "constraint", vc.Name(), "into", keep.Name(), "domain", d.String())
}

// subtype keeps the first value constraint found in each lineage, provided
// the lineage root is itself value constrained.
func (t *ValueConstraints) subtype(vc *model.ValueConstraint, sub *model.ObjectType, seen map[*model.ObjectType]bool) {
	root := t.lineage().RootOf(sub)
	rootVCs := root.ValueConstraints()
	if seen[root] || len(rootVCs) == 0 {
		t.logger().Debug("dropping subtype value constraint", "constraint", vc.Name(), "root", root.Name())
		t.remove(vc)
		return
	}
	seen[root] = true

	rootDomain := root.Domain()
	pruned := vc.Domain().Intersect(rootDomain)
	if !pruned.Equal(vc.Domain()) {
		t.graph().ReplaceValue(vc, sub, pruned)
		t.modified(vc)
	}

	first := rootVCs[0]
	ordered := rootDomain.PreferFirst(pruned)
	if !ordered.Equal(first.Domain()) {
		t.graph().ReplaceValue(first, root, ordered)
		t.modified(first)
	}
}
