package model

import (
	"fmt"
	"slices"
)

// Model is the schema graph: the owner of every object type, relationship
// and constraint.
type Model struct {
	ObjectTypes   *ElementSet[*ObjectType]
	Relationships *ElementSet[*Relationship]
	Constraints   *ElementSet[Constraint]

	ids IDGenerator
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator sets the generator used to assign element IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Model) { m.ids = g }
}

// New creates an empty Model. IDs default to UUIDv7.
func New(opts ...Option) *Model {
	m := &Model{
		ObjectTypes:   newElementSet[*ObjectType](),
		Relationships: newElementSet[*Relationship](),
		Constraints:   newElementSet[Constraint](),
		ids:           UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) assignID(e Element) {
	if e.ID() == "" {
		e.setID(ID(m.ids.Generate()))
	}
}

// Add inserts e into the model. Names are disambiguated per kind. Adding a
// relationship registers its roles with their players; adding a constraint
// commits its back-references.
//
// Add panics when e references elements outside the model: a constraint
// covering a foreign role, or a relationship whose player is not present.
// Loaders check their input before calling Add.
func (m *Model) Add(e Element) {
	switch v := e.(type) {
	case *ObjectType:
		m.assignID(v)
		m.ObjectTypes.add(v)
	case *Relationship:
		for _, r := range v.roles {
			if !m.ObjectTypes.Contains(r.player) {
				panic(fmt.Sprintf("model: role %s is played by %q, which is not in the model", r.FullName(), r.player.Name()))
			}
		}
		m.assignID(v)
		m.Relationships.add(v)
		for _, r := range v.roles {
			m.assignID(r)
			r.player.roles = append(r.player.roles, r)
		}
	case Constraint:
		for _, el := range v.Covers() {
			if !m.Has(el) {
				panic(fmt.Sprintf("model: constraint %q covers %q, which is not in the model", v.Name(), el.Name()))
			}
		}
		m.assignID(v)
		m.Constraints.add(v)
		m.commit(v)
	default:
		panic(fmt.Sprintf("model: cannot add %T", e))
	}
}

// Has reports whether e is part of the model. A role is part of the model
// when its relationship is.
func (m *Model) Has(e Element) bool {
	switch v := e.(type) {
	case *ObjectType:
		return m.ObjectTypes.Contains(v)
	case *Relationship:
		return m.Relationships.Contains(v)
	case *Role:
		return v.relationship != nil && m.Relationships.Contains(v.relationship) && slices.Contains(v.relationship.roles, v)
	case Constraint:
		return m.Constraints.Contains(v)
	default:
		return false
	}
}

// Remove deletes e and severs every back-reference it held. Removing a
// relationship or object type first removes every constraint covering it
// (or its roles). Remove returns everything it removed, cascaded
// constraints first; it returns nil when e is not in the model.
//
// Removing an object type that still plays roles panics.
func (m *Model) Remove(e Element) []Element {
	if !m.Has(e) {
		return nil
	}
	var removed []Element
	switch v := e.(type) {
	case Constraint:
		m.rollback(v)
		m.Constraints.remove(v)
		removed = append(removed, v)
	case *Relationship:
		for _, r := range v.roles {
			for _, c := range r.CoveredBy() {
				removed = append(removed, m.Remove(c)...)
			}
		}
		for _, r := range v.roles {
			r.player.roles = slices.DeleteFunc(r.player.roles, func(x *Role) bool { return x == r })
			r.player.refRoles = slices.DeleteFunc(r.player.refRoles, func(x *Role) bool { return x == r })
		}
		if v.ObjectifiedBy != nil && v.ObjectifiedBy.Nests == v {
			v.ObjectifiedBy.Nests = nil
		}
		m.Relationships.remove(v)
		removed = append(removed, v)
	case *ObjectType:
		if len(v.roles) > 0 {
			panic(fmt.Sprintf("model: cannot remove object type %q while it plays %d role(s)", v.Name(), len(v.roles)))
		}
		for _, c := range v.CoveredBy() {
			removed = append(removed, m.Remove(c)...)
		}
		m.ObjectTypes.remove(v)
		removed = append(removed, v)
	}
	return removed
}

// commit covers every element of c and applies c's side effects.
func (m *Model) commit(c Constraint) {
	for _, el := range c.Covers() {
		el.backRefs().add(c)
	}
	switch v := c.(type) {
	case *FrequencyConstraint:
		if obj := v.identifierFor; obj != nil {
			obj.identifying = v
			obj.refRoles = referenceRoles(obj, v.roles)
		}
	case *SubtypeConstraint:
		if !slices.Contains(v.supertype.subtypes, v.subtype) {
			v.supertype.subtypes = append(v.supertype.subtypes, v.subtype)
		}
		if !slices.Contains(v.subtype.supertypes, v.supertype) {
			v.subtype.supertypes = append(v.subtype.supertypes, v.supertype)
		}
	}
}

// rollback uncovers every element of c and undoes c's side effects.
func (m *Model) rollback(c Constraint) {
	for _, el := range c.Covers() {
		el.backRefs().remove(c)
	}
	switch v := c.(type) {
	case *FrequencyConstraint:
		if obj := v.identifierFor; obj != nil && obj.identifying == v {
			obj.identifying = nil
			obj.refRoles = nil
		}
	case *SubtypeConstraint:
		v.supertype.subtypes = slices.DeleteFunc(v.supertype.subtypes, func(x *ObjectType) bool { return x == v.subtype })
		v.subtype.supertypes = slices.DeleteFunc(v.subtype.supertypes, func(x *ObjectType) bool { return x == v.supertype })
	}
}

// referenceRoles returns the roles obj plays in the relationships spanned
// by roles, in relationship order.
func referenceRoles(obj *ObjectType, roles []*Role) []*Role {
	var rels []*Relationship
	for _, r := range roles {
		if !slices.Contains(rels, r.relationship) {
			rels = append(rels, r.relationship)
		}
	}
	var out []*Role
	for _, rel := range rels {
		for _, r := range rel.roles {
			if r.player == obj {
				out = append(out, r)
			}
		}
	}
	return out
}

// edit brackets fn with rollback and commit when c is part of the model,
// so fn may freely reassign c's coverage-bearing fields.
func (m *Model) edit(c Constraint, fn func()) {
	attached := m.Constraints.Contains(c)
	if attached {
		m.rollback(c)
	}
	fn()
	if attached {
		m.commit(c)
	}
}

// ReplaceRoles changes the roles covered by a frequency, mandatory or ring
// constraint.
func (m *Model) ReplaceRoles(c Constraint, roles []*Role) {
	roles = slices.Clone(roles)
	m.edit(c, func() {
		switch v := c.(type) {
		case *FrequencyConstraint:
			v.roles = roles
		case *MandatoryConstraint:
			v.roles = roles
		case *RingConstraint:
			v.roles = roles
		default:
			panic(fmt.Sprintf("model: ReplaceRoles does not apply to %s constraints", c.Kind()))
		}
	})
}

// ReplaceFrequency changes the bounds of a frequency constraint. Bounds
// decide whether the constraint counts as uniqueness, which in turn decides
// Role.Unique, so the edit is bracketed like any coverage change.
func (m *Model) ReplaceFrequency(c *FrequencyConstraint, minFreq, maxFreq int) {
	m.edit(c, func() {
		c.min, c.max = minFreq, maxFreq
	})
}

// ReplaceIdentifierFor changes the object type c identifies (nil clears it).
func (m *Model) ReplaceIdentifierFor(c *FrequencyConstraint, obj *ObjectType) {
	m.edit(c, func() {
		c.identifierFor = obj
	})
}

// ReplaceValue moves a value constraint to target and sets its domain.
func (m *Model) ReplaceValue(c *ValueConstraint, target Coverable, d *Domain) {
	if m.Constraints.Contains(c) && !m.Has(target) {
		panic(fmt.Sprintf("model: value constraint %q cannot cover %q, which is not in the model", c.Name(), target.Name()))
	}
	d = d.Clone()
	m.edit(c, func() {
		c.target = target
		c.domain = d
	})
}

// ReplaceSequences changes both role sequences of a subset or equality
// constraint.
func (m *Model) ReplaceSequences(c *SubsetConstraint, subset, superset RoleSequence) {
	subset, superset = subset.clone(), superset.clone()
	m.edit(c, func() {
		c.subset = subset
		c.superset = superset
	})
}

// SetRefRoles overrides the reference roles of obj. It is used to restore
// a reference scheme after its identifying constraint has been replaced by
// one that does not cover the whole scheme.
func (m *Model) SetRefRoles(obj *ObjectType, roles []*Role) {
	obj.refRoles = slices.Clone(roles)
}

// SetRootRole tags r with the root of its unified subset group (nil clears
// the tag).
func (m *Model) SetRootRole(r, root *Role) {
	r.root = root
}

// Roles returns every role of every relationship, in model order.
func (m *Model) Roles() []*Role {
	var out []*Role
	for _, rel := range m.Relationships.All() {
		out = append(out, rel.roles...)
	}
	return out
}
