package model

import (
	"fmt"
	"math"
	"slices"
)

// Kind enumerates the closed set of constraint kinds.
type Kind int

const (
	KindUniqueness Kind = iota
	KindFrequency
	KindMandatory
	KindValue
	KindSubset
	KindEquality
	KindSubtype
	KindRing
	KindCardinality
)

var kindNames = map[Kind]string{
	KindUniqueness:  "uniqueness",
	KindFrequency:   "frequency",
	KindMandatory:   "mandatory",
	KindValue:       "value",
	KindSubset:      "subset",
	KindEquality:    "equality",
	KindSubtype:     "subtype",
	KindRing:        "ring",
	KindCardinality: "cardinality",
}

// String returns the kind's lower-case name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Unbounded is the maximum frequency of a constraint with no upper bound.
const Unbounded = math.MaxInt

// Constraint is the sealed interface implemented by every constraint
// variant: *FrequencyConstraint, *MandatoryConstraint, *ValueConstraint,
// *SubsetConstraint, *SubtypeConstraint, *RingConstraint and
// *CardinalityConstraint. Dispatch on it with a type switch.
type Constraint interface {
	Element
	Kind() Kind
	// Covers returns the covered elements in order. Every element listed
	// here carries this constraint in its CoveredBy set while the
	// constraint is part of a Model.
	Covers() []Coverable
	constraint()
}

func rolesToCoverables(roles []*Role) []Coverable {
	out := make([]Coverable, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}

// FrequencyConstraint restricts how often a role combination may occur.
// Uniqueness is the special case min = max = 1. A constraint whose roles
// all lie on one relationship is internal; otherwise it is external and
// usually carries the join path connecting its relationships.
type FrequencyConstraint struct {
	entity
	roles         []*Role
	min, max      int
	identifierFor *ObjectType
	joinPath      *JoinPath
}

// NewFrequency creates a detached frequency constraint.
func NewFrequency(name string, roles []*Role, min, max int) *FrequencyConstraint {
	return &FrequencyConstraint{entity: entity{name: name}, roles: slices.Clone(roles), min: min, max: max}
}

// NewUniqueness creates a detached uniqueness constraint.
func NewUniqueness(name string, roles ...*Role) *FrequencyConstraint {
	return NewFrequency(name, roles, 1, 1)
}

// IdentifyingFor marks a detached constraint as the preferred reference
// scheme of obj.
func (c *FrequencyConstraint) IdentifyingFor(obj *ObjectType) *FrequencyConstraint {
	c.identifierFor = obj
	return c
}

// Along attaches a join path to a detached constraint.
func (c *FrequencyConstraint) Along(p *JoinPath) *FrequencyConstraint {
	c.joinPath = p
	return c
}

func (*FrequencyConstraint) constraint() {}

// Kind returns KindUniqueness when min = max = 1, else KindFrequency.
func (c *FrequencyConstraint) Kind() Kind {
	if c.IsUniqueness() {
		return KindUniqueness
	}
	return KindFrequency
}

// Covers returns the covered roles.
func (c *FrequencyConstraint) Covers() []Coverable { return rolesToCoverables(c.roles) }

// Roles returns the covered roles.
func (c *FrequencyConstraint) Roles() []*Role { return slices.Clone(c.roles) }

// Min returns the minimum frequency.
func (c *FrequencyConstraint) Min() int { return c.min }

// Max returns the maximum frequency (Unbounded when open).
func (c *FrequencyConstraint) Max() int { return c.max }

// IdentifierFor returns the object type this constraint identifies, or nil.
func (c *FrequencyConstraint) IdentifierFor() *ObjectType { return c.identifierFor }

// JoinPath returns the join path of an external constraint, or nil.
func (c *FrequencyConstraint) JoinPath() *JoinPath { return c.joinPath }

// IsUniqueness reports whether min = max = 1.
func (c *FrequencyConstraint) IsUniqueness() bool { return c.min == 1 && c.max == 1 }

// Internal reports whether every covered role lies on one relationship.
func (c *FrequencyConstraint) Internal() bool {
	if len(c.roles) == 0 {
		return false
	}
	rel := c.roles[0].relationship
	for _, r := range c.roles[1:] {
		if r.relationship != rel {
			return false
		}
	}
	return true
}

// Simple reports whether the constraint is internal and covers one role.
func (c *FrequencyConstraint) Simple() bool { return len(c.roles) == 1 && c.Internal() }

// Relationship returns the relationship of an internal constraint, or nil.
func (c *FrequencyConstraint) Relationship() *Relationship {
	if !c.Internal() {
		return nil
	}
	return c.roles[0].relationship
}

// MandatoryConstraint requires every instance of the covered roles' player
// to play at least one of the roles. A simple mandatory covers one role; a
// wider one is an inclusive-or (disjunctive) mandatory constraint.
type MandatoryConstraint struct {
	entity
	roles []*Role
}

// NewMandatory creates a detached mandatory constraint.
func NewMandatory(name string, roles ...*Role) *MandatoryConstraint {
	return &MandatoryConstraint{entity: entity{name: name}, roles: slices.Clone(roles)}
}

func (*MandatoryConstraint) constraint() {}

// Kind returns KindMandatory.
func (*MandatoryConstraint) Kind() Kind { return KindMandatory }

// Covers returns the covered roles.
func (c *MandatoryConstraint) Covers() []Coverable { return rolesToCoverables(c.roles) }

// Roles returns the covered roles.
func (c *MandatoryConstraint) Roles() []*Role { return slices.Clone(c.roles) }

// Simple reports whether the constraint covers exactly one role.
func (c *MandatoryConstraint) Simple() bool { return len(c.roles) == 1 }

// ValueConstraint restricts a role or object type to an enumerated domain.
type ValueConstraint struct {
	entity
	target Coverable
	domain *Domain
}

// NewValueConstraint creates a detached value constraint on a role or
// object type.
func NewValueConstraint(name string, target Coverable, d *Domain) *ValueConstraint {
	return &ValueConstraint{entity: entity{name: name}, target: target, domain: d.Clone()}
}

func (*ValueConstraint) constraint() {}

// Kind returns KindValue.
func (*ValueConstraint) Kind() Kind { return KindValue }

// Covers returns the single covered element.
func (c *ValueConstraint) Covers() []Coverable { return []Coverable{c.target} }

// Target returns the covered role or object type.
func (c *ValueConstraint) Target() Coverable { return c.target }

// Domain returns a copy of the admissible values.
func (c *ValueConstraint) Domain() *Domain { return c.domain.Clone() }

// SubsetConstraint requires the population of the subset role sequence to
// be contained in the population of the superset sequence. An equality
// constraint requires containment both ways.
type SubsetConstraint struct {
	entity
	subset   RoleSequence
	superset RoleSequence
	equality bool
}

// NewSubset creates a detached subset constraint.
func NewSubset(name string, subset, superset RoleSequence) *SubsetConstraint {
	return &SubsetConstraint{entity: entity{name: name}, subset: subset.clone(), superset: superset.clone()}
}

// NewEquality creates a detached equality constraint.
func NewEquality(name string, subset, superset RoleSequence) *SubsetConstraint {
	c := NewSubset(name, subset, superset)
	c.equality = true
	return c
}

func (*SubsetConstraint) constraint() {}

// Kind returns KindEquality for equality constraints, else KindSubset.
func (c *SubsetConstraint) Kind() Kind {
	if c.equality {
		return KindEquality
	}
	return KindSubset
}

// Equality reports whether this is an equality constraint.
func (c *SubsetConstraint) Equality() bool { return c.equality }

// Covers returns the subset roles followed by the superset roles.
func (c *SubsetConstraint) Covers() []Coverable {
	return rolesToCoverables(append(slices.Clone(c.subset.Roles), c.superset.Roles...))
}

// Subset returns the subset role sequence.
func (c *SubsetConstraint) Subset() RoleSequence { return c.subset.clone() }

// Superset returns the superset role sequence.
func (c *SubsetConstraint) Superset() RoleSequence { return c.superset.clone() }

// Pairs returns the number of (subset, superset) role pairs.
func (c *SubsetConstraint) Pairs() int { return min(len(c.subset.Roles), len(c.superset.Roles)) }

// SubtypeConstraint declares Subtype a subtype of Supertype.
type SubtypeConstraint struct {
	entity
	subtype     *ObjectType
	supertype   *ObjectType
	preferredID bool
}

// NewSubtype creates a detached subtype constraint. preferredID marks the
// edge as the preferred identification path.
func NewSubtype(name string, subtype, supertype *ObjectType, preferredID bool) *SubtypeConstraint {
	return &SubtypeConstraint{entity: entity{name: name}, subtype: subtype, supertype: supertype, preferredID: preferredID}
}

func (*SubtypeConstraint) constraint() {}

// Kind returns KindSubtype.
func (*SubtypeConstraint) Kind() Kind { return KindSubtype }

// Covers returns the subtype and the supertype.
func (c *SubtypeConstraint) Covers() []Coverable { return []Coverable{c.subtype, c.supertype} }

// Subtype returns the subtype.
func (c *SubtypeConstraint) Subtype() *ObjectType { return c.subtype }

// Supertype returns the supertype.
func (c *SubtypeConstraint) Supertype() *ObjectType { return c.supertype }

// PreferredID reports whether this edge is the preferred identification path.
func (c *SubtypeConstraint) PreferredID() bool { return c.preferredID }

// RingConstraint constrains how the roles of a relationship played by the
// same type relate (irreflexive, acyclic, ...).
type RingConstraint struct {
	entity
	roles    []*Role
	RingKind string
}

// NewRing creates a detached ring constraint.
func NewRing(name, ringKind string, roles ...*Role) *RingConstraint {
	return &RingConstraint{entity: entity{name: name}, roles: slices.Clone(roles), RingKind: ringKind}
}

func (*RingConstraint) constraint() {}

// Kind returns KindRing.
func (*RingConstraint) Kind() Kind { return KindRing }

// Covers returns the covered roles.
func (c *RingConstraint) Covers() []Coverable { return rolesToCoverables(c.roles) }

// CardinalityRange is a closed range; Upper < 0 means unbounded.
type CardinalityRange struct {
	Lower int
	Upper int
}

// String renders the range as lower..upper.
func (r CardinalityRange) String() string {
	if r.Upper < 0 {
		return fmt.Sprintf("%d..", r.Lower)
	}
	return fmt.Sprintf("%d..%d", r.Lower, r.Upper)
}

// CardinalityConstraint bounds the population size of a role or type.
type CardinalityConstraint struct {
	entity
	target Coverable
	Ranges []CardinalityRange
}

// NewCardinality creates a detached cardinality constraint.
func NewCardinality(name string, target Coverable, ranges ...CardinalityRange) *CardinalityConstraint {
	return &CardinalityConstraint{entity: entity{name: name}, target: target, Ranges: ranges}
}

func (*CardinalityConstraint) constraint() {}

// Kind returns KindCardinality.
func (*CardinalityConstraint) Kind() Kind { return KindCardinality }

// Covers returns the single covered element.
func (c *CardinalityConstraint) Covers() []Coverable { return []Coverable{c.target} }
