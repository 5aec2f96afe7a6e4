package model

import "slices"

// ObjectKind distinguishes the object type variants.
type ObjectKind int

const (
	// EntityType is a primitive entity type that requires identification.
	EntityType ObjectKind = iota
	// ValueType is a self-identifying primitive value type.
	ValueType
	// ObjectifiedType nests (objectifies) a relationship.
	ObjectifiedType
)

// String returns the kind's lower-case name.
func (k ObjectKind) String() string {
	switch k {
	case EntityType:
		return "entity"
	case ValueType:
		return "value"
	case ObjectifiedType:
		return "objectified"
	default:
		return "unknown"
	}
}

// ObjectType is a type in the schema.
type ObjectType struct {
	entity
	coverage

	Kind ObjectKind

	// Independent object types may exist without playing a mandatory role.
	Independent bool

	// DataType names the unconstrained conceptual data type (e.g. "string").
	DataType string

	// Nests is the relationship an objectified type objectifies.
	Nests *Relationship

	roles       []*Role
	refRoles    []*Role
	identifying *FrequencyConstraint
	supertypes  []*ObjectType
	subtypes    []*ObjectType
}

// NewObjectType creates a detached object type.
func NewObjectType(name string, kind ObjectKind) *ObjectType {
	return &ObjectType{entity: entity{name: name}, Kind: kind, DataType: "string"}
}

// Roles returns the roles played by this type, in the order their
// relationships were added.
func (o *ObjectType) Roles() []*Role { return slices.Clone(o.roles) }

// RefRoles returns the roles of this type's reference scheme.
func (o *ObjectType) RefRoles() []*Role { return slices.Clone(o.refRoles) }

// IsRefRole reports whether r belongs to this type's reference scheme.
func (o *ObjectType) IsRefRole(r *Role) bool { return slices.Contains(o.refRoles, r) }

// NonRefRoles returns the played roles outside the reference scheme.
func (o *ObjectType) NonRefRoles() []*Role {
	var out []*Role
	for _, r := range o.roles {
		if !o.IsRefRole(r) {
			out = append(out, r)
		}
	}
	return out
}

// IdentifyingConstraint returns the uniqueness constraint forming this
// type's preferred reference scheme, or nil.
func (o *ObjectType) IdentifyingConstraint() *FrequencyConstraint { return o.identifying }

// DirectSupertypes returns the immediate supertypes.
func (o *ObjectType) DirectSupertypes() []*ObjectType { return slices.Clone(o.supertypes) }

// DirectSubtypes returns the immediate subtypes.
func (o *ObjectType) DirectSubtypes() []*ObjectType { return slices.Clone(o.subtypes) }

// Primitive is true unless the type was introduced as a subtype.
func (o *ObjectType) Primitive() bool { return len(o.supertypes) == 0 }

// SubjectToIDMC reports whether the implicit disjunctive mandatory
// constraint applies: the type is primitive, not independent, and plays at
// least one role outside its reference scheme.
func (o *ObjectType) SubjectToIDMC() bool {
	return o.Primitive() && !o.Independent && len(o.NonRefRoles()) > 0
}

// ValueConstraints returns the value constraints covering this type.
func (o *ObjectType) ValueConstraints() []*ValueConstraint {
	var out []*ValueConstraint
	for _, c := range o.by {
		if vc, ok := c.(*ValueConstraint); ok {
			out = append(out, vc)
		}
	}
	return out
}

// Domain returns the admissible values of this type: the intersection of
// every value constraint covering it, in the first constraint's order. It
// returns nil when no value constraint applies (the data type is unbounded).
func (o *ObjectType) Domain() *Domain {
	var d *Domain
	for _, vc := range o.ValueConstraints() {
		if d == nil {
			d = vc.domain.Clone()
			continue
		}
		d = d.Intersect(vc.domain)
	}
	return d
}
