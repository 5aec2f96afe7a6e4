package loader

// Document is the on-disk form of a schema. The same structure is decoded
// from YAML (yaml tags) and CUE (json tags).
//
// Roles are referenced as "Relationship.role". A value or cardinality
// target is either an object type name or a role reference.
type Document struct {
	Name          string            `json:"name,omitempty" yaml:"name,omitempty"`
	ObjectTypes   []ObjectTypeDoc   `json:"object_types,omitempty" yaml:"object_types,omitempty"`
	Relationships []RelationshipDoc `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Constraints   []ConstraintDoc   `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// Rules are derivation rules. They are not part of the schema graph
	// and are reported as dropped.
	Rules []string `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// ObjectTypeDoc declares an object type.
type ObjectTypeDoc struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"` // entity (default), value, objectified
	Independent bool   `json:"independent,omitempty" yaml:"independent,omitempty"`
	DataType    string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	Nests       string `json:"nests,omitempty" yaml:"nests,omitempty"`
}

// RelationshipDoc declares a relationship and its roles.
type RelationshipDoc struct {
	Name    string    `json:"name" yaml:"name"`
	Roles   []RoleDoc `json:"roles" yaml:"roles"`
	Derived bool      `json:"derived,omitempty" yaml:"derived,omitempty"`
}

// RoleDoc declares one role. The name defaults to the player's name in
// lower case.
type RoleDoc struct {
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Player string `json:"player" yaml:"player"`
}

// ConstraintDoc declares a constraint. Which fields apply depends on Kind:
//
//	uniqueness   roles, identifies, join
//	frequency    roles, min, max (omitted: unbounded), identifies, join
//	mandatory    roles
//	value        target, values, ranges
//	subset       subset, superset
//	equality     subset, superset
//	subtype      subtype, supertype, preferred
//	ring         roles, ring
//	cardinality  target, cardinality
type ConstraintDoc struct {
	Name       string    `json:"name" yaml:"name"`
	Kind       string    `json:"kind" yaml:"kind"`
	Roles      []string  `json:"roles,omitempty" yaml:"roles,omitempty"`
	Min        *int      `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *int      `json:"max,omitempty" yaml:"max,omitempty"`
	Identifies string    `json:"identifies,omitempty" yaml:"identifies,omitempty"`
	Join       []JoinDoc `json:"join,omitempty" yaml:"join,omitempty"`

	Target string     `json:"target,omitempty" yaml:"target,omitempty"`
	Values []any      `json:"values,omitempty" yaml:"values,omitempty"`
	Ranges []RangeDoc `json:"ranges,omitempty" yaml:"ranges,omitempty"`

	Subset   *SequenceDoc `json:"subset,omitempty" yaml:"subset,omitempty"`
	Superset *SequenceDoc `json:"superset,omitempty" yaml:"superset,omitempty"`

	Subtype   string `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Supertype string `json:"supertype,omitempty" yaml:"supertype,omitempty"`
	Preferred bool   `json:"preferred,omitempty" yaml:"preferred,omitempty"`

	Ring        string           `json:"ring,omitempty" yaml:"ring,omitempty"`
	Cardinality []CardinalityDoc `json:"cardinality,omitempty" yaml:"cardinality,omitempty"`
}

// SequenceDoc is one side of a subset or equality constraint.
type SequenceDoc struct {
	Roles []string  `json:"roles" yaml:"roles"`
	Join  []JoinDoc `json:"join,omitempty" yaml:"join,omitempty"`
}

// JoinDoc equates two roles of a join path. Out must lie on a relationship
// already on the path; In adds its relationship to the path.
type JoinDoc struct {
	Out string `json:"out" yaml:"out"`
	In  string `json:"in" yaml:"in"`
}

// RangeDoc is a closed integer range of admissible values.
type RangeDoc struct {
	From int64 `json:"from" yaml:"from"`
	To   int64 `json:"to" yaml:"to"`
}

// CardinalityDoc is a closed cardinality range; an omitted upper bound is
// unbounded.
type CardinalityDoc struct {
	Lower int  `json:"lower" yaml:"lower"`
	Upper *int `json:"upper,omitempty" yaml:"upper,omitempty"`
}
