package model

import (
	"slices"
	"strconv"
)

// Relationship is a fact type: an ordered sequence of roles.
type Relationship struct {
	entity

	// ObjectifiedBy is the objectified type nesting this relationship, if any.
	ObjectifiedBy *ObjectType

	roles []*Role
}

// NewRelationship creates a detached relationship with no roles.
func NewRelationship(name string) *Relationship {
	return &Relationship{entity: entity{name: name}}
}

// AddRole appends a role played by player. Role names are unique within the
// relationship and are disambiguated the same way element names are. Roles
// must be added before the relationship is added to a Model.
func (r *Relationship) AddRole(name string, player *ObjectType) *Role {
	base, unique := name, name
	for i := 2; r.Role(unique) != nil; i++ {
		unique = base + strconv.Itoa(i)
	}
	role := &Role{entity: entity{name: unique}, relationship: r, player: player}
	r.roles = append(r.roles, role)
	return role
}

// Roles returns the roles in order.
func (r *Relationship) Roles() []*Role { return slices.Clone(r.roles) }

// Role returns the role with the given name, or nil.
func (r *Relationship) Role(name string) *Role {
	for _, role := range r.roles {
		if role.name == name {
			return role
		}
	}
	return nil
}

// Arity returns the number of roles.
func (r *Relationship) Arity() int { return len(r.roles) }

// Objectified reports whether an objectified type nests this relationship.
func (r *Relationship) Objectified() bool { return r.ObjectifiedBy != nil }

// SourceNames maps each role name to the name of the relationship the role
// was originally declared on, for roles synthesized by a rewrite.
func (r *Relationship) SourceNames() map[string]string {
	out := make(map[string]string)
	for _, role := range r.roles {
		if role.source != "" {
			out[role.name] = role.source
		}
	}
	return out
}

// Role is one typed argument position of a relationship.
type Role struct {
	entity
	coverage

	relationship *Relationship
	player       *ObjectType
	root         *Role
	source       string
}

// Relationship returns the owning relationship.
func (r *Role) Relationship() *Relationship { return r.relationship }

// Player returns the object type playing the role.
func (r *Role) Player() *ObjectType { return r.player }

// FullName returns "Relationship.role".
func (r *Role) FullName() string { return r.relationship.name + "." + r.name }

// RootRole returns the root of the role's unified subset group, or nil.
func (r *Role) RootRole() *Role { return r.root }

// Source returns the relationship the role was originally declared on when
// a rewrite moved it, or "".
func (r *Role) Source() string { return r.source }

// SetSource records the original relationship name of a synthesized role.
// It must be called before the role's relationship is added to a Model.
func (r *Role) SetSource(name string) { r.source = name }

// Mandatory reports whether a simple mandatory constraint covers the role.
func (r *Role) Mandatory() bool {
	for _, c := range r.by {
		if mc, ok := c.(*MandatoryConstraint); ok && mc.Simple() {
			return true
		}
	}
	return false
}

// Unique reports whether a simple internal uniqueness constraint covers
// the role.
func (r *Role) Unique() bool {
	for _, c := range r.by {
		if fc, ok := c.(*FrequencyConstraint); ok && fc.IsUniqueness() && fc.Simple() {
			return true
		}
	}
	return false
}
