package testutil

import (
	"fmt"
	"strings"

	"github.com/roach88/ormminus/internal/model"
)

// Schema builds small models for tests. Every element is added to M as
// soon as it is built, and IDs are sequential.
type Schema struct {
	M *model.Model
}

// NewSchema creates an empty schema with sequential IDs.
func NewSchema() *Schema {
	return &Schema{M: model.New(model.WithIDGenerator(NewSequentialIDs("")))}
}

// Entity adds an entity type.
func (s *Schema) Entity(name string) *model.ObjectType {
	o := model.NewObjectType(name, model.EntityType)
	s.M.Add(o)
	return o
}

// ValueType adds a value type.
func (s *Schema) ValueType(name string) *model.ObjectType {
	o := model.NewObjectType(name, model.ValueType)
	s.M.Add(o)
	return o
}

// Fact adds a relationship with one role per player. Roles are named after
// their players in lower case; repeats get numeric suffixes.
func (s *Schema) Fact(name string, players ...*model.ObjectType) *model.Relationship {
	rel := model.NewRelationship(name)
	for _, p := range players {
		rel.AddRole(strings.ToLower(p.Name()), p)
	}
	s.M.Add(rel)
	return rel
}

// Unique adds a uniqueness constraint.
func (s *Schema) Unique(name string, roles ...*model.Role) *model.FrequencyConstraint {
	c := model.NewUniqueness(name, roles...)
	s.M.Add(c)
	return c
}

// Identifier adds a uniqueness constraint that is obj's preferred
// reference scheme.
func (s *Schema) Identifier(name string, obj *model.ObjectType, roles ...*model.Role) *model.FrequencyConstraint {
	c := model.NewUniqueness(name, roles...).IdentifyingFor(obj)
	s.M.Add(c)
	return c
}

// Frequency adds a frequency constraint.
func (s *Schema) Frequency(name string, minFreq, maxFreq int, roles ...*model.Role) *model.FrequencyConstraint {
	c := model.NewFrequency(name, roles, minFreq, maxFreq)
	s.M.Add(c)
	return c
}

// Mandatory adds a mandatory constraint.
func (s *Schema) Mandatory(name string, roles ...*model.Role) *model.MandatoryConstraint {
	c := model.NewMandatory(name, roles...)
	s.M.Add(c)
	return c
}

// Subset adds a subset constraint between two role sequences without
// join paths.
func (s *Schema) Subset(name string, subset, superset []*model.Role) *model.SubsetConstraint {
	c := model.NewSubset(name, model.Seq(subset...), model.Seq(superset...))
	s.M.Add(c)
	return c
}

// Equality adds an equality constraint between two role sequences.
func (s *Schema) Equality(name string, subset, superset []*model.Role) *model.SubsetConstraint {
	c := model.NewEquality(name, model.Seq(subset...), model.Seq(superset...))
	s.M.Add(c)
	return c
}

// Subtype adds a subtype constraint.
func (s *Schema) Subtype(name string, sub, sup *model.ObjectType, preferredID bool) *model.SubtypeConstraint {
	c := model.NewSubtype(name, sub, sup, preferredID)
	s.M.Add(c)
	return c
}

// Values adds a value constraint enumerating vals on a role or type.
func (s *Schema) Values(name string, target model.Coverable, vals ...any) *model.ValueConstraint {
	c := model.NewValueConstraint(name, target, Domain(vals...))
	s.M.Add(c)
	return c
}

// Domain builds a domain from strings and integers. It panics on any other
// value type.
func Domain(vals ...any) *model.Domain {
	d := model.NewDomain()
	for _, v := range vals {
		val, err := model.ValueOf(v)
		if err != nil {
			panic(fmt.Sprintf("testutil.Domain: %v", err))
		}
		d.Add(val)
	}
	return d
}

// Role returns the role named name on rel, failing loudly when absent.
func Role(rel *model.Relationship, name string) *model.Role {
	r := rel.Role(name)
	if r == nil {
		panic(fmt.Sprintf("testutil.Role: %s has no role %q", rel.Name(), name))
	}
	return r
}
