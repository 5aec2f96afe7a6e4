package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
	"github.com/roach88/ormminus/internal/transform"
)

func ternary(s *testutil.Schema) (a, b, c *model.Role) {
	rel := s.Fact("ABC", s.Entity("A"), s.Entity("B"), s.Entity("C"))
	roles := rel.Roles()
	return roles[0], roles[1], roles[2]
}

func TestOverlappingFrequency_ContainedUniquenessIsRemoved(t *testing.T) {
	s := testutil.NewSchema()
	person := s.Entity("Person")
	rel := s.Fact("PersonHasNameAge", person, s.ValueType("Name"), s.ValueType("Age"))
	name, age := rel.Roles()[1], rel.Roles()[2]
	pk := s.Identifier("PK", person, name, age)
	fc := s.Frequency("FC", 1, 2, name)

	tr := transform.NewOverlappingFrequency(envFor(t, s))
	require.True(t, tr.Execute())

	assert.False(t, s.M.Has(pk))
	assert.True(t, fc.IsUniqueness())
	assert.Same(t, person, fc.IdentifierFor())
	assert.Same(t, fc, person.IdentifyingConstraint())
	assert.Equal(t, []*model.Role{rel.Roles()[0]}, person.RefRoles())
	assert.Equal(t, []string{"FC"}, names(tr.Changes().Modified))
	assertFixpoint(t, s.M, tr)
}

func TestOverlappingFrequency_OuterIsShortened(t *testing.T) {
	s := testutil.NewSchema()
	a, b, _ := ternary(s)
	inner := s.Frequency("F1", 2, 3, a)
	outer := s.Frequency("F2", 1, 4, a, b)

	tr := transform.NewOverlappingFrequency(envFor(t, s))
	require.True(t, tr.Execute())

	assert.Equal(t, []*model.Role{b}, outer.Roles())
	assert.True(t, outer.IsUniqueness())
	assert.Equal(t, 2, inner.Min())
	assert.Equal(t, 3, inner.Max())
	assertFixpoint(t, s.M, tr)
}

func TestOverlappingFrequency_UnitMinimumsCollapseToInner(t *testing.T) {
	s := testutil.NewSchema()
	a, b, _ := ternary(s)
	inner := s.Frequency("F1", 1, 3, a)
	outer := s.Frequency("F2", 1, 3, a, b)

	tr := transform.NewOverlappingFrequency(envFor(t, s))
	require.True(t, tr.Execute())

	assert.False(t, s.M.Has(outer))
	assert.True(t, inner.IsUniqueness())
	assert.Equal(t, []*model.Role{a}, inner.Roles())
	assert.Equal(t, []string{"F2"}, names(tr.Changes().Removed))
	assert.Equal(t, []string{"F1"}, names(tr.Changes().Modified))
	assertFixpoint(t, s.M, tr)
}

func TestOverlappingFrequency_UniqueInnerShortensOuter(t *testing.T) {
	s := testutil.NewSchema()
	a, b, _ := ternary(s)
	inner := s.Unique("U1", a)
	outer := s.Frequency("F2", 1, 3, a, b)

	tr := transform.NewOverlappingFrequency(envFor(t, s))
	require.True(t, tr.Execute())

	assert.True(t, s.M.Has(outer))
	assert.Equal(t, []*model.Role{b}, outer.Roles())
	assert.True(t, outer.IsUniqueness())
	assert.True(t, inner.IsUniqueness())
	assertFixpoint(t, s.M, tr)
}

func TestOverlappingFrequency_NestedUniquenessIsRemoved(t *testing.T) {
	s := testutil.NewSchema()
	a, b, _ := ternary(s)
	inner := s.Unique("U1", a)
	outer := s.Unique("U2", a, b)

	tr := transform.NewOverlappingFrequency(envFor(t, s))
	require.True(t, tr.Execute())

	assert.False(t, s.M.Has(outer))
	assert.True(t, s.M.Has(inner))
	assert.Empty(t, tr.Changes().Modified)
	assertFixpoint(t, s.M, tr)
}

func TestOverlappingFrequency_PartialOverlap(t *testing.T) {
	s := testutil.NewSchema()
	a, b, c := ternary(s)
	f1 := s.Frequency("F1", 1, 2, a, b)
	f2 := s.Frequency("F2", 2, 3, b, c)

	tr := transform.NewOverlappingFrequency(envFor(t, s))
	require.True(t, tr.Execute())

	assert.Equal(t, []*model.Role{a}, f1.Roles())
	assert.True(t, f1.IsUniqueness())
	assert.Equal(t, []*model.Role{b, c}, f2.Roles())
	assertFixpoint(t, s.M, tr)
}

func TestOverlappingFrequency_LeavesUnsoundCases(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *testutil.Schema)
	}{
		{"nested without unit minimum", func(s *testutil.Schema) {
			a, b, _ := ternary(s)
			s.Frequency("F1", 2, 3, a)
			s.Frequency("F2", 2, 5, a, b)
		}},
		{"partial overlap without unit minimum", func(s *testutil.Schema) {
			a, b, c := ternary(s)
			s.Frequency("F1", 2, 3, a, b)
			s.Frequency("F2", 3, 4, b, c)
		}},
		{"disjoint", func(s *testutil.Schema) {
			a, b, _ := ternary(s)
			s.Frequency("F1", 1, 3, a)
			s.Frequency("F2", 1, 3, b)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.NewSchema()
			tt.build(s)
			before := fingerprint(t, s.M)

			assert.False(t, transform.NewOverlappingFrequency(envFor(t, s)).Execute())
			assert.Equal(t, before, fingerprint(t, s.M))
		})
	}
}
