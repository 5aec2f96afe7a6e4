package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
	"github.com/roach88/ormminus/internal/transform"
)

func TestSubsetPruning_BreaksCycles(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		s := testutil.NewSchema()
		roles := unaryChain(s, n)
		var last *model.SubsetConstraint
		for i := range n {
			last = s.Subset("S"+string(rune('1'+i)), []*model.Role{roles[i]}, []*model.Role{roles[(i+1)%n]})
		}
		require.Len(t, model.SubsetCycles(s.M), 1)

		tr := transform.NewSubsetPruning(envFor(t, s))
		require.True(t, tr.Execute())

		assert.Equal(t, []model.Element{last}, tr.Changes().Removed, "cycle of %d", n)
		assert.Equal(t, n-1, s.M.Constraints.Len())
		assert.Empty(t, model.SubsetCycles(s.M))
		assertFixpoint(t, s.M, tr)
	}
}

func TestSubsetPruning_KeepsDiamond(t *testing.T) {
	s := testutil.NewSchema()
	r := unaryChain(s, 4)
	s.Subset("S1", r[:1], r[1:2])
	s.Subset("S2", r[:1], r[2:3])
	s.Subset("S3", r[1:2], r[3:4])
	s.Subset("S4", r[2:3], r[3:4])

	tr := transform.NewSubsetPruning(envFor(t, s))

	assert.False(t, tr.Execute())
	assert.Equal(t, 4, s.M.Constraints.Len())
}

func TestSubsetPruning_EqualityIsNotACycle(t *testing.T) {
	s := testutil.NewSchema()
	r := unaryChain(s, 2)
	s.Equality("E1", r[:1], r[1:])

	assert.False(t, transform.NewSubsetPruning(envFor(t, s)).Execute())
}

func TestSubsetPruning_RemovesUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, s *testutil.Schema) *model.SubsetConstraint
	}{
		{"incompatible players", func(t *testing.T, s *testutil.Schema) *model.SubsetConstraint {
			r1 := s.Fact("R1", s.Entity("A"))
			r2 := s.Fact("R2", s.Entity("B"))
			return s.Subset("SS", r1.Roles(), r2.Roles())
		}},
		{"length mismatch", func(t *testing.T, s *testutil.Schema) *model.SubsetConstraint {
			a := s.Entity("A")
			r1 := s.Fact("R1", a)
			r2 := s.Fact("R2", a, a)
			return s.Subset("SS", r1.Roles(), r2.Roles())
		}},
		{"role covered twice", func(t *testing.T, s *testutil.Schema) *model.SubsetConstraint {
			r := unaryChain(s, 1)
			return s.Subset("SS", r, r)
		}},
		{"join path", func(t *testing.T, s *testutil.Schema) *model.SubsetConstraint {
			_, _, sc := joinedSubset(t, s)
			return sc
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.NewSchema()
			sc := tt.build(t, s)

			tr := transform.NewSubsetPruning(envFor(t, s))
			require.True(t, tr.Execute())

			assert.False(t, s.M.Has(sc))
			assert.Equal(t, []model.Element{sc}, tr.Changes().Removed)
			assertConsistent(t, s.M)
		})
	}
}

func TestSubsetPruning_SubtypesAreCompatible(t *testing.T) {
	s := testutil.NewSchema()
	person, student := s.Entity("Person"), s.Entity("Student")
	s.Subtype("ST", student, person, true)
	r1 := s.Fact("StudentEnrolled", student)
	r2 := s.Fact("PersonRegistered", person)
	sc := s.Subset("SS", r1.Roles(), r2.Roles())

	transform.NewSubsetPruning(envFor(t, s)).Execute()

	assert.True(t, s.M.Has(sc))
}

func TestSubsetPruning_ImplicitMandatory(t *testing.T) {
	s := testutil.NewSchema()
	person := s.Entity("Person")
	name := s.Fact("PersonHasName", person, s.ValueType("Name"))
	s.Identifier("PK", person, name.Roles()[1])
	smokes := s.Fact("PersonSmokes", person)
	s.Subset("SS", smokes.Roles(), name.Roles()[:1])

	tr := transform.NewSubsetPruning(envFor(t, s))
	require.True(t, tr.Execute())

	assert.Equal(t, []string{"MC_PersonSmokes_person"}, names(tr.Changes().Added))
	assert.True(t, smokes.Roles()[0].Mandatory())
	assertFixpoint(t, s.M, tr)
}
