package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
	"github.com/roach88/ormminus/internal/transform"
)

func pairOfFacts(s *testutil.Schema) (f1, f2 *model.Relationship) {
	a, b := s.Entity("A"), s.Entity("B")
	return s.Fact("F1", a, b), s.Fact("F2", a, b)
}

func TestTupleSubsets_ExpandsSubset(t *testing.T) {
	s := testutil.NewSchema()
	f1, f2 := pairOfFacts(s)
	ts := s.Subset("TS", f1.Roles(), f2.Roles())

	tr := transform.NewTupleSubsets(envFor(t, s))
	require.True(t, tr.Execute())

	assert.False(t, s.M.Has(ts))
	assert.Equal(t, []string{"TS_1", "UC_F1_a", "TS_2", "UC_F1_b"}, names(tr.Changes().Added))
	first := constraint[*model.SubsetConstraint](t, s.M, "TS_1")
	assert.False(t, first.Equality())
	assert.Equal(t, f1.Roles()[:1], first.Subset().Roles)
	assert.Equal(t, f2.Roles()[:1], first.Superset().Roles)
	assert.False(t, f2.Roles()[1].Unique())
	assertFixpoint(t, s.M, tr)
}

func TestTupleSubsets_ExpandsEquality(t *testing.T) {
	tests := []struct {
		name           string
		supersetUnique bool
		wantAdded      []string
	}{
		{"superset not unique", false, []string{"TE_1", "UC_F1_a", "TE_2", "UC_F1_b", "UC_F2_b"}},
		{"superset unique", true, []string{"TE_1", "UC_F1_a", "TE_2", "UC_F1_b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.NewSchema()
			f1, f2 := pairOfFacts(s)
			if tt.supersetUnique {
				s.Unique("U", f2.Roles()[0])
			}
			s.Equality("TE", f1.Roles(), f2.Roles())

			tr := transform.NewTupleSubsets(envFor(t, s))
			require.True(t, tr.Execute())

			assert.Equal(t, tt.wantAdded, names(tr.Changes().Added))
			assert.True(t, constraint[*model.SubsetConstraint](t, s.M, "TE_2").Equality())
			assertFixpoint(t, s.M, tr)
		})
	}
}

func TestTupleSubsets_MaterializesJoinPathFirst(t *testing.T) {
	s := testutil.NewSchema()
	_, _, sc := joinedSubset(t, s)

	tr := transform.NewTupleSubsets(envFor(t, s))
	require.True(t, tr.Execute())

	assert.False(t, s.M.Has(sc))
	assert.Contains(t, names(tr.Changes().Added), "JoinFact_SJ")
	assert.Contains(t, names(tr.Changes().Added), "SJ_2")
	assertFixpoint(t, s.M, tr)
}

func TestTupleSubsets_IgnoresSimpleConstraints(t *testing.T) {
	s := testutil.NewSchema()
	r := unaryChain(s, 2)
	s.Subset("SS", r[:1], r[1:])

	assert.False(t, transform.NewTupleSubsets(envFor(t, s)).Execute())
}
