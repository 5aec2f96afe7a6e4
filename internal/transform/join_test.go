package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
	"github.com/roach88/ormminus/internal/transform"
)

// joinedSubset builds AHasB and BHasC joined on B, and a subset constraint
// from the path's (a, c) projection into AC.
func joinedSubset(t *testing.T, s *testutil.Schema) (ab, bc *model.Relationship, sc *model.SubsetConstraint) {
	a, b, c := s.Entity("A"), s.Entity("B"), s.Entity("C")
	ab = s.Fact("AHasB", a, b)
	bc = s.Fact("BHasC", b, c)
	ac := s.Fact("AC", a, c)
	path := model.NewJoinPath()
	require.NoError(t, path.AddJoin(testutil.Role(ab, "b"), testutil.Role(bc, "b")))
	sc = model.NewSubset("SJ",
		model.RoleSequence{Roles: []*model.Role{testutil.Role(ab, "a"), testutil.Role(bc, "c")}, JoinPath: path},
		model.Seq(ac.Roles()...))
	s.M.Add(sc)
	return ab, bc, sc
}

func TestJoinPaths_Materializes(t *testing.T) {
	s := testutil.NewSchema()
	ab, bc, sc := joinedSubset(t, s)

	tr := transform.NewJoinPaths(envFor(t, s))
	require.True(t, tr.Execute())

	joined, ok := s.M.Relationships.Get("JoinFact_SJ")
	require.True(t, ok)
	require.Equal(t, 3, joined.Arity())
	roles := joined.Roles()
	assert.Equal(t, []string{"AHasB_a", "BHasC_c", "AHasB_b"}, []string{roles[0].Name(), roles[1].Name(), roles[2].Name()})
	assert.Equal(t, "BHasC", roles[1].Source())

	assert.Nil(t, sc.Subset().JoinPath)
	assert.Equal(t, []*model.Role{roles[0], roles[1]}, sc.Subset().Roles)

	eqAB := constraint[*model.SubsetConstraint](t, s.M, "EQ_JoinFact_SJ_AHasB")
	assert.True(t, eqAB.Equality())
	assert.Equal(t, ab.Roles(), eqAB.Subset().Roles)
	assert.Equal(t, []*model.Role{roles[0], roles[2]}, eqAB.Superset().Roles)
	eqBC := constraint[*model.SubsetConstraint](t, s.M, "EQ_JoinFact_SJ_BHasC")
	assert.Equal(t, []*model.Role{roles[2], roles[1]}, eqBC.Superset().Roles)

	assert.True(t, testutil.Role(ab, "b").Unique())
	assert.True(t, testutil.Role(bc, "b").Unique())
	assert.True(t, roles[2].Unique())
	assert.Equal(t, []string{
		"JoinFact_SJ",
		"EQ_JoinFact_SJ_AHasB",
		"EQ_JoinFact_SJ_BHasC",
		"UC_AHasB_b",
		"UC_BHasC_b",
		"UC_JoinFact_SJ_AHasB_b",
	}, names(tr.Changes().Added))
	assert.Equal(t, []string{"SJ"}, names(tr.Changes().Modified))
	assertFixpoint(t, s.M, tr)
}

func TestJoinPaths_DropsTrivialPath(t *testing.T) {
	s := testutil.NewSchema()
	a, b := s.Entity("A"), s.Entity("B")
	r1 := s.Fact("R1", a, b)
	r2 := s.Fact("R2", a, b)
	sc := model.NewSubset("SS", model.RoleSequence{Roles: r1.Roles(), JoinPath: model.NewJoinPath()}, model.Seq(r2.Roles()...))
	s.M.Add(sc)

	tr := transform.NewJoinPaths(envFor(t, s))
	require.True(t, tr.Execute())

	assert.Nil(t, sc.Subset().JoinPath)
	assert.Empty(t, tr.Changes().Added)
	assertFixpoint(t, s.M, tr)
}

func TestJoinPaths_RoleOffPath(t *testing.T) {
	s := testutil.NewSchema()
	a, b, c := s.Entity("A"), s.Entity("B"), s.Entity("C")
	ab := s.Fact("AHasB", a, b)
	bc := s.Fact("BHasC", b, c)
	ac := s.Fact("AC", a, c)
	path := model.NewJoinPath()
	require.NoError(t, path.AddJoin(testutil.Role(ab, "b"), testutil.Role(bc, "b")))
	sc := model.NewSubset("SJ",
		model.RoleSequence{Roles: []*model.Role{testutil.Role(ac, "a"), testutil.Role(bc, "c")}, JoinPath: path},
		model.Seq(ac.Roles()...))
	s.M.Add(sc)

	tr := transform.NewJoinPaths(envFor(t, s))

	assert.False(t, tr.Execute())
	assert.NotNil(t, sc.Subset().JoinPath)
}
