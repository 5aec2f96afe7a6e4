package transform_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/lineage"
	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
	"github.com/roach88/ormminus/internal/transform"
)

func envFor(t *testing.T, s *testutil.Schema) transform.Env {
	t.Helper()
	idx, err := lineage.Build(s.M)
	require.NoError(t, err)
	return transform.Env{
		Model:   s.M,
		Lineage: idx,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func assertConsistent(t *testing.T, m *model.Model) {
	t.Helper()
	assert.Empty(t, model.CheckInvariants(m))
}

func fingerprint(t *testing.T, m *model.Model) string {
	t.Helper()
	fp, err := model.Fingerprint(m)
	require.NoError(t, err)
	return fp
}

// assertFixpoint runs tr until it reports no change, then checks that one
// more run changes nothing at all.
func assertFixpoint(t *testing.T, m *model.Model, tr transform.Transformation) {
	t.Helper()
	for i := 0; tr.Execute(); i++ {
		require.Less(t, i, 10, "%s did not converge", tr.Name())
		assertConsistent(t, m)
	}
	before := fingerprint(t, m)
	assert.False(t, tr.Execute(), "%s changed the model after reporting no change", tr.Name())
	assert.False(t, tr.Changes().Changed())
	assert.Equal(t, before, fingerprint(t, m))
	assertConsistent(t, m)
}

func constraint[T model.Constraint](t *testing.T, m *model.Model, name string) T {
	t.Helper()
	c, ok := m.Constraints.Get(name)
	require.True(t, ok, "constraint %q not found", name)
	v, ok := c.(T)
	require.True(t, ok, "constraint %q has kind %s", name, c.Kind())
	return v
}

func names(elems []model.Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = model.QualifiedName(e)
	}
	return out
}

// unaryChain adds n unary relationships played by one entity type and
// returns their roles.
func unaryChain(s *testutil.Schema, n int) []*model.Role {
	a := s.Entity("A")
	roles := make([]*model.Role, n)
	for i := range n {
		roles[i] = s.Fact("R", a).Roles()[0]
	}
	return roles
}
