package lineage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/lineage"
	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/testutil"
)

func TestBuild_RootsAndCompatibility(t *testing.T) {
	s := testutil.NewSchema()
	person := s.Entity("Person")
	student := s.Entity("Student")
	grad := s.Entity("GradStudent")
	car := s.Entity("Car")
	s.Subtype("ST1", student, person, true)
	s.Subtype("ST2", grad, student, true)

	idx, err := lineage.Build(s.M)
	require.NoError(t, err)

	assert.Equal(t, []*model.ObjectType{person, car}, idx.Roots())
	assert.Same(t, person, idx.RootOf(grad))
	assert.Same(t, person, idx.RootOf(person))
	assert.Same(t, car, idx.RootOf(car))
	assert.True(t, idx.Compatible(grad, person))
	assert.True(t, idx.Compatible(student, grad))
	assert.False(t, idx.Compatible(grad, car))
	assert.Equal(t, []*model.ObjectType{student, person}, idx.Supertypes(grad))
	assert.Equal(t, []*model.ObjectType{person, student, grad}, idx.Lineage(person))
}

func TestBuild_SiblingsShareRoot(t *testing.T) {
	s := testutil.NewSchema()
	person := s.Entity("Person")
	student, employee := s.Entity("Student"), s.Entity("Employee")
	s.Subtype("ST1", student, person, true)
	s.Subtype("ST2", employee, person, false)

	idx, err := lineage.Build(s.M)
	require.NoError(t, err)

	assert.True(t, idx.Compatible(student, employee))
	assert.Equal(t, []*model.ObjectType{person}, idx.Supertypes(employee))
}

func TestBuild_DiamondKeepsSingleRoot(t *testing.T) {
	s := testutil.NewSchema()
	top, left, right, bottom := s.Entity("Top"), s.Entity("Left"), s.Entity("Right"), s.Entity("Bottom")
	s.Subtype("ST1", left, top, true)
	s.Subtype("ST2", right, top, false)
	s.Subtype("ST3", bottom, left, true)
	s.Subtype("ST4", bottom, right, false)

	idx, err := lineage.Build(s.M)
	require.NoError(t, err)

	assert.Same(t, top, idx.RootOf(bottom))
	assert.ElementsMatch(t, []*model.ObjectType{left, right, top}, idx.Supertypes(bottom))
	assert.Len(t, idx.Lineage(top), 4)
}

func TestBuild_MultipleRoots(t *testing.T) {
	s := testutil.NewSchema()
	a, b, c := s.Entity("A"), s.Entity("B"), s.Entity("C")
	s.Subtype("ST1", c, a, true)
	s.Subtype("ST2", c, b, false)

	_, err := lineage.Build(s.M)
	assert.ErrorIs(t, err, lineage.ErrMultipleRoots)
}

func TestBuild_Cycle(t *testing.T) {
	s := testutil.NewSchema()
	a, b := s.Entity("A"), s.Entity("B")
	s.Subtype("ST1", a, b, true)
	s.Subtype("ST2", b, a, true)

	_, err := lineage.Build(s.M)
	assert.ErrorIs(t, err, lineage.ErrCycle)
}

func TestBuild_CycleBelowRoot(t *testing.T) {
	s := testutil.NewSchema()
	root, b, c := s.Entity("Root"), s.Entity("B"), s.Entity("C")
	s.Subtype("ST1", b, root, true)
	s.Subtype("ST2", c, b, true)
	s.Subtype("ST3", b, c, true)

	_, err := lineage.Build(s.M)
	assert.ErrorIs(t, err, lineage.ErrCycle)
}

func TestCheckValueConstraints(t *testing.T) {
	s := testutil.NewSchema()
	n := s.ValueType("N")
	low, high := s.ValueType("Low"), s.ValueType("High")
	s.Subtype("ST1", low, n, true)
	s.Subtype("ST2", high, n, true)
	s.Values("VN", n, 1, 2, 3)
	s.Values("VL", low, 1)

	idx, err := lineage.Build(s.M)
	require.NoError(t, err)
	assert.Empty(t, lineage.CheckValueConstraints(idx))

	s.Values("VH", high, 3)
	vs := lineage.CheckValueConstraints(idx)
	require.Len(t, vs, 1)
	assert.Equal(t, model.ErrLineageValueCount, vs[0].Code)
	assert.Equal(t, "N", vs[0].Element)
}
