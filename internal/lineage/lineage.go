// Package lineage indexes the subtype lineages of a schema graph: the root
// of every object type and the compatibility of two types.
//
// An Index is a snapshot. It does not observe later changes to subtype
// constraints; rebuild it after any edit that adds or removes one.
package lineage

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/ormminus/internal/model"
)

// ErrCycle is returned when subtype constraints form a directed cycle.
var ErrCycle = errors.New("subtype cycle")

// ErrMultipleRoots is returned when a type reaches two primitive roots.
var ErrMultipleRoots = errors.New("subtype has more than one root")

// Index maps every object type to its lineage root and transitive
// supertypes.
type Index struct {
	roots      []*model.ObjectType
	rootOf     map[*model.ObjectType]*model.ObjectType
	supertypes map[*model.ObjectType][]*model.ObjectType
	members    map[*model.ObjectType][]*model.ObjectType
}

// Build walks down from every primitive type. It fails when a type is
// reachable from two roots or when the subtype graph has a cycle.
func Build(m *model.Model) (*Index, error) {
	idx := &Index{
		rootOf:     make(map[*model.ObjectType]*model.ObjectType),
		supertypes: make(map[*model.ObjectType][]*model.ObjectType),
		members:    make(map[*model.ObjectType][]*model.ObjectType),
	}
	for _, o := range m.ObjectTypes.All() {
		if !o.Primitive() {
			continue
		}
		idx.roots = append(idx.roots, o)
		idx.rootOf[o] = o
		idx.supertypes[o] = nil
		idx.members[o] = []*model.ObjectType{o}
		for _, child := range o.DirectSubtypes() {
			if err := idx.descend(child, o, o, []*model.ObjectType{o}); err != nil {
				return nil, err
			}
		}
	}
	for _, o := range m.ObjectTypes.All() {
		if _, ok := idx.rootOf[o]; !ok {
			return nil, fmt.Errorf("%w: %s is not below any primitive type", ErrCycle, o.Name())
		}
	}
	return idx, nil
}

func (idx *Index) descend(this, parent, root *model.ObjectType, path []*model.ObjectType) error {
	if slices.Contains(path, this) {
		return fmt.Errorf("%w: through %s", ErrCycle, this.Name())
	}
	if r, ok := idx.rootOf[this]; ok && r != root {
		return fmt.Errorf("%w: %s reaches %s and %s", ErrMultipleRoots, this.Name(), r.Name(), root.Name())
	}
	if _, ok := idx.rootOf[this]; !ok {
		idx.rootOf[this] = root
		idx.members[root] = append(idx.members[root], this)
	}

	known := idx.supertypes[this]
	for _, s := range append(this.DirectSupertypes(), idx.supertypes[parent]...) {
		if !slices.Contains(known, s) {
			known = append(known, s)
		}
	}
	idx.supertypes[this] = known

	path = append(path, this)
	for _, child := range this.DirectSubtypes() {
		if err := idx.descend(child, this, root, path); err != nil {
			return err
		}
	}
	return nil
}

// Roots returns the primitive types in model order.
func (idx *Index) Roots() []*model.ObjectType { return slices.Clone(idx.roots) }

// RootOf returns the lineage root of o, or nil when o was not indexed.
func (idx *Index) RootOf(o *model.ObjectType) *model.ObjectType { return idx.rootOf[o] }

// Compatible reports whether a and b lie in the same subtype lineage.
func (idx *Index) Compatible(a, b *model.ObjectType) bool {
	ra, rb := idx.rootOf[a], idx.rootOf[b]
	return ra != nil && ra == rb
}

// Supertypes returns the direct and indirect supertypes of o.
func (idx *Index) Supertypes(o *model.ObjectType) []*model.ObjectType {
	return slices.Clone(idx.supertypes[o])
}

// Lineage returns root followed by every type below it, in discovery order.
func (idx *Index) Lineage(root *model.ObjectType) []*model.ObjectType {
	return slices.Clone(idx.members[root])
}

// CheckValueConstraints reports lineages whose subtypes carry more than one
// value constraint between them.
func CheckValueConstraints(idx *Index) []model.Violation {
	var out []model.Violation
	for _, root := range idx.roots {
		var constrained []string
		for _, o := range idx.members[root] {
			if o == root {
				continue
			}
			for _, vc := range o.ValueConstraints() {
				constrained = append(constrained, vc.Name())
			}
		}
		if len(constrained) > 1 {
			out = append(out, model.Violation{
				Code:    model.ErrLineageValueCount,
				Element: root.Name(),
				Message: fmt.Sprintf("lineage carries %d subtype value constraints %v", len(constrained), constrained),
			})
		}
	}
	return out
}
