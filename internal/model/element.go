package model

import (
	"slices"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// ID is a stable, opaque element identifier. IDs are assigned when an
// element is added to a Model and never change afterwards.
type ID string

// Element is implemented by every entity stored in a Model. The interface is
// sealed: only object types, relationships, roles and constraints satisfy it.
type Element interface {
	ID() ID
	Name() string
	setID(ID)
	setName(string)
}

// Coverable is an element a constraint may cover: a *Role or an *ObjectType.
type Coverable interface {
	Element
	// CoveredBy returns the live constraints covering this element, in the
	// order they were committed.
	CoveredBy() []Constraint
	backRefs() *coverage
}

// entity holds the identity shared by all elements.
type entity struct {
	id   ID
	name string
}

// ID returns the element's identifier (empty until added to a Model).
func (e *entity) ID() ID { return e.id }

// Name returns the element's name, unique among elements of the same kind.
func (e *entity) Name() string { return e.name }

func (e *entity) setID(id ID)      { e.id = id }
func (e *entity) setName(n string) { e.name = n }

// coverage is the back-reference set kept on every covered element.
type coverage struct {
	by []Constraint
}

// CoveredBy returns a copy of the covering constraints.
func (c *coverage) CoveredBy() []Constraint {
	return slices.Clone(c.by)
}

func (c *coverage) backRefs() *coverage { return c }

func (c *coverage) add(k Constraint) {
	if !slices.Contains(c.by, k) {
		c.by = append(c.by, k)
	}
}

func (c *coverage) remove(k Constraint) {
	c.by = slices.DeleteFunc(c.by, func(x Constraint) bool { return x == k })
}

func (c *coverage) has(k Constraint) bool {
	return slices.Contains(c.by, k)
}

// ElementSet is an insertion-ordered collection of elements keyed by name.
// Adding an element whose name is taken renames it with a numeric suffix:
// adding Person three times yields Person, Person2 and Person3.
type ElementSet[T Element] struct {
	order  []T
	byName map[string]T
}

func newElementSet[T Element]() *ElementSet[T] {
	return &ElementSet[T]{byName: make(map[string]T)}
}

// add inserts e, disambiguating its name, and reports the final name.
func (s *ElementSet[T]) add(e T) string {
	base := norm.NFC.String(e.Name())
	name := base
	for i := 2; ; i++ {
		if _, taken := s.byName[name]; !taken {
			break
		}
		name = base + strconv.Itoa(i)
	}
	e.setName(name)
	s.byName[name] = e
	s.order = append(s.order, e)
	return name
}

func (s *ElementSet[T]) remove(e T) bool {
	if !s.Contains(e) {
		return false
	}
	delete(s.byName, e.Name())
	s.order = slices.DeleteFunc(s.order, func(x T) bool { return Element(x) == Element(e) })
	return true
}

// Contains reports whether e itself (not merely its name) is in the set.
func (s *ElementSet[T]) Contains(e T) bool {
	got, ok := s.byName[e.Name()]
	return ok && Element(got) == Element(e)
}

// Get returns the element with the given name.
func (s *ElementSet[T]) Get(name string) (T, bool) {
	e, ok := s.byName[norm.NFC.String(name)]
	return e, ok
}

// All returns a snapshot of the elements in insertion order. Callers may
// mutate the Model while ranging over the snapshot.
func (s *ElementSet[T]) All() []T {
	return slices.Clone(s.order)
}

// Len returns the number of elements.
func (s *ElementSet[T]) Len() int {
	return len(s.order)
}

// KindName returns a short label for e's kind: "object type",
// "relationship", "role", or the constraint kind.
func KindName(e Element) string {
	switch v := e.(type) {
	case *ObjectType:
		return "object type"
	case *Relationship:
		return "relationship"
	case *Role:
		return "role"
	case Constraint:
		return v.Kind().String()
	default:
		return "unknown"
	}
}

// QualifiedName returns "Rel.role" for roles and the plain name otherwise.
func QualifiedName(e Element) string {
	if r, ok := e.(*Role); ok {
		return r.FullName()
	}
	return e.Name()
}
