package model

import (
	"fmt"
	"slices"
	"strings"
)

// Invariant violation codes (E201-E209).
const (
	ErrDanglingBackReference = "E201" // covered_by lists a constraint that does not cover the element
	ErrMissingBackReference  = "E202" // a live constraint covers an element that does not list it
	ErrForeignElement        = "E203" // a live constraint covers an element outside the model
	ErrOwnershipMismatch     = "E204" // role, relationship and player disagree
	ErrSubsetCycle           = "E205" // the subset graph has a directed cycle
	ErrLineageValueCount     = "E206" // more than one subtype value constraint in one lineage
)

// Violation is a single broken graph invariant.
type Violation struct {
	Code    string `json:"code"`
	Element string `json:"element"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Element, v.Message)
}

// CheckInvariants verifies the structural invariants every rewrite must
// preserve: ownership, and exact agreement between each constraint's
// covers and each element's covered_by. It returns every violation found.
func CheckInvariants(m *Model) []Violation {
	var out []Violation

	for _, rel := range m.Relationships.All() {
		for _, r := range rel.roles {
			if r.relationship != rel {
				out = append(out, Violation{ErrOwnershipMismatch, r.FullName(), "role is listed by a relationship that does not own it"})
			}
			if !m.ObjectTypes.Contains(r.player) {
				out = append(out, Violation{ErrOwnershipMismatch, r.FullName(), fmt.Sprintf("player %q is not in the model", r.player.Name())})
			} else if !slices.Contains(r.player.roles, r) {
				out = append(out, Violation{ErrOwnershipMismatch, r.FullName(), fmt.Sprintf("player %q does not list the role", r.player.Name())})
			}
		}
	}
	for _, o := range m.ObjectTypes.All() {
		for _, r := range o.roles {
			if r.player != o || !m.Has(r) {
				out = append(out, Violation{ErrOwnershipMismatch, o.Name(), fmt.Sprintf("lists role %s it does not play", r.FullName())})
			}
		}
	}

	for _, c := range m.Constraints.All() {
		for _, el := range c.Covers() {
			if !m.Has(el) {
				out = append(out, Violation{ErrForeignElement, c.Name(), fmt.Sprintf("covers %q, which is not in the model", QualifiedName(el))})
				continue
			}
			if !el.backRefs().has(c) {
				out = append(out, Violation{ErrMissingBackReference, QualifiedName(el), fmt.Sprintf("covered by %q but does not list it", c.Name())})
			}
		}
	}

	var covered []Coverable
	for _, o := range m.ObjectTypes.All() {
		covered = append(covered, o)
	}
	for _, r := range m.Roles() {
		covered = append(covered, r)
	}
	for _, el := range covered {
		for _, c := range el.CoveredBy() {
			if !m.Constraints.Contains(c) {
				out = append(out, Violation{ErrDanglingBackReference, QualifiedName(el), fmt.Sprintf("lists removed constraint %q", c.Name())})
			} else if !slices.Contains(c.Covers(), el) {
				out = append(out, Violation{ErrDanglingBackReference, QualifiedName(el), fmt.Sprintf("lists %q, which does not cover it", c.Name())})
			}
		}
	}
	return out
}

// SubsetCycles reports one violation per subset constraint that closes a
// directed cycle in the subset graph (roles as nodes, subset to superset
// as edges). Equality constraints are not part of the graph.
func SubsetCycles(m *Model) []Violation {
	var out []Violation
	for _, c := range SubsetBackEdges(m) {
		out = append(out, Violation{ErrSubsetCycle, c.Name(), "subset constraint closes a cycle"})
	}
	return out
}

type subsetEdge struct {
	to *Role
	by *SubsetConstraint
}

// SubsetBackEdges runs a white/gray/black depth-first search over the
// subset graph and returns, in discovery order, the constraints whose edges
// reach a gray node. Nodes are visited in order of first appearance in the
// model's constraint list.
func SubsetBackEdges(m *Model) []*SubsetConstraint {
	const (
		white = iota
		gray
		black
	)
	adj := make(map[*Role][]subsetEdge)
	var nodes []*Role
	seen := func(r *Role) {
		if _, ok := adj[r]; !ok {
			adj[r] = nil
			nodes = append(nodes, r)
		}
	}
	for _, c := range m.Constraints.All() {
		sc, ok := c.(*SubsetConstraint)
		if !ok || sc.equality {
			continue
		}
		for i := range sc.Pairs() {
			sub, sup := sc.subset.Roles[i], sc.superset.Roles[i]
			seen(sub)
			seen(sup)
			adj[sub] = append(adj[sub], subsetEdge{to: sup, by: sc})
		}
	}

	color := make(map[*Role]int, len(nodes))
	var back []*SubsetConstraint
	var visit func(r *Role)
	visit = func(r *Role) {
		color[r] = gray
		for _, e := range adj[r] {
			switch color[e.to] {
			case gray:
				if !slices.Contains(back, e.by) {
					back = append(back, e.by)
				}
			case white:
				visit(e.to)
			}
		}
		color[r] = black
	}
	for _, n := range nodes {
		if color[n] == white {
			visit(n)
		}
	}
	return back
}

// Describe renders c for reports: its kind, name and covered elements.
func Describe(c Constraint) string {
	names := make([]string, 0)
	for _, el := range c.Covers() {
		names = append(names, QualifiedName(el))
	}
	return fmt.Sprintf("%s constraint %s over [%s]", c.Kind(), c.Name(), strings.Join(names, ", "))
}
