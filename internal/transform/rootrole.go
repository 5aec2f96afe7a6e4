package transform

import (
	"cmp"
	"slices"

	"github.com/roach88/ormminus/internal/model"
)

// RootRoles unifies overlapping subset hierarchies under a single root role
// and tags every role in a hierarchy with that root. The subset graph must
// be acyclic.
type RootRoles struct {
	pass
}

// NewRootRoles creates the root-role unification pass.
func NewRootRoles(env Env) *RootRoles {
	return &RootRoles{pass: newPass(RootRolesPass, env)}
}

// subsetGraph holds the subset edges reversed: superset to subsets.
type subsetGraph struct {
	nodes    []*model.Role
	subsets  map[*model.Role][]*model.Role
	isSubset map[*model.Role]bool
}

func buildSubsetGraph(m *model.Model) *subsetGraph {
	g := &subsetGraph{
		subsets:  make(map[*model.Role][]*model.Role),
		isSubset: make(map[*model.Role]bool),
	}
	node := func(r *model.Role) {
		if !slices.Contains(g.nodes, r) {
			g.nodes = append(g.nodes, r)
		}
	}
	for _, sc := range constraintsOf[*model.SubsetConstraint](m) {
		if sc.Equality() {
			continue
		}
		sub, sup := sc.Subset().Roles, sc.Superset().Roles
		for i := range sc.Pairs() {
			node(sub[i])
			node(sup[i])
			if !slices.Contains(g.subsets[sup[i]], sub[i]) {
				g.subsets[sup[i]] = append(g.subsets[sup[i]], sub[i])
			}
			g.isSubset[sub[i]] = true
		}
	}
	return g
}

// descendants returns root and every role transitively below it.
func (g *subsetGraph) descendants(root *model.Role) []*model.Role {
	out := []*model.Role{root}
	for i := 0; i < len(out); i++ {
		for _, s := range g.subsets[out[i]] {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

type roleGroup struct {
	root    *model.Role
	members []*model.Role
}

// Execute runs one pass.
func (t *RootRoles) Execute() bool {
	t.begin()
	g := buildSubsetGraph(t.graph())

	type candidate struct {
		root  *model.Role
		desc  []*model.Role
		order int
	}
	var roots []candidate
	for i, n := range g.nodes {
		if !g.isSubset[n] {
			roots = append(roots, candidate{root: n, desc: g.descendants(n), order: i})
		}
	}
	slices.SortStableFunc(roots, func(a, b candidate) int {
		return cmp.Or(
			-cmp.Compare(boolRank(a.root.Player().SubjectToIDMC()), boolRank(b.root.Player().SubjectToIDMC())),
			-cmp.Compare(boolRank(!a.root.Player().IsRefRole(a.root)), boolRank(!b.root.Player().IsRefRole(b.root))),
			-cmp.Compare(len(a.desc), len(b.desc)),
			cmp.Compare(a.order, b.order),
		)
	})

	var groups []*roleGroup
	for _, c := range roots {
		var target *roleGroup
		kept := groups[:0]
		for _, grp := range groups {
			if !overlaps(grp.members, c.desc) {
				kept = append(kept, grp)
				continue
			}
			if target == nil {
				target = grp
				kept = append(kept, grp)
				t.unify(c.root, grp.root)
				grp.members = union(grp.members, c.desc)
				continue
			}
			t.unify(grp.root, target.root)
			target.members = union(target.members, grp.members)
		}
		groups = kept
		if target == nil {
			groups = append(groups, &roleGroup{root: c.root, members: c.desc})
		}
	}

	grouped := make(map[*model.Role]bool)
	for _, grp := range groups {
		for _, r := range grp.members {
			grouped[r] = true
			if r.RootRole() != grp.root {
				t.graph().SetRootRole(r, grp.root)
				t.modified(r)
			}
		}
	}
	for _, r := range t.graph().Roles() {
		if !grouped[r] && r.RootRole() != nil {
			t.graph().SetRootRole(r, nil)
			t.modified(r)
		}
	}
	return t.log.Changed()
}

// unify makes root a subset of into.
func (t *RootRoles) unify(root, into *model.Role) {
	t.logger().Debug("unifying root roles", "root", root.FullName(), "into", into.FullName())
	t.add(model.NewSubset("RS_"+roleLabel(root), model.Seq(root), model.Seq(into)))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func union(a, b []*model.Role) []*model.Role {
	out := slices.Clone(a)
	for _, r := range b {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
