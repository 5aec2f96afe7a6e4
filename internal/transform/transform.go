package transform

import (
	"log/slog"
	"slices"

	"github.com/roach88/ormminus/internal/lineage"
	"github.com/roach88/ormminus/internal/model"
)

// Pass names, in default pipeline order.
const (
	ValueConstraintsPass     = "value-constraints"
	AbsorptionPass           = "absorption"
	DisjunctiveReferencePass = "disjunctive-reference"
	JoinPathsPass            = "join-paths"
	EUCStrengtheningPass     = "euc-strengthening"
	OverlappingFrequencyPass = "overlapping-frequency"
	SubsetPruningPass        = "subset-pruning"
	TupleSubsetsPass         = "tuple-subsets"
	RootRolesPass            = "root-roles"
)

// Transformation is one rewrite over a schema graph.
type Transformation interface {
	// Name returns the pass name.
	Name() string
	// Execute runs one pass and reports whether the graph changed.
	Execute() bool
	// Changes returns what the last Execute touched.
	Changes() ChangeLog
}

// Env is what a rewrite works against. Lineage must reflect the current
// subtype constraints; passes that consult it panic when it is nil.
type Env struct {
	Model   *model.Model
	Lineage *lineage.Index
	Logger  *slog.Logger
}

// ChangeLog lists the elements one Execute added, removed and modified.
// Removal cascades are listed explicitly, cascaded constraints first.
type ChangeLog struct {
	Added    []model.Element
	Removed  []model.Element
	Modified []model.Element
}

// Changed reports whether any set is non-empty.
func (l ChangeLog) Changed() bool {
	return len(l.Added) > 0 || len(l.Removed) > 0 || len(l.Modified) > 0
}

// Touches reports whether any logged element is a constraint of kind k.
func (l ChangeLog) Touches(k model.Kind) bool {
	for _, set := range [][]model.Element{l.Added, l.Removed, l.Modified} {
		for _, e := range set {
			if c, ok := e.(model.Constraint); ok && c.Kind() == k {
				return true
			}
		}
	}
	return false
}

// RemovedConstraints returns the removed elements that are constraints.
func (l ChangeLog) RemovedConstraints() []model.Constraint {
	var out []model.Constraint
	for _, e := range l.Removed {
		if c, ok := e.(model.Constraint); ok {
			out = append(out, c)
		}
	}
	return out
}

func (l ChangeLog) clone() ChangeLog {
	return ChangeLog{
		Added:    slices.Clone(l.Added),
		Removed:  slices.Clone(l.Removed),
		Modified: slices.Clone(l.Modified),
	}
}

// pass carries the bookkeeping shared by every rewrite.
type pass struct {
	name string
	env  Env
	log  ChangeLog
}

func newPass(name string, env Env) pass {
	if env.Model == nil {
		panic("transform: Env.Model is required")
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	env.Logger = env.Logger.With("pass", name)
	return pass{name: name, env: env}
}

// Name returns the pass name.
func (p *pass) Name() string { return p.name }

// Changes returns a copy of the last change log.
func (p *pass) Changes() ChangeLog { return p.log.clone() }

func (p *pass) begin() { p.log = ChangeLog{} }

func (p *pass) graph() *model.Model { return p.env.Model }

func (p *pass) logger() *slog.Logger { return p.env.Logger }

func (p *pass) lineage() *lineage.Index {
	if p.env.Lineage == nil {
		panic("transform: " + p.name + " requires a lineage index")
	}
	return p.env.Lineage
}

func (p *pass) add(e model.Element) {
	p.env.Model.Add(e)
	p.log.Added = append(p.log.Added, e)
	p.env.Logger.Debug("added", "kind", model.KindName(e), "name", model.QualifiedName(e))
}

func (p *pass) remove(e model.Element) {
	removed := p.env.Model.Remove(e)
	p.log.Removed = append(p.log.Removed, removed...)
	for _, r := range removed {
		p.env.Logger.Debug("removed", "kind", model.KindName(r), "name", model.QualifiedName(r))
	}
}

func (p *pass) modified(e model.Element) {
	if !slices.Contains(p.log.Modified, e) {
		p.log.Modified = append(p.log.Modified, e)
	}
}

// requireMandatory adds a simple mandatory constraint on r unless one
// already covers it.
func (p *pass) requireMandatory(r *model.Role) {
	if !r.Mandatory() {
		p.add(model.NewMandatory("MC_"+roleLabel(r), r))
	}
}

// requireUnique adds a simple uniqueness constraint on r unless one
// already covers it.
func (p *pass) requireUnique(r *model.Role) {
	if !r.Unique() {
		p.add(model.NewUniqueness("UC_"+roleLabel(r), r))
	}
}

func roleLabel(r *model.Role) string {
	return r.Relationship().Name() + "_" + r.Name()
}

// constraintsOf returns the live constraints of type T in model order.
func constraintsOf[T model.Constraint](m *model.Model) []T {
	var out []T
	for _, c := range m.Constraints.All() {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
