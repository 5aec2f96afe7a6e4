package transform

import (
	"slices"

	"github.com/roach88/ormminus/internal/model"
)

// JoinPaths materializes the join paths of subset and equality constraint
// role sequences, so every sequence lies on a single relationship.
type JoinPaths struct {
	pass
}

// NewJoinPaths creates the join-path materialization pass.
func NewJoinPaths(env Env) *JoinPaths {
	return &JoinPaths{pass: newPass(JoinPathsPass, env)}
}

// Execute runs one pass.
func (t *JoinPaths) Execute() bool {
	t.begin()
	for _, sc := range constraintsOf[*model.SubsetConstraint](t.graph()) {
		t.materializeAll(sc)
	}
	return t.log.Changed()
}

// side selects one role sequence of a subset constraint.
type side int

const (
	subsetSide side = iota
	supersetSide
)

func (s side) String() string {
	if s == subsetSide {
		return "subset"
	}
	return "superset"
}

func sequence(sc *model.SubsetConstraint, s side) model.RoleSequence {
	if s == subsetSide {
		return sc.Subset()
	}
	return sc.Superset()
}

// materializeAll materializes every multi-relationship join path of sc and
// reports whether sc is free of join paths afterwards.
func (p *pass) materializeAll(sc *model.SubsetConstraint) bool {
	clean := true
	for _, s := range []side{subsetSide, supersetSide} {
		seq := sequence(sc, s)
		if seq.JoinPath == nil {
			continue
		}
		if seq.JoinPath.Len() < 2 {
			if onOneRelationship(seq.Roles) {
				p.dropTrivialPath(sc, s)
			} else {
				clean = false
			}
			continue
		}
		if !p.materialize(sc, s) {
			clean = false
		}
	}
	return clean
}

func onOneRelationship(roles []*model.Role) bool {
	for _, r := range roles[min(1, len(roles)):] {
		if r.Relationship() != roles[0].Relationship() {
			return false
		}
	}
	return true
}

// dropTrivialPath clears a join path that traverses at most one
// relationship; the sequence already lies on a single relationship.
func (p *pass) dropTrivialPath(sc *model.SubsetConstraint, s side) {
	sub, sup := sc.Subset(), sc.Superset()
	if s == subsetSide {
		sub.JoinPath = nil
	} else {
		sup.JoinPath = nil
	}
	p.graph().ReplaceSequences(sc, sub, sup)
	p.modified(sc)
}

// materialize replaces one join-path sequence of sc with a sequence on a
// new synthetic relationship holding one role per distinct role on the
// path (joined roles count once). An equality constraint binds each path
// relationship to its projection of the synthetic relationship. Nothing is
// changed when a covered role lies off the path or the projection does not
// match the sequence.
func (p *pass) materialize(sc *model.SubsetConstraint, s side) bool {
	seq := sequence(sc, s)
	path := seq.JoinPath

	joinedTo := make(map[*model.Role]*model.Role)
	for _, j := range path.Joins() {
		joinedTo[j.In] = j.Out
	}
	canon := func(r *model.Role) *model.Role {
		for {
			out, ok := joinedTo[r]
			if !ok {
				return r
			}
			r = out
		}
	}

	var order []*model.Role
	for _, r := range seq.Roles {
		if !path.Includes(r.Relationship()) {
			p.logger().Debug("join path does not cover role", "constraint", sc.Name(), "side", s.String(), "role", r.FullName())
			return false
		}
		if c := canon(r); !slices.Contains(order, c) {
			order = append(order, c)
		}
	}
	if len(order) != len(seq.Roles) {
		p.logger().Debug("join projection does not match sequence", "constraint", sc.Name(), "side", s.String(), "roles", len(seq.Roles), "projected", len(order))
		return false
	}
	for _, rel := range path.Relationships() {
		for _, r := range rel.Roles() {
			if c := canon(r); !slices.Contains(order, c) {
				order = append(order, c)
			}
		}
	}

	joined := model.NewRelationship("JoinFact_" + sc.Name())
	synthetic := make(map[*model.Role]*model.Role, len(order))
	for _, r := range order {
		nr := joined.AddRole(roleLabel(r), r.Player())
		nr.SetSource(r.Relationship().Name())
		synthetic[r] = nr
	}
	p.add(joined)

	for _, rel := range path.Relationships() {
		var projected []*model.Role
		for _, r := range rel.Roles() {
			projected = append(projected, synthetic[canon(r)])
		}
		p.add(model.NewEquality("EQ_"+joined.Name()+"_"+rel.Name(), model.Seq(rel.Roles()...), model.Seq(projected...)))
	}

	replaced := make([]*model.Role, len(seq.Roles))
	for i, r := range seq.Roles {
		replaced[i] = synthetic[canon(r)]
	}
	sub, sup := sc.Subset(), sc.Superset()
	if s == subsetSide {
		sub = model.Seq(replaced...)
	} else {
		sup = model.Seq(replaced...)
	}
	p.graph().ReplaceSequences(sc, sub, sup)
	p.modified(sc)

	for _, j := range path.Joins() {
		p.requireUnique(j.Out)
		p.requireUnique(j.In)
		p.requireUnique(synthetic[canon(j.Out)])
	}
	p.logger().Debug("materialized join path", "constraint", sc.Name(), "side", s.String(), "relationship", joined.Name(), "arity", joined.Arity())
	return true
}
