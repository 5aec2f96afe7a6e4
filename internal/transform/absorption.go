package transform

import (
	"strings"

	"github.com/roach88/ormminus/internal/model"
)

// Absorption folds a compound reference scheme, expressed as an external
// uniqueness constraint over several binary relationships, into a single
// relationship whose extra root role is played by the identified type.
type Absorption struct {
	pass
}

// NewAbsorption creates the absorption pass.
func NewAbsorption(env Env) *Absorption {
	return &Absorption{pass: newPass(AbsorptionPass, env)}
}

// absorbable is a matched compound reference scheme.
type absorbable struct {
	euc     *model.FrequencyConstraint
	owner   *model.ObjectType
	covered []*model.Role
	rels    []*model.Relationship
}

// Execute runs one pass.
func (t *Absorption) Execute() bool {
	t.begin()
	for _, fc := range constraintsOf[*model.FrequencyConstraint](t.graph()) {
		if !t.graph().Has(fc) {
			continue
		}
		if match, ok := t.match(fc); ok {
			t.absorb(match)
		}
	}
	return t.log.Changed()
}

func (t *Absorption) match(euc *model.FrequencyConstraint) (absorbable, bool) {
	if !euc.IsUniqueness() || euc.Internal() || len(euc.Roles()) < 2 {
		return absorbable{}, false
	}
	m := absorbable{euc: euc}
	for _, r := range euc.Roles() {
		rel := r.Relationship()
		if rel.Arity() != 2 || rel.Objectified() {
			return absorbable{}, false
		}
		for _, seen := range m.rels {
			if seen == rel {
				return absorbable{}, false
			}
		}
		other := rel.Roles()[0]
		if other == r {
			other = rel.Roles()[1]
		}
		if m.owner == nil {
			m.owner = other.Player()
		} else if other.Player() != m.owner {
			return absorbable{}, false
		}
		if !referenceSide(other) || !coveredOnlyBy(r, euc) {
			return absorbable{}, false
		}
		m.covered = append(m.covered, r)
		m.rels = append(m.rels, rel)
	}
	for _, rel := range m.rels {
		if c := t.joinedThrough(rel, euc); c != nil {
			t.logger().Debug("reference relationship is on a join path", "constraint", euc.Name(), "relationship", rel.Name(), "join", c.Name())
			return absorbable{}, false
		}
	}
	return m, true
}

// joinedThrough returns a constraint other than except whose join path
// includes rel, or nil.
func (t *Absorption) joinedThrough(rel *model.Relationship, except model.Constraint) model.Constraint {
	for _, c := range t.graph().Constraints.All() {
		if c == except {
			continue
		}
		var paths []*model.JoinPath
		switch v := c.(type) {
		case *model.FrequencyConstraint:
			paths = append(paths, v.JoinPath())
		case *model.SubsetConstraint:
			paths = append(paths, v.Subset().JoinPath, v.Superset().JoinPath)
		}
		for _, p := range paths {
			if p != nil && p.Includes(rel) {
				return c
			}
		}
	}
	return nil
}

// referenceSide reports whether r is covered by exactly one simple
// uniqueness constraint and one simple mandatory constraint.
func referenceSide(r *model.Role) bool {
	var unique, mandatory int
	for _, c := range r.CoveredBy() {
		switch v := c.(type) {
		case *model.FrequencyConstraint:
			if !v.IsUniqueness() || !v.Simple() {
				return false
			}
			unique++
		case *model.MandatoryConstraint:
			if !v.Simple() {
				return false
			}
			mandatory++
		default:
			return false
		}
	}
	return unique == 1 && mandatory == 1
}

// coveredOnlyBy reports whether r is covered by euc and at most simple
// mandatory constraints besides.
func coveredOnlyBy(r *model.Role, euc *model.FrequencyConstraint) bool {
	for _, c := range r.CoveredBy() {
		if c == model.Constraint(euc) {
			continue
		}
		mc, ok := c.(*model.MandatoryConstraint)
		if !ok || !mc.Simple() {
			return false
		}
	}
	return true
}

func (t *Absorption) absorb(a absorbable) {
	type moved struct {
		name      string
		player    *model.ObjectType
		source    string
		mandatory bool
	}
	var roles []moved
	players := make([]string, 0, len(a.covered))
	for _, r := range a.covered {
		roles = append(roles, moved{
			name:      r.Name(),
			player:    r.Player(),
			source:    r.Relationship().Name(),
			mandatory: r.Mandatory(),
		})
		players = append(players, r.Player().Name())
	}
	identifies := a.euc.IdentifierFor()
	eucName := a.euc.Name()

	for _, rel := range a.rels {
		t.remove(rel)
	}

	rel := model.NewRelationship(a.owner.Name() + "Has" + strings.Join(players, ""))
	root := rel.AddRole(strings.ToLower(a.owner.Name()), a.owner)
	newRoles := make([]*model.Role, len(roles))
	for i, mv := range roles {
		newRoles[i] = rel.AddRole(mv.name, mv.player)
		newRoles[i].SetSource(mv.source)
	}
	t.add(rel)

	t.add(model.NewUniqueness("UC_"+roleLabel(root), root))
	t.add(model.NewMandatory("MC_"+roleLabel(root), root))
	for i, mv := range roles {
		if mv.mandatory {
			t.add(model.NewMandatory("MC_"+roleLabel(newRoles[i]), newRoles[i]))
		}
	}
	uc := model.NewUniqueness(eucName, newRoles...)
	if identifies != nil {
		uc.IdentifyingFor(identifies)
	}
	t.add(uc)
	t.logger().Debug("absorbed reference scheme", "constraint", eucName, "relationship", rel.Name(), "arity", rel.Arity())
}
