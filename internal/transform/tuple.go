package transform

import (
	"strconv"

	"github.com/roach88/ormminus/internal/model"
)

// TupleSubsets expands every subset or equality constraint over more than
// one role pair into one simple constraint per pair, forcing uniqueness
// where the expansion would otherwise lose the tuple's meaning.
type TupleSubsets struct {
	pass
}

// NewTupleSubsets creates the tuple-subset expansion pass.
func NewTupleSubsets(env Env) *TupleSubsets {
	return &TupleSubsets{pass: newPass(TupleSubsetsPass, env)}
}

// Execute runs one pass.
func (t *TupleSubsets) Execute() bool {
	t.begin()
	for _, sc := range constraintsOf[*model.SubsetConstraint](t.graph()) {
		if sc.Pairs() < 2 {
			continue
		}
		if !t.materializeAll(sc) {
			t.logger().Debug("skipping tuple constraint with unmaterialized join path", "constraint", sc.Name())
			continue
		}
		t.expand(sc)
	}
	return t.log.Changed()
}

func (t *TupleSubsets) expand(sc *model.SubsetConstraint) {
	sub, sup := sc.Subset().Roles, sc.Superset().Roles
	supersetUnique := false
	for _, r := range sup {
		if r.Unique() {
			supersetUnique = true
		}
	}

	name := sc.Name()
	t.remove(sc)
	for i := range min(len(sub), len(sup)) {
		pairName := name + "_" + strconv.Itoa(i+1)
		if sc.Equality() {
			t.add(model.NewEquality(pairName, model.Seq(sub[i]), model.Seq(sup[i])))
		} else {
			t.add(model.NewSubset(pairName, model.Seq(sub[i]), model.Seq(sup[i])))
		}
		t.requireUnique(sub[i])
	}
	if sc.Equality() && !supersetUnique && len(sup) > 0 {
		t.requireUnique(sup[len(sup)-1])
	}
	t.logger().Debug("expanded tuple constraint", "constraint", name, "pairs", min(len(sub), len(sup)))
}
