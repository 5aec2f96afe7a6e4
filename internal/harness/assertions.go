package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ormminus/internal/model"
	"github.com/roach88/ormminus/internal/store"
)

// AssertionContext carries what assertions inspect besides the trace.
type AssertionContext struct {
	Model *model.Model
	Store *store.Store
	RunID string
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Only passes that changed something are useful context
	fmt.Fprintf(&buf, "\nChanges:\n")
	for _, event := range e.Trace {
		for _, c := range event.Changes {
			fmt.Fprintf(&buf, "  [%d] %s: %s %s %s\n", event.Seq, event.Pass, c.Op, c.Kind, c.Name)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertIterations:
		return assertIterations(result, a)
	case AssertElementPresent:
		return assertElement(result, a, actx.Model, true)
	case AssertElementAbsent:
		return assertElement(result, a, actx.Model, false)
	case AssertChange:
		return assertChange(result, a)
	case AssertDropped:
		return assertDropped(result, a)
	case AssertRootRole:
		return assertRootRole(result, a, actx.Model)
	case AssertConstraintCount:
		return assertConstraintCount(result, a, actx.Model)
	case AssertError:
		return assertError(result, a)
	case AssertJournalStatus:
		return assertJournalStatus(result, a, actx)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertIterations(result *Result, a Assertion) error {
	if result.Iterations == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d iteration(s)", a.Count),
		Actual:   fmt.Sprintf("%d iteration(s)", result.Iterations),
		Trace:    result.Trace,
	}
}

func assertElement(result *Result, a Assertion, m *model.Model, present bool) error {
	found := findElement(m, a.Element) != nil
	if found == present {
		return nil
	}
	expected, actual := "present", "absent"
	if !present {
		expected, actual = actual, expected
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s", a.Element, expected),
		Actual:   fmt.Sprintf("%s %s", a.Element, actual),
		Trace:    result.Trace,
	}
}

// assertChange checks that some pass logged a change to the element.
// Pass and Op narrow the match when set.
func assertChange(result *Result, a Assertion) error {
	for _, event := range result.Trace {
		if a.Pass != "" && event.Pass != a.Pass {
			continue
		}
		for _, c := range event.Changes {
			if c.Name == a.Element && (a.Op == "" || c.Op == a.Op) {
				return nil
			}
		}
	}

	var expected strings.Builder
	expected.WriteString(a.Element)
	if a.Op != "" {
		fmt.Fprintf(&expected, " %s", a.Op)
	}
	if a.Pass != "" {
		fmt.Fprintf(&expected, " by %s", a.Pass)
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: expected.String(),
		Actual:   "no matching change in trace",
		Trace:    result.Trace,
	}
}

func assertDropped(result *Result, a Assertion) error {
	if slices.Equal(result.Dropped, a.Values) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%q", a.Values),
		Actual:   fmt.Sprintf("%q", result.Dropped),
		Trace:    result.Trace,
	}
}

func assertRootRole(result *Result, a Assertion, m *model.Model) error {
	role, ok := findElement(m, a.Element).(*model.Role)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("role %s", a.Element),
			Actual:   "no such role",
			Trace:    result.Trace,
		}
	}
	actual := "none"
	if root := role.RootRole(); root != nil {
		actual = root.FullName()
	}
	if actual == a.Root {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s rooted at %s", a.Element, a.Root),
		Actual:   fmt.Sprintf("%s rooted at %s", a.Element, actual),
		Trace:    result.Trace,
	}
}

func assertConstraintCount(result *Result, a Assertion, m *model.Model) error {
	if n := m.Constraints.Len(); n != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d constraint(s)", a.Count),
			Actual:   fmt.Sprintf("%d constraint(s)", n),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertError(result *Result, a Assertion) error {
	if result.ErrorCode == a.Code {
		return nil
	}
	actual := result.ErrorCode
	if actual == "" {
		actual = "run succeeded"
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: a.Code,
		Actual:   actual,
		Trace:    result.Trace,
	}
}

func assertJournalStatus(result *Result, a Assertion, actx *AssertionContext) error {
	if actx.Store == nil {
		return fmt.Errorf("journal_status requires a journal")
	}
	run, _, err := actx.Store.ReadRun(actx.Ctx, actx.RunID)
	if err != nil {
		return fmt.Errorf("journal_status: %w", err)
	}
	if run.Status == a.Status {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: a.Status,
		Actual:   run.Status,
		Trace:    result.Trace,
	}
}

// findElement resolves an object type, relationship or constraint name,
// or a qualified role name, in m. It returns nil when nothing matches.
func findElement(m *model.Model, name string) model.Element {
	if o, ok := m.ObjectTypes.Get(name); ok {
		return o
	}
	if r, ok := m.Relationships.Get(name); ok {
		return r
	}
	if c, ok := m.Constraints.Get(name); ok {
		return c
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		if rel, ok := m.Relationships.Get(name[:i]); ok {
			if role := rel.Role(name[i+1:]); role != nil {
				return role
			}
		}
	}
	return nil
}
