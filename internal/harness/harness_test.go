package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion failures:\n%v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "subset_cycle.yaml"))
	require.NoError(t, err)
	scenario.Assertions = []Assertion{
		{Type: AssertIterations, Count: 5},
		{Type: AssertElementPresent, Element: "S2"},
		{Type: AssertRootRole, Element: "R2.a", Root: "R1.a"},
		{Type: AssertError, Code: "ITERATION_LIMIT"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Expected: 5 iteration(s)")
	assert.Contains(t, result.Errors[1], "Actual: S2 absent")
	assert.Contains(t, result.Errors[2], "Actual: R2.a rooted at R2.a")
	assert.Contains(t, result.Errors[3], "Actual: run succeeded")
}

func TestRun_UnexpectedFailure(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "subtype_cycle.yaml"))
	require.NoError(t, err)
	scenario.Assertions = []Assertion{{Type: AssertConstraintCount, Count: 2}}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "run failed unexpectedly")
	assert.Equal(t, "LINEAGE_INVALID", result.ErrorCode)
}

func TestRun_InvalidSchema(t *testing.T) {
	path := writeScenario(t, "name: x\ndescription: d\nschema: schema.yaml\nassertions: [{type: iterations, count: 1}]\n")
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	scenario.Schema = filepath.Join("testdata", "scenarios", "subset_cycle.yaml")

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestRun_UnknownPass(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "subset_cycle.yaml"))
	require.NoError(t, err)
	scenario.Passes = []string{"nonsense"}

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to configure pipeline")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "subset_cycle.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}
