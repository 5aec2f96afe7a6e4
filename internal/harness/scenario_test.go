package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content and a minimal schema.yaml into a temp dir
// and returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.yaml"), []byte("name: s\n"), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "subset_cycle.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "subset_cycle", s.Name)
	assert.Equal(t, filepath.Join("testdata", "schemas", "cycle.yaml"), s.Schema)
	assert.Nil(t, s.Iterate)
	require.Len(t, s.Assertions, 9)
	assert.Equal(t, AssertIterations, s.Assertions[0].Type)
	assert.Equal(t, 2, s.Assertions[0].Count)
}

func TestLoadScenario_Overrides(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "derived_dropped.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"value-constraints"}, s.Passes)
	require.NotNil(t, s.Iterate)
	assert.False(t, *s.Iterate)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nschema: schema.yaml\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\nschema: schema.yaml\nassertions: [{type: iterations, count: 1}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nschema: schema.yaml\nassertions: [{type: iterations, count: 1}]\n",
			wantErr: "description is required",
		},
		{
			name:    "missing schema",
			content: "name: x\ndescription: d\nassertions: [{type: iterations, count: 1}]\n",
			wantErr: "schema is required",
		},
		{
			name:    "schema not found",
			content: "name: x\ndescription: d\nschema: nope.yaml\nassertions: [{type: iterations, count: 1}]\n",
			wantErr: "schema file not found",
		},
		{
			name:    "no assertions",
			content: "name: x\ndescription: d\nschema: schema.yaml\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: d\nschema: schema.yaml\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "root role without root",
			content: "name: x\ndescription: d\nschema: schema.yaml\nassertions: [{type: root_role, element: R.a}]\n",
			wantErr: "element and root are required",
		},
		{
			name:    "dropped without values",
			content: "name: x\ndescription: d\nschema: schema.yaml\nassertions: [{type: dropped}]\n",
			wantErr: "values is required",
		},
		{
			name:    "negative max iterations",
			content: "name: x\ndescription: d\nschema: schema.yaml\nmax_iterations: -1\nassertions: [{type: iterations, count: 1}]\n",
			wantErr: "max_iterations must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join("testdata", "scenarios", "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_EmptyDroppedList(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, "name: x\ndescription: d\nschema: schema.yaml\nassertions: [{type: dropped, values: []}]\n"))
	require.NoError(t, err)
	assert.NotNil(t, s.Assertions[0].Values)
	assert.Empty(t, s.Assertions[0].Values)
}
