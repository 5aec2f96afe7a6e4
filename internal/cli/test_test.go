package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTest_Passing(t *testing.T) {
	out, _, err := execute(t, "test", "--filter", "subset_*", filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ subset_cycle")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_Failing(t *testing.T) {
	out, _, err := execute(t, "test", filepath.Join("testdata", "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Expected: 2 constraint(s)")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTest_JSON(t *testing.T) {
	out, _, err := execute(t, "test", "--format", "json", filepath.Join("testdata", "scenarios", "failing"))
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "wrong_count", resp.Data.Scenarios[0].Name)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTest_NoScenarios(t *testing.T) {
	out, _, err := execute(t, "test", "--filter", "nothing_*", filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join("testdata", "none"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, "test", "--filter", "[", filepath.Join("testdata", "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
