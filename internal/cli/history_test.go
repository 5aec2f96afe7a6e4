package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/store"
)

// journaledRun reduces the cycle schema into a fresh journal and returns
// the journal path and the run ID.
func journaledRun(t *testing.T) (string, string) {
	t.Helper()
	journal := filepath.Join(t.TempDir(), "runs.db")

	out, _, err := execute(t, "reduce", "--format", "json", "--journal", journal, "testdata/cycle.yaml")
	require.NoError(t, err)

	var resp reduceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data.RunID)
	return journal, resp.Data.RunID
}

func TestReduce_JournalReportsRunID(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "runs.db")

	out, _, err := execute(t, "reduce", "--journal", journal, "testdata/cycle.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Run: ")
}

func TestHistory_ListRuns(t *testing.T) {
	journal, runID := journaledRun(t)

	out, _, err := execute(t, "history", journal)
	require.NoError(t, err)
	assert.Contains(t, out, runID)
	assert.Contains(t, out, store.StatusCompleted)
	assert.Contains(t, out, "testdata/cycle.yaml")
	assert.Contains(t, out, "2 iteration(s)")
}

func TestHistory_ListRunsJSON(t *testing.T) {
	journal, runID := journaledRun(t)

	out, _, err := execute(t, "history", "--format", "json", journal)
	require.NoError(t, err)

	var resp struct {
		Status string  `json:"status"`
		Data   RunList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 1)
	run := resp.Data.Runs[0]
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, []string{"subset constraint S2 over [R2.a, R1.a]"}, run.Dropped)
}

func TestHistory_Run(t *testing.T) {
	journal, runID := journaledRun(t)

	out, _, err := execute(t, "history", "--run", runID, journal)
	require.NoError(t, err)

	assert.Contains(t, out, "Run "+runID+" (completed)")
	assert.Contains(t, out, "* [7] subset-pruning (iteration 1)")
	assert.Contains(t, out, "      removed subset S2")
	assert.Contains(t, out, "  [18] root-roles (iteration 2)")
	assert.Contains(t, out, "Dropped: subset constraint S2 over [R2.a, R1.a]")
}

func TestHistory_Element(t *testing.T) {
	journal, runID := journaledRun(t)

	out, _, err := execute(t, "history", "--format", "json", "--element", "R1.a", journal)
	require.NoError(t, err)

	var resp struct {
		Data ElementHistory `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "R1.a", resp.Data.Element)
	require.Len(t, resp.Data.Changes, 1)
	c := resp.Data.Changes[0]
	assert.Equal(t, runID, c.RunID)
	assert.Equal(t, "root-roles", c.Pass)
	assert.Equal(t, "modified", c.Change.Op)
}

func TestHistory_ElementWithoutChanges(t *testing.T) {
	journal, _ := journaledRun(t)

	out, _, err := execute(t, "history", "--element", "Nothing", journal)
	require.NoError(t, err)
	assert.Contains(t, out, "No changes recorded for Nothing")
}

func TestHistory_Errors(t *testing.T) {
	journal, _ := journaledRun(t)

	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{"missing journal", []string{"history", filepath.Join(t.TempDir(), "none.db")}, "journal not found"},
		{"unknown run", []string{"history", "--run", "nope", journal}, "run nope not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestHistory_RunAndElementExclusive(t *testing.T) {
	journal, _ := journaledRun(t)

	_, _, err := execute(t, "history", "--run", "x", "--element", "y", journal)
	require.Error(t, err)
}
