package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/testutil"
)

type reduceResponse struct {
	Status string       `json:"status"`
	Data   ReduceReport `json:"data"`
	Error  *CLIError    `json:"error"`
}

func TestReduce_TextGolden(t *testing.T) {
	out, stderr, err := execute(t, "reduce", "testdata/cycle.yaml")
	require.NoError(t, err)

	testutil.AssertGolden(t, "reduce_cycle", []byte(out))
	assert.Contains(t, stderr, "run complete")
}

func TestReduce_JSON(t *testing.T) {
	out, _, err := execute(t, "reduce", "--format", "json", "testdata/cycle.yaml")
	require.NoError(t, err)

	var resp reduceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cycle", resp.Data.Schema)
	assert.Equal(t, 2, resp.Data.Iterations)
	assert.Empty(t, resp.Data.RunID, "run IDs are reported only when journaling")
	assert.NotEqual(t, resp.Data.InitialFingerprint, resp.Data.Fingerprint)
	assert.Equal(t, []string{"subset constraint S2 over [R2.a, R1.a]"}, resp.Data.Dropped)
	assert.Equal(t, 1, resp.Data.Constraints)
	assert.Len(t, resp.Data.Passes, 18)
}

func TestReduce_VerboseShowsFingerprint(t *testing.T) {
	out, _, err := execute(t, "reduce", "-v", "testdata/cycle.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, " -> ")
}

func TestReduce_NoChanges(t *testing.T) {
	out, _, err := execute(t, "reduce", "--passes", "value-constraints", "testdata/derived.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Reduced derived in 1 iteration(s)")
	assert.Contains(t, out, "  (none)")
	assert.Contains(t, out, "mandatory constraint MC_Adult over derived relationship PersonIsAdult")
	assert.Contains(t, out, "Result: 1 object type(s), 1 relationship(s), 0 constraint(s)")
}

func TestReduce_SinglePass(t *testing.T) {
	out, _, err := execute(t, "reduce", "--format", "json", "--iterate=false", "testdata/cycle.yaml")
	require.NoError(t, err)

	var resp reduceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Iterations)
	assert.Len(t, resp.Data.Passes, 9)
}

func TestReduce_WritesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reduced.json")

	_, _, err := execute(t, "reduce", "-o", path, "testdata/cycle.yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Len(t, snapshot["constraints"], 1)
	assert.Len(t, snapshot["relationships"], 2)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestReduce_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "missing file",
			args:     []string{"reduce", "testdata/missing.yaml"},
			wantCode: ExitCommandError,
			wantOut:  "Error [E005]",
		},
		{
			name:     "unsupported extension",
			args:     []string{"reduce", "testdata/golden/reduce_cycle.golden"},
			wantCode: ExitCommandError,
			wantOut:  "Error [E002]",
		},
		{
			name:     "invalid schema",
			args:     []string{"reduce", "testdata/bad.yaml"},
			wantCode: ExitFailure,
			wantOut:  "Error [E014]",
		},
		{
			name:     "unknown pass",
			args:     []string{"reduce", "--passes", "absorption,nonsense", "testdata/cycle.yaml"},
			wantCode: ExitCommandError,
			wantOut:  "Error [UNKNOWN_PASS]",
		},
		{
			name:     "iteration limit",
			args:     []string{"reduce", "--max-iterations", "1", "testdata/cycle.yaml"},
			wantCode: ExitFailure,
			wantOut:  "Error [ITERATION_LIMIT]",
		},
		{
			name:     "subtype cycle",
			args:     []string{"reduce", "testdata/subtype_cycle.yaml"},
			wantCode: ExitFailure,
			wantOut:  "Error [LINEAGE_INVALID]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestReduce_JSONError(t *testing.T) {
	out, _, err := execute(t, "reduce", "--format", "json", "testdata/bad.yaml")
	require.Error(t, err)

	var resp reduceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E014", resp.Error.Code)
}

func TestReduce_RequiresOneArgument(t *testing.T) {
	_, _, err := execute(t, "reduce")
	require.Error(t, err)
}
