package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormminus/internal/pipeline"
)

// inDir runs the test from dir so the default config lookup sees only
// what the test writes there.
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
}

func TestLoad_Defaults(t *testing.T) {
	inDir(t, t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, Config{
		Iterate:       true,
		MaxIterations: pipeline.DefaultMaxIterations,
		Passes:        []string{},
		Format:        "text",
	}, cfg)
}

func TestLoad_DefaultFile(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".ormminus.yaml"), []byte(`
iterate: false
max_iterations: 3
journal: runs.db
passes: [absorption, root-roles]
`), 0o644))

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.False(t, cfg.Iterate)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, "runs.db", cfg.Journal)
	assert.Equal(t, []string{"absorption", "root-roles"}, cfg.Passes)
}

func TestLoad_ExplicitFile(t *testing.T) {
	inDir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\n"), 0o644))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestNew_MissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	inDir(t, t.TempDir())

	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{"iterate", "ORMMINUS_ITERATE", "false", func(c Config) any { return c.Iterate }, false},
		{"max_iterations", "ORMMINUS_MAX_ITERATIONS", "7", func(c Config) any { return c.MaxIterations }, 7},
		{"journal", "ORMMINUS_JOURNAL", "/tmp/j.db", func(c Config) any { return c.Journal }, "/tmp/j.db"},
		{"passes", "ORMMINUS_PASSES", "absorption,root-roles", func(c Config) any { return c.Passes }, []string{"absorption", "root-roles"}},
		{"verbose", "ORMMINUS_VERBOSE", "true", func(c Config) any { return c.Verbose }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envVal)
			v, err := New("")
			require.NoError(t, err)
			cfg, err := Load(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.field(cfg))
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	inDir(t, t.TempDir())

	t.Run("max_iterations", func(t *testing.T) {
		t.Setenv("ORMMINUS_MAX_ITERATIONS", "0")
		v, err := New("")
		require.NoError(t, err)
		_, err = Load(v)
		assert.ErrorContains(t, err, "max_iterations")
	})
	t.Run("format", func(t *testing.T) {
		t.Setenv("ORMMINUS_FORMAT", "xml")
		v, err := New("")
		require.NoError(t, err)
		_, err = Load(v)
		assert.ErrorContains(t, err, "format")
	})
}

func TestPipelineOptions(t *testing.T) {
	p, err := pipeline.New(Config{Iterate: true, MaxIterations: 2}.PipelineOptions()...)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultPasses(), p.Passes())

	p, err = pipeline.New(Config{MaxIterations: 2, Passes: []string{"root-roles"}}.PipelineOptions()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"root-roles"}, p.Passes())

	_, err = pipeline.New(Config{MaxIterations: 1, Passes: []string{"nope"}}.PipelineOptions()...)
	assert.True(t, pipeline.HasCode(err, pipeline.ErrCodeUnknownPass))
}
