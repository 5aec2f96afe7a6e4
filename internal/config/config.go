package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/roach88/ormminus/internal/pipeline"
)

// EnvPrefix prefixes environment overrides, e.g. ORMMINUS_MAX_ITERATIONS.
const EnvPrefix = "ORMMINUS"

// Config holds the runtime configuration of a pipeline run.
// Values are populated from .ormminus.yaml, ORMMINUS_* env vars, and CLI flags.
type Config struct {
	Iterate       bool     `mapstructure:"iterate"`
	MaxIterations int      `mapstructure:"max_iterations"`
	Journal       string   `mapstructure:"journal"`
	Passes        []string `mapstructure:"passes"`
	Verbose       bool     `mapstructure:"verbose"`
	Format        string   `mapstructure:"format"`
}

// New creates a viper instance reading cfgFile, or .ormminus.yaml from the
// working directory and then the home directory when cfgFile is empty.
// A missing default file is not an error; a missing explicit one is.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".ormminus")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads configuration from v, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("iterate", true)
	v.SetDefault("max_iterations", pipeline.DefaultMaxIterations)
	v.SetDefault("journal", "")
	v.SetDefault("passes", []string{})
	v.SetDefault("verbose", false)
	v.SetDefault("format", "text")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.MaxIterations < 1 {
		return Config{}, fmt.Errorf("max_iterations must be at least 1, got %d", cfg.MaxIterations)
	}
	if cfg.Format != "text" && cfg.Format != "json" {
		return Config{}, fmt.Errorf("format must be text or json, got %q", cfg.Format)
	}
	return cfg, nil
}

// PipelineOptions translates the configuration into pipeline options. An
// empty pass list keeps the default pipeline.
func (c Config) PipelineOptions() []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithIterate(c.Iterate),
		pipeline.WithMaxIterations(c.MaxIterations),
	}
	if len(c.Passes) > 0 {
		opts = append(opts, pipeline.WithPasses(c.Passes...))
	}
	return opts
}
