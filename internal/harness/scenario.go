package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a reduction scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE or YAML schema to reduce. Relative paths are
	// resolved against the scenario file's directory.
	Schema string `yaml:"schema"`

	// Passes overrides the pass list. Empty means the full pipeline.
	Passes []string `yaml:"passes,omitempty"`

	// Iterate overrides fixpoint iteration (default true).
	Iterate *bool `yaml:"iterate,omitempty"`

	// MaxIterations overrides the sweep limit when positive.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// Assertions are evaluated against the reduced schema and the run.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a scenario run.
type Assertion struct {
	Type string `yaml:"type"`

	// Element is an object type, relationship or constraint name, or a
	// qualified role name (element_present, element_absent, change,
	// root_role).
	Element string `yaml:"element,omitempty"`

	// Pass and Op narrow a change assertion.
	Pass string `yaml:"pass,omitempty"`
	Op   string `yaml:"op,omitempty"`

	// Root is the expected root role (root_role).
	Root string `yaml:"root,omitempty"`

	// Count is the expected number (iterations, constraint_count).
	Count int `yaml:"count,omitempty"`

	// Values is the expected dropped report (dropped).
	Values []string `yaml:"values,omitempty"`

	// Code is the expected pipeline error code (error).
	Code string `yaml:"code,omitempty"`

	// Status is the expected journal status (journal_status).
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertIterations      = "iterations"
	AssertElementPresent  = "element_present"
	AssertElementAbsent   = "element_absent"
	AssertChange          = "change"
	AssertDropped         = "dropped"
	AssertRootRole        = "root_role"
	AssertConstraintCount = "constraint_count"
	AssertError           = "error"
	AssertJournalStatus   = "journal_status"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", s.Schema)
	}

	if s.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertIterations:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for iterations", index)
		}
	case AssertElementPresent, AssertElementAbsent:
		if a.Element == "" {
			return fmt.Errorf("assertions[%d]: element is required for %s", index, a.Type)
		}
	case AssertChange:
		if a.Element == "" {
			return fmt.Errorf("assertions[%d]: element is required for change", index)
		}
	case AssertDropped:
		if a.Values == nil {
			return fmt.Errorf("assertions[%d]: values is required for dropped (use [] for none)", index)
		}
	case AssertRootRole:
		if a.Element == "" || a.Root == "" {
			return fmt.Errorf("assertions[%d]: element and root are required for root_role", index)
		}
	case AssertConstraintCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for constraint_count", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	case AssertJournalStatus:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for journal_status", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
