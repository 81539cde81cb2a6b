package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rulec/internal/canon"
	"github.com/roach88/rulec/internal/frontend"
	"github.com/roach88/rulec/internal/pipeline"
	"github.com/roach88/rulec/internal/store"
)

// Scenario is one end-to-end compilation with its expected outcome.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Source is an inline rule document. Exactly one of Source and File
	// is set.
	Source string `yaml:"source,omitempty"`

	// File is a rule document path, relative to the scenario file.
	File string `yaml:"file,omitempty"`

	// Format overrides detection from File's extension. Inline sources
	// default to yaml.
	Format string `yaml:"format,omitempty"`

	// Stage stops the pipeline at a stop point; Output is then the dump.
	Stage string `yaml:"stage,omitempty"`

	FailFast bool `yaml:"fail_fast,omitempty"`

	// Canonicalize is sweep or fixpoint.
	Canonicalize string `yaml:"canonicalize,omitempty"`

	Expect Expect `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden compares Snapshot(result) with testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// Expect is the overall outcome.
type Expect struct {
	// Status is ok, diagnostics or failed.
	Status string `yaml:"status"`

	// Error is a substring of the compile error. Only for failed runs.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one property of the result.
type Assertion struct {
	Type   string   `yaml:"type"`
	Text   string   `yaml:"text,omitempty"`
	Code   string   `yaml:"code,omitempty"`
	Rule   string   `yaml:"rule,omitempty"`
	Count  int      `yaml:"count,omitempty"`
	Passes []string `yaml:"passes,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains  = "output_contains"
	AssertOutputLacks     = "output_lacks"
	AssertDiagnostic      = "diagnostic"
	AssertDiagnosticCount = "diagnostic_count"
	AssertPassOrder       = "pass_order"
)

// LoadScenario reads a scenario file. Unknown fields are rejected and File
// is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if s.File != "" && !filepath.IsAbs(s.File) {
		s.File = filepath.Join(filepath.Dir(path), s.File)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", dir)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	seen := map[string]string{}
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("scenario name %q used by both %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Source == "") == (s.File == "") {
		return fmt.Errorf("exactly one of source and file is required")
	}
	if s.File != "" {
		if _, err := os.Stat(s.File); err != nil {
			return fmt.Errorf("rule file not found: %s", s.File)
		}
	}
	if s.Format != "" {
		if _, err := frontend.ParseFormat(s.Format); err != nil {
			return err
		}
	}
	if _, err := pipeline.ParseStage(s.Stage); err != nil {
		return err
	}
	if _, err := canon.ParseMode(s.Canonicalize); err != nil {
		return err
	}

	if s.Expect.Status == "" {
		return fmt.Errorf("expect.status is required")
	}
	st, err := store.ParseStatus(s.Expect.Status)
	if err != nil {
		return fmt.Errorf("expect.status: %w", err)
	}
	if s.Expect.Error != "" && st != store.StatusFailed {
		return fmt.Errorf("expect.error is only meaningful with status failed")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertOutputContains, AssertOutputLacks:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
	case AssertDiagnosticCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertPassOrder:
		if len(a.Passes) == 0 {
			return fmt.Errorf("assertions[%d]: passes list is required for pass_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
