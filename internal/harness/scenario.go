package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one swap evaluation and its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RulesFile is a rule source (CUE, JSON or YAML file, or a directory).
	RulesFile string `yaml:"rules_file,omitempty"`

	// Rules is an inline rule document, used when RulesFile is empty.
	Rules yaml.Node `yaml:"rules,omitempty"`

	// CatalogFile supplies engines and vehicles referenced by key.
	CatalogFile string `yaml:"catalog_file,omitempty"`

	// Donor, Target and Vehicle are catalog keys or inline profiles.
	Donor   yaml.Node `yaml:"donor"`
	Target  yaml.Node `yaml:"target,omitempty"`
	Vehicle yaml.Node `yaml:"vehicle,omitempty"`

	Expect Expectation `yaml:"expect"`
}

// Expectation lists the checks applied to the evaluation result.
// Nil fields are not checked.
type Expectation struct {
	Score               *int      `yaml:"score,omitempty"`
	Level               string    `yaml:"level,omitempty"`
	Warnings            *[]string `yaml:"warnings,omitempty"`
	Changes             *[]string `yaml:"changes,omitempty"`
	ExplanationContains []string  `yaml:"explanation_contains,omitempty"`
}

func (e Expectation) empty() bool {
	return e.Score == nil && e.Level == "" && e.Warnings == nil &&
		e.Changes == nil && len(e.ExplanationContains) == 0
}

// LoadScenario reads and parses a scenario YAML file. Relative file
// references are resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.RulesFile = resolve(base, scenario.RulesFile)
	scenario.CatalogFile = resolve(base, scenario.CatalogFile)

	if err := validateFiles(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
// File references are kept as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "expects:" vs "expect:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml/.yml scenario in dir, in lexical order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func isSet(n yaml.Node) bool {
	return n.Kind != 0 && !(n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.RulesFile != "" && isSet(s.Rules) {
		return fmt.Errorf("rules_file and rules are mutually exclusive")
	}

	if !isSet(s.Donor) {
		return fmt.Errorf("donor is required")
	}

	switch {
	case isSet(s.Target) && isSet(s.Vehicle):
		return fmt.Errorf("target and vehicle are mutually exclusive")
	case !isSet(s.Target) && !isSet(s.Vehicle):
		return fmt.Errorf("one of target or vehicle is required")
	}

	if s.Expect.empty() {
		return fmt.Errorf("expect must check at least one field")
	}

	profiles := []struct {
		name string
		node yaml.Node
	}{{"donor", s.Donor}, {"target", s.Target}, {"vehicle", s.Vehicle}}
	for _, p := range profiles {
		if !isSet(p.node) {
			continue
		}
		switch p.node.Kind {
		case yaml.MappingNode:
		case yaml.ScalarNode:
			if s.CatalogFile == "" {
				return fmt.Errorf("%s %q is a catalog key but catalog_file is not set", p.name, p.node.Value)
			}
		default:
			return fmt.Errorf("%s must be a catalog key or a profile mapping", p.name)
		}
	}

	return nil
}

func validateFiles(s *Scenario) error {
	for _, path := range []string{s.RulesFile, s.CatalogFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}
	return nil
}
