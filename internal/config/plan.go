package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan lists the scenarios to run, read from a YAML file:
//
//	defaults:
//	  warmups: 10
//	  repetitions: 1000
//	scenarios:
//	  - name: ping
//	  - name: get
//	    repetitions: 5000
//	    params:
//	      index: bench-get
//	    thresholds:
//	      - "duration:avg < 5"
type Plan struct {
	Defaults  PlanDefaults   `yaml:"defaults"`
	Scenarios []PlanScenario `yaml:"scenarios"`
}

type PlanDefaults struct {
	Warmups     *int   `yaml:"warmups"`
	Repetitions *int   `yaml:"repetitions"`
	Category    string `yaml:"category"`
}

type PlanScenario struct {
	Name        string            `yaml:"name"`
	Action      string            `yaml:"action"`
	Category    string            `yaml:"category"`
	Warmups     *int              `yaml:"warmups"`
	Repetitions *int              `yaml:"repetitions"`
	Params      map[string]string `yaml:"params"`
	Thresholds  []string          `yaml:"thresholds"`
}

// ScenarioEntry is one fully resolved scenario to run.
type ScenarioEntry struct {
	Name        string
	Action      string // reported action name, defaults to Name
	Category    string // empty means the scenario's own category
	Warmups     int
	Repetitions int
	Params      map[string]string
	Thresholds  []string // pass/fail assertions on the run summary
}

// LoadPlan reads a plan file. Unknown keys are rejected.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a plan document.
func ParsePlan(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan: empty document")
		}
		return nil, fmt.Errorf("plan: %w", err)
	}
	if len(plan.Scenarios) == 0 {
		return nil, errors.New("plan: no scenarios defined")
	}
	return &plan, nil
}

// ResolveScenarios builds the scenario list. A plan takes precedence over
// names given on the command line; counts fall back to plan defaults and
// then to the configured warmups and repetitions.
func ResolveScenarios(cfg *Config, names []string) []ScenarioEntry {
	if cfg.Plan != nil {
		warmups := cfg.Warmups
		if cfg.Plan.Defaults.Warmups != nil {
			warmups = *cfg.Plan.Defaults.Warmups
		}
		repetitions := cfg.Repetitions
		if cfg.Plan.Defaults.Repetitions != nil {
			repetitions = *cfg.Plan.Defaults.Repetitions
		}
		entries := make([]ScenarioEntry, 0, len(cfg.Plan.Scenarios))
		for _, ps := range cfg.Plan.Scenarios {
			entry := ScenarioEntry{
				Name:        strings.TrimSpace(ps.Name),
				Action:      strings.TrimSpace(ps.Action),
				Category:    firstNonEmpty(ps.Category, cfg.Plan.Defaults.Category, cfg.Category),
				Warmups:     warmups,
				Repetitions: repetitions,
				Params:      ps.Params,
				Thresholds:  append(append([]string(nil), cfg.Thresholds...), ps.Thresholds...),
			}
			if ps.Warmups != nil {
				entry.Warmups = *ps.Warmups
			}
			if ps.Repetitions != nil {
				entry.Repetitions = *ps.Repetitions
			}
			if entry.Action == "" {
				entry.Action = entry.Name
			}
			entries = append(entries, entry)
		}
		return entries
	}

	entries := make([]ScenarioEntry, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		entries = append(entries, ScenarioEntry{
			Name:        name,
			Action:      name,
			Category:    cfg.Category,
			Warmups:     cfg.Warmups,
			Repetitions: cfg.Repetitions,
			Thresholds:  cfg.Thresholds,
		})
	}
	return entries
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
