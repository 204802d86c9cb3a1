package config

import (
	"strings"
	"testing"
)

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan([]byte(`
defaults:
  warmups: 5
  repetitions: 50
  category: core
scenarios:
  - name: ping
  - name: get
    action: get-small
    repetitions: 500
    params:
      index: bench-get
`))
	if err != nil {
		t.Fatalf("ParsePlan() error = %v", err)
	}
	if len(plan.Scenarios) != 2 {
		t.Fatalf("scenarios = %d, want 2", len(plan.Scenarios))
	}

	cfg := &Config{Warmups: 1, Repetitions: 1, Plan: plan}
	entries := ResolveScenarios(cfg, []string{"ignored"})
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	ping := entries[0]
	if ping.Action != "ping" || ping.Warmups != 5 || ping.Repetitions != 50 || ping.Category != "core" {
		t.Errorf("ping entry = %+v", ping)
	}
	get := entries[1]
	if get.Action != "get-small" || get.Warmups != 5 || get.Repetitions != 500 {
		t.Errorf("get entry = %+v", get)
	}
	if get.Params["index"] != "bench-get" {
		t.Errorf("get params = %v", get.Params)
	}
}

func TestParsePlanRejectsUnknownFields(t *testing.T) {
	_, err := ParsePlan([]byte("scenarios:\n  - name: ping\n    repetition: 10\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestParsePlanRequiresScenarios(t *testing.T) {
	for _, doc := range []string{"", "defaults:\n  warmups: 1\n"} {
		if _, err := ParsePlan([]byte(doc)); err == nil {
			t.Errorf("ParsePlan(%q) expected error", doc)
		}
	}
}

func TestParsePlanZeroCountsAreExplicit(t *testing.T) {
	plan, err := ParsePlan([]byte("scenarios:\n  - name: ping\n    warmups: 0\n    repetitions: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	entries := ResolveScenarios(&Config{Warmups: 10, Repetitions: 100, Plan: plan}, nil)
	if entries[0].Warmups != 0 || entries[0].Repetitions != 0 {
		t.Errorf("explicit zero counts not honored: %+v", entries[0])
	}
}

func TestResolveScenariosFromNames(t *testing.T) {
	cfg := &Config{Warmups: 2, Repetitions: 30, Category: "nightly"}
	entries := ResolveScenarios(cfg, []string{"ping", " info "})
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[1].Name != "info" || entries[1].Action != "info" {
		t.Errorf("entry = %+v", entries[1])
	}
	for _, e := range entries {
		if e.Warmups != 2 || e.Repetitions != 30 || e.Category != "nightly" {
			t.Errorf("entry = %+v", e)
		}
	}
}

func TestLoadPlanMissingFile(t *testing.T) {
	_, err := LoadPlan("/nonexistent/plan.yaml")
	if err == nil || !strings.Contains(err.Error(), "read plan") {
		t.Fatalf("LoadPlan() error = %v", err)
	}
}
