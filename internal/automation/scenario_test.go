package automation

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/storage"
)

const scenarioYAML = `name: demo
description: binary at two step sizes
steps:
  - name: coarse
    preset: binary
  - name: fine
    preset: binary
    dt: 0.5
    steps: 200
    report_frequency: 20
  - name: inline
    steps: 11
    report_frequency: 5
    bodies:
      - {name: A, mass: 1.0e10, position: [0, 0, 0], velocity: [0, 0, 0]}
      - {name: B, mass: 1.0e10, position: [1.0e4, 0, 0], velocity: [0, 1, 0]}
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "demo" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	if sc.Steps[1].Dt != 0.5 || sc.Steps[1].Steps != 200 {
		t.Errorf("inline overrides not parsed: %+v", sc.Steps[1])
	}
	if len(sc.Steps[2].Bodies) != 2 || sc.Steps[2].Bodies[1].Position[0] != 1e4 {
		t.Errorf("inline bodies not parsed: %+v", sc.Steps[2].Bodies)
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		step      ScenarioStep
		wantSteps int
		wantDt    float64
		wantErr   bool
	}{
		{"preset", ScenarioStep{Preset: "binary"}, 100, 1, false},
		{"override", ScenarioStep{Preset: "triple", Config: config.Config{Steps: 10}}, 10, 1, false},
		{"defaults", ScenarioStep{}, config.DefaultSteps, config.DefaultDt, false},
		{"unknown preset", ScenarioStep{Preset: "nope"}, 0, 0, true},
		{"both sources", ScenarioStep{Preset: "binary", File: "x.yaml"}, 0, 0, true},
		{"missing file", ScenarioStep{File: "/nonexistent.yaml"}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.step.Resolve()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Steps != tt.wantSteps || cfg.Dt != tt.wantDt {
				t.Errorf("got steps=%d dt=%g", cfg.Steps, cfg.Dt)
			}
		})
	}
}

func TestResolveDoesNotTouchPreset(t *testing.T) {
	step := ScenarioStep{Preset: "binary", Config: config.Config{Steps: 7}}
	if _, err := step.Resolve(); err != nil {
		t.Fatal(err)
	}
	if config.Presets["binary"].Steps != 100 {
		t.Error("resolving a step modified the shared preset")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	st := storage.New(t.TempDir())
	var out bytes.Buffer
	results, err := RunScenario(context.Background(), sc, st, &out)
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	wantSamples := []int{9, 9, 2}
	for i, r := range results {
		if r.RunID == "" {
			t.Errorf("step %d not saved", i)
		}
		if got := r.Result.History[0].Len(); got != wantSamples[i] {
			t.Errorf("step %d: samples = %d, want %d", i, got, wantSamples[i])
		}
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 saved runs, got %d", len(runs))
	}

	if !strings.Contains(out.String(), "running step 3/3: inline") {
		t.Errorf("missing progress output: %q", out.String())
	}
}

func TestRunScenarioStopsOnFailure(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Name: "ok", Preset: "binary"},
		{Name: "coincident", Config: config.Config{Bodies: []config.BodyConfig{{Name: "A", Mass: 1}, {Name: "B", Mass: 1}}}},
		{Name: "never", Preset: "binary"},
	}}

	var out bytes.Buffer
	results, err := RunScenario(context.Background(), sc, nil, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("expected 1 completed step, got %d", len(results))
	}
	if results[0].RunID != "" {
		t.Error("nil store should not save")
	}
}
