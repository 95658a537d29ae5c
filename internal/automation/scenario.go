package automation

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/nbody"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep names where its bodies come from (a preset, a config file, or
// inline) plus any parameters to override. Zero values leave the base alone.
type ScenarioStep struct {
	Name   string `yaml:"name"`
	Preset string `yaml:"preset,omitempty"`
	File   string `yaml:"file,omitempty"`

	config.Config `yaml:",inline"`
}

// StepResult is the outcome of one scenario step. RunID is empty when the
// step was not saved.
type StepResult struct {
	Name   string
	RunID  string
	Config *config.Config
	Result *nbody.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve builds the effective config for a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()

	switch {
	case s.Preset != "" && s.File != "":
		return nil, fmt.Errorf("step %q: preset and file are mutually exclusive", s.Name)
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("step %q: unknown preset %s", s.Name, s.Preset)
		}
	case s.File != "":
		loaded, err := config.Load(s.File)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Name, err)
		}
		cfg = loaded
	}

	if len(s.Bodies) > 0 {
		cfg.Bodies = append([]config.BodyConfig(nil), s.Bodies...)
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if s.Steps != 0 {
		cfg.Steps = s.Steps
	}
	if s.ReportFrequency != 0 {
		cfg.ReportFrequency = s.ReportFrequency
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}

	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure. A
// nil store runs without saving. Progress lines go to w.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, w io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		fmt.Fprintf(w, "running step %d/%d: %s\n", i+1, len(scenario.Steps), name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, err
		}

		bodies, err := cfg.BuildBodies()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		sim := nbody.New()
		for _, m := range metrics.Defaults() {
			sim.AddMetric(m)
		}

		res, err := sim.Run(ctx, bodies, cfg.NBodyConfig())
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Config: cfg, Result: res}
		if st != nil {
			sr.RunID, err = Record(st, cfg.Seed, cfg.NBodyConfig(), res)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}

		results = append(results, sr)
	}

	return results, nil
}

// Record renders the run's plot and saves everything to st.
func Record(st *storage.Store, seed int64, cfg nbody.Config, res *nbody.Result) (string, error) {
	colours := viz.PickColours(len(res.Initial), seed)
	svg := viz.RenderSVG(viz.NewScene(res.History), viz.NewCamera(), colours, 800, 600)

	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(storage.Run{
		Config:  cfg,
		Seed:    seed,
		Initial: res.Initial,
		History: res.History,
		Metrics: res.Metrics,
		Plot:    []byte(svg),
	})
}
