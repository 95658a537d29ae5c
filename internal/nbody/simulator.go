package nbody

import (
	"context"
)

type Simulator struct {
	metrics   []Metric
	observers []Observer
	scratch   []Vector3
}

func New() *Simulator {
	return &Simulator{
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates a copy of bodies for cfg.Steps-1 ticks and samples every
// cfg.ReportFrequency-th tick. The caller's slice is never modified; the
// returned Result carries both the untouched initial list and the final state.
func (s *Simulator) Run(ctx context.Context, bodies Bodies, cfg Config) (*Result, error) {
	if err := Validate(bodies, cfg); err != nil {
		return nil, err
	}

	initial := bodies.Clone()
	live := bodies.Clone()
	history := NewHistory(live, cfg.Samples())

	if len(s.scratch) != len(live) {
		s.scratch = make([]Vector3, len(live))
	}

	for _, m := range s.metrics {
		m.Reset()
		m.OnStep(live, 0)
	}

	result := &Result{
		Initial: initial,
		Metrics: make(map[string]float64),
	}

	for t := 1; t < cfg.Steps; t++ {
		select {
		case <-ctx.Done():
			return nil, &SimulationError{Step: t, Wrapped: ctx.Err()}
		default:
		}

		if err := updateVelocities(live, cfg.Dt, s.scratch); err != nil {
			return nil, &SimulationError{Step: t, Wrapped: err}
		}
		UpdatePositions(live, cfg.Dt)
		result.StepsTaken++

		if t%cfg.ReportFrequency == 0 {
			history.record(live)
		}

		for _, m := range s.metrics {
			m.OnStep(live, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(live, t)
		}
	}

	result.Final = live
	result.History = history
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback ticks a copy of bodies and hands the live list to callback after
// every tick. Returning false from callback stops the run early without error.
func (s *Simulator) RunWithCallback(ctx context.Context, bodies Bodies, cfg Config, callback func(Bodies, int) bool) error {
	if err := Validate(bodies, cfg); err != nil {
		return err
	}

	live := bodies.Clone()
	acc := make([]Vector3, len(live))

	for t := 1; t < cfg.Steps; t++ {
		select {
		case <-ctx.Done():
			return &SimulationError{Step: t, Wrapped: ctx.Err()}
		default:
		}

		if err := updateVelocities(live, cfg.Dt, acc); err != nil {
			return &SimulationError{Step: t, Wrapped: err}
		}
		UpdatePositions(live, cfg.Dt)

		if !callback(live, t) {
			return nil
		}
	}

	return nil
}

// Run is shorthand for New().Run.
func Run(ctx context.Context, bodies Bodies, cfg Config) (*Result, error) {
	return New().Run(ctx, bodies, cfg)
}

// Validate rejects runs that cannot start. dt is not checked; zero or negative
// values are integrated as given.
func Validate(bodies Bodies, cfg Config) error {
	if len(bodies) < 2 {
		return invalidf("need at least two bodies, got %d", len(bodies))
	}
	if cfg.Steps < 1 {
		return invalidf("steps must be at least 1, got %d", cfg.Steps)
	}
	if cfg.ReportFrequency < 1 {
		return invalidf("report frequency must be at least 1, got %d", cfg.ReportFrequency)
	}
	return nil
}
