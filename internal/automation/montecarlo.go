package automation

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/nbody"
)

// MonteCarloConfig defines Monte Carlo ensemble parameters. Jitter values are
// absolute and applied uniformly in [-j, j] to every component.
type MonteCarloConfig struct {
	Base           nbody.Bodies
	Run            nbody.Config
	PositionJitter float64
	VelocityJitter float64
	NumTrials      int
	Workers        int
	Seed           int64
}

// MonteCarloResult holds one trial. A trial that hit a singular configuration
// or produced non-finite state is unstable and carries the error, if any.
type MonteCarloResult struct {
	TrialID       int
	Initial       nbody.Bodies
	Final         nbody.Bodies
	Stable        bool
	Err           error
	EnergyDrift   float64
	MinSeparation float64
}

// Perturb returns trial initial states. The same seed always yields the same
// trials regardless of how many workers later run them.
func Perturb(cfg *MonteCarloConfig) []nbody.Bodies {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	jitter := func(v *nbody.Vector3, amount float64) {
		v.X += (rng.Float64() - 0.5) * 2 * amount
		v.Y += (rng.Float64() - 0.5) * 2 * amount
		v.Z += (rng.Float64() - 0.5) * 2 * amount
	}

	trials := make([]nbody.Bodies, cfg.NumTrials)
	for t := range trials {
		bodies := cfg.Base.Clone()
		for i := range bodies {
			jitter(&bodies[i].Position, cfg.PositionJitter)
			jitter(&bodies[i].Velocity, cfg.VelocityJitter)
		}
		trials[t] = bodies
	}
	return trials
}

// RunMonteCarlo runs perturbed copies of the base system concurrently. Each
// trial owns its simulator; a failing trial is recorded, not fatal. Only
// invalid input or cancellation aborts the ensemble.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if err := nbody.Validate(cfg.Base, cfg.Run); err != nil {
		return nil, err
	}

	trials := Perturb(cfg)
	results := make([]MonteCarloResult, len(trials))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, initial := range trials {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			drift := metrics.NewEnergyDrift()
			sep := metrics.NewMinSeparation()
			sim := nbody.New()
			sim.AddMetric(drift)
			sim.AddMetric(sep)

			r := MonteCarloResult{TrialID: i, Initial: initial}
			res, err := sim.Run(gctx, initial, cfg.Run)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.Err = err
				results[i] = r
				return nil
			}

			r.Final = res.Final
			r.EnergyDrift = res.Metrics[drift.Name()]
			r.MinSeparation = res.Metrics[sep.Name()]
			r.Stable = true
			for _, b := range res.Final {
				if !b.Position.IsValid() || !b.Velocity.IsValid() {
					r.Stable = false
					break
				}
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

// Summary aggregates an ensemble. Drift and separation statistics cover stable
// trials only and are NaN when there are none.
type Summary struct {
	Trials            int
	Stable            int
	Unstable          int
	MeanEnergyDrift   float64
	StdEnergyDrift    float64
	MeanMinSeparation float64
	StdMinSeparation  float64
}

func Summarize(results []MonteCarloResult) Summary {
	s := Summary{Trials: len(results)}
	s.Stable, s.Unstable = MonteCarloStats(results)

	drifts := make([]float64, 0, s.Stable)
	seps := make([]float64, 0, s.Stable)
	for _, r := range results {
		if r.Stable {
			drifts = append(drifts, r.EnergyDrift)
			seps = append(seps, r.MinSeparation)
		}
	}

	if len(drifts) == 0 {
		nan := math.NaN()
		s.MeanEnergyDrift, s.StdEnergyDrift = nan, nan
		s.MeanMinSeparation, s.StdMinSeparation = nan, nan
		return s
	}

	s.MeanEnergyDrift, s.StdEnergyDrift = stat.MeanStdDev(drifts, nil)
	s.MeanMinSeparation, s.StdMinSeparation = stat.MeanStdDev(seps, nil)
	return s
}
