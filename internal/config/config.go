package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/nbody"
)

const (
	DefaultDt              = 1.0
	DefaultSteps           = 100
	DefaultReportFrequency = 10
)

type Config struct {
	Dt              float64      `yaml:"dt"`
	Steps           int          `yaml:"steps"`
	ReportFrequency int          `yaml:"report_frequency"`
	Seed            int64        `yaml:"seed,omitempty"`
	Bodies          []BodyConfig `yaml:"bodies"`
}

type BodyConfig struct {
	Name     string     `yaml:"name"`
	Mass     float64    `yaml:"mass"`
	Position [3]float64 `yaml:"position,flow"`
	Velocity [3]float64 `yaml:"velocity,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:              DefaultDt,
		Steps:           DefaultSteps,
		ReportFrequency: DefaultReportFrequency,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FromBodies builds a Config describing the given bodies and run parameters.
func FromBodies(bodies nbody.Bodies, run nbody.Config, seed int64) *Config {
	cfg := &Config{
		Dt:              run.Dt,
		Steps:           run.Steps,
		ReportFrequency: run.ReportFrequency,
		Seed:            seed,
		Bodies:          make([]BodyConfig, len(bodies)),
	}
	for i, b := range bodies {
		cfg.Bodies[i] = BodyConfig{
			Name:     b.Name,
			Mass:     b.Mass,
			Position: [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
			Velocity: [3]float64{b.Velocity.X, b.Velocity.Y, b.Velocity.Z},
		}
	}
	return cfg
}

func (c *Config) NBodyConfig() nbody.Config {
	return nbody.Config{
		Dt:              c.Dt,
		Steps:           c.Steps,
		ReportFrequency: c.ReportFrequency,
	}
}

// BuildBodies converts the body list. Negative masses are rejected; everything
// else, including duplicate names and massless bodies, is passed through.
func (c *Config) BuildBodies() (nbody.Bodies, error) {
	bodies := make(nbody.Bodies, len(c.Bodies))
	for i, bc := range c.Bodies {
		if bc.Mass < 0 {
			return nil, fmt.Errorf("body %d (%s): negative mass %g", i, bc.Name, bc.Mass)
		}
		name := bc.Name
		if name == "" {
			name = fmt.Sprintf("Body%d", i+1)
		}
		bodies[i] = nbody.Body{
			Name:     name,
			Mass:     bc.Mass,
			Position: nbody.Vector3{X: bc.Position[0], Y: bc.Position[1], Z: bc.Position[2]},
			Velocity: nbody.Vector3{X: bc.Velocity[0], Y: bc.Velocity[1], Z: bc.Velocity[2]},
		}
	}
	return bodies, nil
}
