package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/orbitsim/internal/config"
)

// parseBody reads a --body value of the form name:mass:x,y,z[:vx,vy,vz].
// A missing velocity means the body starts at rest.
func parseBody(s string) (config.BodyConfig, error) {
	var bc config.BodyConfig

	parts := strings.Split(s, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return bc, fmt.Errorf("body %q: want name:mass:x,y,z[:vx,vy,vz]", s)
	}

	bc.Name = strings.TrimSpace(parts[0])
	if bc.Name == "" {
		return bc, fmt.Errorf("body %q: empty name", s)
	}

	mass, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return bc, fmt.Errorf("body %q: mass: %w", s, err)
	}
	if mass < 0 {
		return bc, fmt.Errorf("body %q: negative mass", s)
	}
	bc.Mass = mass

	if bc.Position, err = parseTriple(parts[2]); err != nil {
		return bc, fmt.Errorf("body %q: position: %w", s, err)
	}
	if len(parts) == 4 {
		if bc.Velocity, err = parseTriple(parts[3]); err != nil {
			return bc, fmt.Errorf("body %q: velocity: %w", s, err)
		}
	}

	return bc, nil
}

func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return out, fmt.Errorf("want 3 comma-separated values, got %d", len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
