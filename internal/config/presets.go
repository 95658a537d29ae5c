package config

import "sort"

var Presets = map[string]*Config{
	"binary": {
		Dt: 1.0, Steps: 100, ReportFrequency: 10,
		Bodies: []BodyConfig{
			{Name: "Body1", Mass: 5e10},
			{Name: "Body2", Mass: 5e10, Position: [3]float64{0, 1e5, 0}},
		},
	},
	"triple": {
		Dt: 1.0, Steps: 1000, ReportFrequency: 10,
		Bodies: []BodyConfig{
			{Name: "Body1", Mass: 5e10},
			{Name: "Body2", Mass: 5e10, Position: [3]float64{0, 1e5, 0}},
			{Name: "Body3", Mass: 5e10, Position: [3]float64{0, 0, 1e5}},
		},
	},
	"earth_moon": {
		Dt: 60, Steps: 60 * 24 * 28, ReportFrequency: 60,
		Bodies: []BodyConfig{
			{Name: "Earth", Mass: 5.972e24, Velocity: [3]float64{0, -12.6, 0}},
			{Name: "Moon", Mass: 7.342e22, Position: [3]float64{3.844e8, 0, 0}, Velocity: [3]float64{0, 1022, 0}},
		},
	},
	"sun_earth": {
		Dt: 3600, Steps: 24 * 366, ReportFrequency: 24,
		Bodies: []BodyConfig{
			{Name: "Sun", Mass: 1.989e30},
			{Name: "Earth", Mass: 5.972e24, Position: [3]float64{1.496e11, 0, 0}, Velocity: [3]float64{0, 29780, 0}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Bodies = append([]BodyConfig(nil), p.Bodies...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
