package config

// Presets are ready-made studies over the classic textbook plants.
var Presets = map[string]*Config{
	// Pure first-order plants identify with zero dead time, which the
	// reaction-curve table rejects; the Cohen-Coon presets handle them.
	"first-order": {
		Plant:      PlantConfig{Num: []float64{2}, Den: []float64{10, 1}},
		Method:     "cc-iae", Controller: "pi", Integrator: "rk4",
		Reference: 1.0, Horizon: 100, Dt: 0.02, Tolerance: 0.02,
	},
	"second-order": {
		Plant:      PlantConfig{Num: []float64{1}, Den: []float64{20, 12, 1}},
		Method:     "zn", Controller: "pid", Integrator: "rk4",
		Reference: 1.0, Horizon: 150, Dt: 0.02, Tolerance: 0.02,
	},
	"sluggish": {
		Plant:      PlantConfig{Num: []float64{1.5}, Den: []float64{200, 30, 1}},
		Method:     "cc-iae", Controller: "pid", Integrator: "rk4",
		Reference: 1.0, Horizon: 600, Dt: 0.1, Tolerance: 0.02,
	},
	"oscillatory": {
		Plant:      PlantConfig{Num: []float64{1}, Den: []float64{1, 3, 3, 1}},
		Method:     "zn-oscillation", Controller: "pid", Integrator: "rk4",
		Reference: 1.0, Horizon: 60, Dt: 0.01, Tolerance: 0.02,
	},
	"limited": {
		Plant:      PlantConfig{Num: []float64{2}, Den: []float64{10, 1}},
		Method:     "cc-iae", Controller: "pi", Integrator: "rk4",
		Reference: 1.0, Horizon: 100, Dt: 0.02, Tolerance: 0.02,
		Limits: LimitsConfig{Enabled: true, Min: 0, Max: 1.5},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
