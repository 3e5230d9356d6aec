package config

var Presets = map[string]map[string]*Config{
	"rotation": {
		"slow": {
			System:    SystemConfig{Name: "rotation", Dim: 2, Omega: 0.5},
			Estimator: EstimatorConfig{Window: 10, Forgetting: 1.0, SkipIllConditioned: true},
			Dt:        0.05, Steps: 200, Seed: DefaultSeed,
		},
		"fast": {
			System:    SystemConfig{Name: "rotation", Dim: 2, Omega: 8.0},
			Estimator: EstimatorConfig{Window: 10, Forgetting: 1.0, SkipIllConditioned: true},
			Dt:        0.02, Steps: 400, Seed: DefaultSeed,
		},
		"noisy": {
			System:    SystemConfig{Name: "rotation", Dim: 2, Omega: 2.0},
			Estimator: EstimatorConfig{Window: 30, Forgetting: 1.0, Ridge: 1e-8, SkipIllConditioned: true},
			Dt:        0.05, Steps: 400, Noise: 0.01, Seed: DefaultSeed,
		},
	},
	"drift": {
		"gentle": {
			System:    SystemConfig{Name: "drift", Dim: 2, Omega: 1.0, Rate: 0.1},
			Estimator: EstimatorConfig{Window: 10, Forgetting: 1.0, SkipIllConditioned: true},
			Dt:        0.05, Steps: 300, Seed: DefaultSeed,
		},
		"sweep": {
			System:    SystemConfig{Name: "drift", Dim: 2, Omega: 1.0, Rate: 1.0},
			Estimator: EstimatorConfig{Window: 20, Forgetting: 0.7, SkipIllConditioned: true},
			Dt:        0.05, Steps: 300, Seed: DefaultSeed,
		},
	},
	"damped": {
		"ring": {
			System:    SystemConfig{Name: "damped", Dim: 2, Omega: 3.0, Growth: -0.5},
			Estimator: EstimatorConfig{Window: 10, Forgetting: 1.0, SkipIllConditioned: true},
			Dt:        0.05, Steps: 200, Seed: DefaultSeed,
		},
	},
	"random": {
		"small": {
			System:    SystemConfig{Name: "random", Dim: 4, Radius: 0.9},
			Estimator: EstimatorConfig{Window: 12, Forgetting: 1.0, SkipIllConditioned: true},
			Dt:        0.05, Steps: 300, Noise: 0.001, Seed: DefaultSeed,
		},
		"large": {
			System:    SystemConfig{Name: "random", Dim: 16, Radius: 0.95},
			Estimator: EstimatorConfig{Window: 48, Forgetting: 0.98, Ridge: 1e-10, SkipIllConditioned: true},
			Dt:        0.05, Steps: 600, Noise: 0.001, Seed: DefaultSeed,
		},
	},
}

func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	return names
}
