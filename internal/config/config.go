package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mlowitz/modetrack/internal/stream"
	"github.com/mlowitz/modetrack/internal/track"
)

const (
	DefaultDt         = 0.05
	DefaultSteps      = 200
	DefaultWindow     = 10
	DefaultForgetting = 1.0
	DefaultOmega      = 2.0
	DefaultDim        = 2
	DefaultRadius     = 0.9
	DefaultSeed       = 42
)

type Config struct {
	System    SystemConfig    `yaml:"system"`
	Estimator EstimatorConfig `yaml:"estimator"`
	Dt        float64         `yaml:"dt"`
	Steps     int             `yaml:"steps"`
	Noise     float64         `yaml:"noise"`
	Seed      int64           `yaml:"seed"`
}

type SystemConfig struct {
	Name   string  `yaml:"name"`
	Dim    int     `yaml:"dim"`
	Omega  float64 `yaml:"omega"`
	Rate   float64 `yaml:"rate"`
	Growth float64 `yaml:"growth"`
	Radius float64 `yaml:"radius"`
}

type EstimatorConfig struct {
	Window             int     `yaml:"window"`
	Forgetting         float64 `yaml:"forgetting"`
	Ridge              float64 `yaml:"ridge"`
	CondLimit          float64 `yaml:"cond_limit"`
	SkipIllConditioned bool    `yaml:"skip_ill_conditioned"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Name:   "rotation",
			Dim:    DefaultDim,
			Omega:  DefaultOmega,
			Radius: DefaultRadius,
		},
		Estimator: EstimatorConfig{
			Window:             DefaultWindow,
			Forgetting:         DefaultForgetting,
			SkipIllConditioned: true,
		},
		Dt:    DefaultDt,
		Steps: DefaultSteps,
		Seed:  DefaultSeed,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// StreamParams maps the system block onto generator parameters.
func (c *Config) StreamParams() stream.Params {
	return stream.Params{
		Dim:    c.System.Dim,
		Omega:  c.System.Omega,
		Rate:   c.System.Rate,
		Growth: c.System.Growth,
		Radius: c.System.Radius,
		Dt:     c.Dt,
		Seed:   c.Seed,
	}
}

// TrackerConfig maps the estimator block onto a tracking configuration.
func (c *Config) TrackerConfig() track.Config {
	return track.Config{
		Window:             c.Estimator.Window,
		Forgetting:         c.Estimator.Forgetting,
		Ridge:              c.Estimator.Ridge,
		CondLimit:          c.Estimator.CondLimit,
		Dt:                 c.Dt,
		SkipIllConditioned: c.Estimator.SkipIllConditioned,
	}
}
