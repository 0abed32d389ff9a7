package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	LearningRate         float64 `yaml:"learning_rate"`
	MaxIterations        int     `yaml:"max_iterations"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	Topology             []int   `yaml:"topology"`
	Seed                 int64   `yaml:"seed"`
	LogEvery             int     `yaml:"log_every"`
	HiddenReLUWeights    bool    `yaml:"hidden_relu_weights"`
	ImagesPath           string  `yaml:"images_path"`
	LabelsPath           string  `yaml:"labels_path"`
	DataDir              string  `yaml:"data_dir"`
	MaxSamples           int     `yaml:"max_samples"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	LearningRate float64
	Epochs       int
	Seed         int64
	LogEvery     int
	ImagesPath   string
	LabelsPath   string
	DataDir      string
	MaxSamples   int
}

// Default returns the settings of the 3-4-1 worked example.
func Default() *Config {
	return &Config{
		LearningRate:         0.2,
		MaxIterations:        61,
		ConvergenceThreshold: 1e-4,
		Topology:             []int{3, 4, 1},
		LogEvery:             1,
	}
}

// Load reads and validates a Config from YAML. Keys missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := parseYAML(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Epochs > 0 {
		c.MaxIterations = o.Epochs
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.ImagesPath != "" {
		c.ImagesPath = o.ImagesPath
	}
	if o.LabelsPath != "" {
		c.LabelsPath = o.LabelsPath
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.MaxSamples > 0 {
		c.MaxSamples = o.MaxSamples
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be > 0 (got %d)", c.MaxIterations)
	}
	if c.ConvergenceThreshold <= 0 {
		return fmt.Errorf("convergence_threshold must be > 0 (got %g)", c.ConvergenceThreshold)
	}
	if len(c.Topology) < 3 {
		return fmt.Errorf("topology needs input, hidden and output sizes (got %v)", c.Topology)
	}
	for _, n := range c.Topology {
		if n <= 0 {
			return fmt.Errorf("topology sizes must be > 0 (got %v)", c.Topology)
		}
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max_samples must be >= 0 (got %d)", c.MaxSamples)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 1
	}
	return nil
}

func parseYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}
