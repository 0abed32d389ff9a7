package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
# digits run
learning_rate: 0.01
max_iterations: 5
topology: [784, 40, 10]
seed: 7
images_path: data/train-images-idx3-ubyte
labels_path: "data/train-labels-idx1-ubyte"
max_samples: 1000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.LearningRate)
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, []int{784, 40, 10}, cfg.Topology)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "data/train-labels-idx1-ubyte", cfg.LabelsPath)
	assert.Equal(t, 1000, cfg.MaxSamples)
	assert.Equal(t, 1e-4, cfg.ConvergenceThreshold, "missing keys keep defaults")
	assert.Equal(t, 1, cfg.LogEvery)
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "batch_size: 4\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"learning rate":  func(c *Config) { c.LearningRate = 0 },
		"iterations":     func(c *Config) { c.MaxIterations = -1 },
		"threshold":      func(c *Config) { c.ConvergenceThreshold = -1 },
		"zero threshold": func(c *Config) { c.ConvergenceThreshold = 0 },
		"short":          func(c *Config) { c.Topology = []int{3, 1} },
		"zero size":      func(c *Config) { c.Topology = []int{3, 0, 1} },
		"samples":        func(c *Config) { c.MaxSamples = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.LogEvery = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.LogEvery)

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{Epochs: 10, LearningRate: 0.5, DataDir: "/data"})
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 0.5, cfg.LearningRate)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, int64(0), cfg.Seed)
	assert.Equal(t, 1, cfg.LogEvery)
}
