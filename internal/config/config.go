package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a cross-validation run.
type Config struct {
	Data         string      `yaml:"data"`
	Target       string      `yaml:"target"`
	Category     string      `yaml:"category"`
	Exclude      []string    `yaml:"exclude"`
	OutputDir    string      `yaml:"output_dir"`
	Epochs       int         `yaml:"epochs"`
	BatchSize    int         `yaml:"batch_size"`
	Folds        int         `yaml:"folds"`
	Seed         int64       `yaml:"seed"`
	LogEvery     int         `yaml:"log_every"`
	LearningRate float64     `yaml:"learning_rate"`
	Hidden1      int         `yaml:"hidden1"`
	Hidden2      int         `yaml:"hidden2"`
	MaxAttempts  int         `yaml:"max_attempts"`
	Divergence   Divergence  `yaml:"divergence"`
	Autoencoder  Autoencoder `yaml:"autoencoder"`
}

// Divergence mirrors trainer.Divergence.
type Divergence struct {
	InitialLoss float64 `yaml:"initial_loss"`
	Threshold   float64 `yaml:"threshold"`
	CheckEvery  int     `yaml:"check_every"`
}

// Autoencoder configures the optional feature denoising stage.
type Autoencoder struct {
	Enabled   bool `yaml:"enabled"`
	Hidden    int  `yaml:"hidden"`
	Code      int  `yaml:"code"`
	Epochs    int  `yaml:"epochs"`
	BatchSize int  `yaml:"batch_size"`
	KeepNoise bool `yaml:"keep_noise"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Data        string
	Target      string
	OutputDir   string
	Epochs      int
	BatchSize   int
	Folds       int
	Seed        int64
	LogEvery    int
	MaxAttempts int
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Epochs:       100,
		BatchSize:    32,
		Folds:        5,
		LogEvery:     50,
		LearningRate: 0.001,
		Hidden1:      70,
		Hidden2:      70,
		Divergence: Divergence{
			InitialLoss: 75,
			Threshold:   50,
			CheckEvery:  20,
		},
		Autoencoder: Autoencoder{
			Hidden:    6,
			Code:      3,
			Epochs:    80,
			BatchSize: 64,
		},
	}
}

// Load reads a Config from YAML. Keys absent from the file keep their
// defaults. Callers validate after applying overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := parseYAML(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Data != "" {
		c.Data = o.Data
	}
	if o.Target != "" {
		c.Target = o.Target
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Folds > 0 {
		c.Folds = o.Folds
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.MaxAttempts > 0 {
		c.MaxAttempts = o.MaxAttempts
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Data == "" {
		return errors.New("data must be set")
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Folds <= 0 {
		return errors.Errorf("folds must be > 0 (got %d)", c.Folds)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.MaxAttempts < 0 {
		return errors.Errorf("max_attempts must be >= 0 (got %d)", c.MaxAttempts)
	}
	if c.Divergence.CheckEvery < 0 {
		return errors.Errorf("divergence.check_every must be >= 0 (got %d)", c.Divergence.CheckEvery)
	}
	if c.Autoencoder.Enabled {
		if c.Autoencoder.Epochs <= 0 {
			return errors.Errorf("autoencoder.epochs must be > 0 (got %d)", c.Autoencoder.Epochs)
		}
		if c.Autoencoder.BatchSize <= 0 {
			return errors.Errorf("autoencoder.batch_size must be > 0 (got %d)", c.Autoencoder.BatchSize)
		}
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}

func parseYAML(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
