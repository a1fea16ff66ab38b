// sim/sweep_config.go
package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SweepConfig describes a parameter sweep, loadable from a YAML file.
// Zero-valued Workers means "one worker per CPU".
type SweepConfig struct {
	WindowSizes   []uint64 `yaml:"window_sizes"`
	FramePayloads []uint64 `yaml:"frame_payloads"`
	RunsPerConfig int      `yaml:"runs_per_config"`
	Seed          int64    `yaml:"seed"`
	Workers       int      `yaml:"workers"`
}

// DefaultSweepConfig returns the standard sweep grid.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		WindowSizes:   []uint64{2, 4, 8, 16, 32, 64},
		FramePayloads: []uint64{128, 256, 512, 1024, 2048, 4096},
		RunsPerConfig: 10,
		Seed:          42,
	}
}

// LoadSweepConfig reads and parses a YAML sweep configuration file.
func LoadSweepConfig(path string) (*SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep config: %w", err)
	}
	var cfg SweepConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing sweep config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the sweep grid is non-empty and well-formed.
func (c *SweepConfig) Validate() error {
	if len(c.WindowSizes) == 0 {
		return fmt.Errorf("no window sizes configured")
	}
	if len(c.FramePayloads) == 0 {
		return fmt.Errorf("no frame payloads configured")
	}
	for _, w := range c.WindowSizes {
		if w == 0 {
			return fmt.Errorf("window size must be positive")
		}
	}
	for _, l := range c.FramePayloads {
		if l == 0 {
			return fmt.Errorf("frame payload must be positive")
		}
	}
	if c.RunsPerConfig <= 0 {
		return fmt.Errorf("runs per config must be positive, got %d", c.RunsPerConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}
