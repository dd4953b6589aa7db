package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Versifine/stride/internal/input"
	"github.com/Versifine/stride/internal/locomotion"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging    LoggingConfig     `yaml:"logging"`
	Locomotion locomotion.Config `yaml:"locomotion"`
	// Keybinds maps action names to keys; unbound actions keep their default key.
	Keybinds   map[string]string `yaml:"keybinds"`
	Simulation SimulationConfig  `yaml:"simulation"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type SimulationConfig struct {
	// Arena is a .tmx or .yaml file. Empty selects the built-in arena.
	Arena     string        `yaml:"arena"`
	FixedStep time.Duration `yaml:"fixed_step"`
	FrameStep time.Duration `yaml:"frame_step"`
	// Jitter is the fraction by which each frame delta varies around FrameStep.
	Jitter   float64       `yaml:"jitter"`
	Seed     int64         `yaml:"seed"`
	Duration time.Duration `yaml:"duration"`
	// MaxFixedSteps caps fixed ticks per frame so a long frame cannot spiral.
	MaxFixedSteps int `yaml:"max_fixed_steps"`
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Locomotion: locomotion.DefaultConfig(),
		Simulation: SimulationConfig{
			FixedStep:     20 * time.Millisecond,
			FrameStep:     16 * time.Millisecond,
			Jitter:        0.25,
			Seed:          1,
			Duration:      10 * time.Second,
			MaxFixedSteps: 8,
		},
	}
}

// Load reads a YAML config over the defaults and validates the result. Fields
// the file leaves out keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Locomotion.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := input.NewKeymap(c.Keybinds); err != nil {
		errs = append(errs, err)
	}

	s := c.Simulation
	if s.FixedStep <= 0 {
		errs = append(errs, fmt.Errorf("simulation.fixed_step must be > 0, got %s", s.FixedStep))
	}
	if s.FrameStep <= 0 {
		errs = append(errs, fmt.Errorf("simulation.frame_step must be > 0, got %s", s.FrameStep))
	}
	if s.Jitter < 0 || s.Jitter >= 1 {
		errs = append(errs, fmt.Errorf("simulation.jitter must be in [0, 1), got %v", s.Jitter))
	}
	if s.Duration <= 0 {
		errs = append(errs, fmt.Errorf("simulation.duration must be > 0, got %s", s.Duration))
	}
	if s.MaxFixedSteps < 1 {
		errs = append(errs, fmt.Errorf("simulation.max_fixed_steps must be >= 1, got %d", s.MaxFixedSteps))
	}
	return errors.Join(errs...)
}

// Keymap resolves the configured keybinds.
func (c *Config) Keymap() (input.Keymap, error) {
	return input.NewKeymap(c.Keybinds)
}
