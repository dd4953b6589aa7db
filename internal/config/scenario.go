package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Versifine/stride/internal/input"
	"gopkg.in/yaml.v3"
)

// Scenario scripts one or more actors through an arena.
type Scenario struct {
	Name string `yaml:"name"`
	// Arena overrides simulation.arena when set.
	Arena string `yaml:"arena"`
	// Duration overrides simulation.duration when set.
	Duration time.Duration `yaml:"duration"`
	Actors   []ActorScript `yaml:"actors"`
}

type ActorScript struct {
	Name string `yaml:"name"`
	// Spawn names an arena spawn point. Position, when given, wins: [x, z]
	// stands the actor on the surface, [x, y, z] places its center.
	Spawn    string    `yaml:"spawn"`
	Position []float64 `yaml:"position"`
	Yaw      float64   `yaml:"yaw"`
	Steps    []Step    `yaml:"steps"`
}

// Step holds actions and axes from At for For. A step with no For is a tap:
// it is held for exactly one frame.
type Step struct {
	At         time.Duration `yaml:"at"`
	For        time.Duration `yaml:"for"`
	Hold       []string      `yaml:"hold"`
	Horizontal float64       `yaml:"horizontal"`
	Vertical   float64       `yaml:"vertical"`
	// Yaw snaps the heading when the step starts.
	Yaw *float64 `yaml:"yaw"`
	// Turn rotates the heading in degrees per second while the step is active.
	Turn float64 `yaml:"turn"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := &Scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

func (s *Scenario) Validate() error {
	var errs []error
	if s.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must be >= 0, got %s", s.Duration))
	}
	if len(s.Actors) == 0 {
		errs = append(errs, errors.New("no actors"))
	}
	seen := make(map[string]bool, len(s.Actors))
	for i, a := range s.Actors {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("actors[%d]: name is empty", i))
		} else if seen[a.Name] {
			errs = append(errs, fmt.Errorf("actors[%d]: duplicate name %q", i, a.Name))
		}
		seen[a.Name] = true

		if n := len(a.Position); n != 0 && n != 2 && n != 3 {
			errs = append(errs, fmt.Errorf("actor %s: position needs 2 or 3 values, got %d", a.Name, n))
		}
		for j, st := range a.Steps {
			if st.At < 0 || st.For < 0 {
				errs = append(errs, fmt.Errorf("actor %s step %d: negative time", a.Name, j))
			}
			if _, err := input.Actions(st.Hold...); err != nil {
				errs = append(errs, fmt.Errorf("actor %s step %d: %w", a.Name, j, err))
			}
		}
	}
	return errors.Join(errs...)
}
