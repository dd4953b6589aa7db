package locomotion

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("invalid locomotion config")

// Config is the immutable tuning for one controller.
type Config struct {
	WalkSpeed   float64 `yaml:"walk_speed"`
	SprintSpeed float64 `yaml:"sprint_speed"`
	CrouchSpeed float64 `yaml:"crouch_speed"`

	DodgeSpeed    float64       `yaml:"dodge_speed"`
	DodgeDistance float64       `yaml:"dodge_distance"`
	DodgeDuration time.Duration `yaml:"dodge_duration"`
	DodgeCooldown time.Duration `yaml:"dodge_cooldown"`

	GroundDrag float64 `yaml:"ground_drag"`

	JumpForce     float64       `yaml:"jump_force"`
	JumpCooldown  time.Duration `yaml:"jump_cooldown"`
	AirMultiplier float64       `yaml:"air_multiplier"`
	// AutoJump re-triggers the jump while the key stays held.
	AutoJump bool `yaml:"auto_jump"`

	CrouchScale           float64 `yaml:"crouch_scale"`
	CrouchTransitionSpeed float64 `yaml:"crouch_transition_speed"`

	MaxSlopeAngle float64 `yaml:"max_slope_angle"`
	GroundSkin    float64 `yaml:"ground_skin"`
	SlopeSkin     float64 `yaml:"slope_skin"`

	GroundMask LayerMask `yaml:"ground_mask"`
}

const (
	defaultGroundSkin = 0.2
	defaultSlopeSkin  = 0.3

	crouchTolerance = 0.01

	groundForceFactor  = 10.0
	slopeForceFactor   = 20.0
	slopeHoldDownForce = 80.0
	minDirectionLength = 1e-9
)

func DefaultConfig() Config {
	return Config{
		WalkSpeed:             5,
		SprintSpeed:           10,
		CrouchSpeed:           2,
		DodgeSpeed:            15,
		DodgeDistance:         3,
		DodgeDuration:         500 * time.Millisecond,
		DodgeCooldown:         time.Second,
		GroundDrag:            4,
		JumpForce:             10,
		JumpCooldown:          250 * time.Millisecond,
		AirMultiplier:         0.4,
		CrouchScale:           0.5,
		CrouchTransitionSpeed: 2,
		MaxSlopeAngle:         45,
		GroundSkin:            defaultGroundSkin,
		SlopeSkin:             defaultSlopeSkin,
		GroundMask:            AllLayers,
	}
}

// Validate reports every violated invariant joined into one error.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", name, v))
		}
	}
	positiveDuration := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %s", name, d))
		}
	}

	positive("walk_speed", c.WalkSpeed)
	positive("sprint_speed", c.SprintSpeed)
	positive("crouch_speed", c.CrouchSpeed)
	positive("dodge_speed", c.DodgeSpeed)
	positive("dodge_distance", c.DodgeDistance)
	positiveDuration("dodge_duration", c.DodgeDuration)
	positiveDuration("dodge_cooldown", c.DodgeCooldown)
	positive("jump_force", c.JumpForce)
	positiveDuration("jump_cooldown", c.JumpCooldown)
	positive("crouch_scale", c.CrouchScale)
	positive("crouch_transition_speed", c.CrouchTransitionSpeed)
	positive("ground_skin", c.GroundSkin)
	positive("slope_skin", c.SlopeSkin)

	if c.GroundDrag < 0 {
		errs = append(errs, fmt.Errorf("ground_drag must be >= 0, got %v", c.GroundDrag))
	}
	if c.AirMultiplier < 0 {
		errs = append(errs, fmt.Errorf("air_multiplier must be >= 0, got %v", c.AirMultiplier))
	}
	if !(c.MaxSlopeAngle > 0 && c.MaxSlopeAngle < 90) {
		errs = append(errs, fmt.Errorf("max_slope_angle must be in (0, 90), got %v", c.MaxSlopeAngle))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
