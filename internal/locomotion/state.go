package locomotion

// MovementState is the discrete locomotion mode for one frame.
type MovementState int

const (
	Walking MovementState = iota
	Sprinting
	Crouching
	Airborne
)

func (s MovementState) String() string {
	switch s {
	case Walking:
		return "walking"
	case Sprinting:
		return "sprinting"
	case Crouching:
		return "crouching"
	case Airborne:
		return "airborne"
	default:
		return "unknown"
	}
}

// Classify picks the movement state and target speed. First match wins:
// crouch, grounded sprint, grounded walk, airborne. Airborne keeps lastSpeed
// so air control scales whatever the actor left the ground with.
func Classify(grounded, crouchHeld, sprintHeld bool, cfg Config, lastSpeed float64) (MovementState, float64) {
	switch {
	case crouchHeld:
		return Crouching, cfg.CrouchSpeed
	case grounded && sprintHeld:
		return Sprinting, cfg.SprintSpeed
	case grounded:
		return Walking, cfg.WalkSpeed
	default:
		return Airborne, lastSpeed
	}
}
