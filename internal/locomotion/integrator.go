package locomotion

// MoveCase names the branch the integrator took on a fixed tick.
type MoveCase int

const (
	MoveGround MoveCase = iota
	MoveSlope
	MoveAir
)

func (c MoveCase) String() string {
	switch c {
	case MoveGround:
		return "ground"
	case MoveSlope:
		return "slope"
	case MoveAir:
		return "air"
	default:
		return "unknown"
	}
}

// MoveDirection is the raw, unnormalized input direction in world space.
func MoveDirection(o Orientation, horizontal, vertical float64) Vec3 {
	return o.Forward.Mul(vertical).Add(o.Right.Mul(horizontal))
}

// Integrate applies one fixed tick of movement force to body, toggles gravity
// and clamps horizontal speed to speed.
func Integrate(body RigidBody, g GroundInfo, exitingSlope bool, dir Vec3, speed float64, cfg Config) MoveCase {
	slope := g.OnSlope && !exitingSlope

	var mc MoveCase
	switch {
	case slope:
		mc = MoveSlope
		body.AddForce(g.SlopeMoveDirection(dir).Mul(speed*slopeForceFactor), ForceContinuous)
		if body.Velocity().Y() > 0 {
			body.AddForce(WorldDown.Mul(slopeHoldDownForce), ForceContinuous)
		}
	case g.Grounded:
		mc = MoveGround
		body.AddForce(NormalizeOrZero(dir).Mul(speed*groundForceFactor), ForceContinuous)
	default:
		mc = MoveAir
		body.AddForce(NormalizeOrZero(dir).Mul(speed*groundForceFactor*cfg.AirMultiplier), ForceContinuous)
	}

	body.SetUseGravity(!slope)
	ClampHorizontal(body, speed)
	return mc
}

// ClampHorizontal rescales the horizontal velocity to speed, leaving vertical
// velocity untouched.
func ClampHorizontal(body RigidBody, speed float64) {
	v := body.Velocity()
	flat := Horizontal(v)
	if flat.Len() <= speed {
		return
	}
	limited := NormalizeOrZero(flat).Mul(speed)
	body.SetVelocity(Vec3{limited.X(), v.Y(), limited.Z()})
}

// ClampSlope limits full 3D speed while walking a slope. It is stricter than
// ClampHorizontal so a slope cannot accelerate the actor past speed.
func ClampSlope(body RigidBody, g GroundInfo, exitingSlope bool, speed float64) {
	if !g.OnSlope || exitingSlope {
		return
	}
	v := body.Velocity()
	if v.Len() > speed {
		body.SetVelocity(NormalizeOrZero(v).Mul(speed))
	}
}
