package locomotion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is the vector type shared with physics backends. Y is world up.
type Vec3 = mgl64.Vec3

var (
	WorldUp   = Vec3{0, 1, 0}
	WorldDown = Vec3{0, -1, 0}
)

// LayerMask selects which collision layers a probe can hit.
type LayerMask uint32

const AllLayers LayerMask = math.MaxUint32

// Hit is a successful probe result.
type Hit struct {
	Distance float64
	Normal   Vec3
}

// Prober answers ray queries against the collision geometry.
// A miss is reported as ok == false, never as an error.
type Prober interface {
	CastDown(origin Vec3, maxDistance float64, mask LayerMask) (Hit, bool)
	Cast(origin, direction Vec3, maxDistance float64, mask LayerMask) (Hit, bool)
}

// ForceMode mirrors how a physics backend applies AddForce.
type ForceMode int

const (
	// ForceContinuous is integrated over the step and scaled by mass.
	ForceContinuous ForceMode = iota
	// ForceImpulse is an instant momentum change scaled by mass.
	ForceImpulse
	// ForceVelocityChange is an instant velocity change ignoring mass.
	ForceVelocityChange
)

func (m ForceMode) String() string {
	switch m {
	case ForceContinuous:
		return "force"
	case ForceImpulse:
		return "impulse"
	case ForceVelocityChange:
		return "velocity_change"
	default:
		return "unknown"
	}
}

// RigidBody is the actor handle owned by the physics backend.
type RigidBody interface {
	Position() Vec3
	Velocity() Vec3
	SetVelocity(v Vec3)
	AddForce(f Vec3, mode ForceMode)
	Drag() float64
	SetDrag(drag float64)
	UseGravity() bool
	SetUseGravity(enabled bool)
	ScaleY() float64
	SetScaleY(scale float64)
	// HalfHeight is the unscaled half height of the collision shape.
	HalfHeight() float64
}

// Publisher receives locomotion events. event.Bus satisfies it.
type Publisher interface {
	Publish(eventName string, evt any)
}

// KeyState is the sampled state of one action key for a frame.
type KeyState struct {
	Held     bool
	Pressed  bool
	Released bool
}

// Input is one frame of already-sampled player intent.
type Input struct {
	Horizontal float64
	Vertical   float64
	Jump       KeyState
	Sprint     KeyState
	Crouch     KeyState
	Dodge      KeyState
}

// Orientation is the externally controlled movement frame, usually camera yaw.
type Orientation struct {
	Forward Vec3
	Right   Vec3
}

// OrientationFromYaw builds a flat orientation rotated yaw degrees clockwise
// from +Z when seen from above.
func OrientationFromYaw(yawDeg float64) Orientation {
	rad := mgl64.DegToRad(yawDeg)
	sin, cos := math.Sincos(rad)
	return Orientation{
		Forward: Vec3{sin, 0, cos},
		Right:   Vec3{cos, 0, -sin},
	}
}

// Frame is a variable-rate update tick.
type Frame struct {
	Now   time.Duration
	Delta time.Duration
}

// Tick is a fixed-rate physics tick.
type Tick struct {
	Now   time.Duration
	Delta time.Duration
}
