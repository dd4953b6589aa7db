package physics

import (
	"math"

	"github.com/Versifine/stride/internal/locomotion"
)

// Body is a kinematic-ish rigid body: a box collider with mass, linear drag
// and optional gravity. It implements locomotion.RigidBody.
//
// Impulses and velocity changes are queued and take effect on the next Step,
// like forces, so a caller reading Velocity right after AddForce sees the
// pre-step value.
type Body struct {
	mass       float64
	halfWidth  float64
	halfHeight float64

	pos     Vec3
	vel     Vec3
	force   Vec3
	pending Vec3

	drag     float64
	gravity  bool
	scaleY   float64
	grounded bool
}

type BodyOption func(*Body)

func WithMass(m float64) BodyOption {
	return func(b *Body) {
		if m > 0 {
			b.mass = m
		}
	}
}

func WithHalfExtents(halfWidth, halfHeight float64) BodyOption {
	return func(b *Body) {
		if halfWidth > 0 {
			b.halfWidth = halfWidth
		}
		if halfHeight > 0 {
			b.halfHeight = halfHeight
		}
	}
}

func NewBody(pos Vec3, opts ...BodyOption) *Body {
	b := &Body{
		mass:       DefaultMass,
		halfWidth:  DefaultHalfWidth,
		halfHeight: DefaultHalfHeight,
		pos:        pos,
		gravity:    true,
		scaleY:     1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Body) Position() Vec3 { return b.pos }

// SetPosition teleports the body and clears contact.
func (b *Body) SetPosition(p Vec3) {
	b.pos = p
	b.grounded = false
}

func (b *Body) Velocity() Vec3     { return b.vel }
func (b *Body) SetVelocity(v Vec3) { b.vel = v }
func (b *Body) Mass() float64      { return b.mass }

func (b *Body) AddForce(f Vec3, mode locomotion.ForceMode) {
	switch mode {
	case locomotion.ForceImpulse:
		b.pending = b.pending.Add(f.Mul(1 / b.mass))
	case locomotion.ForceVelocityChange:
		b.pending = b.pending.Add(f)
	default:
		b.force = b.force.Add(f)
	}
}

func (b *Body) Drag() float64 { return b.drag }

func (b *Body) SetDrag(d float64) { b.drag = math.Max(d, 0) }

func (b *Body) UseGravity() bool          { return b.gravity }
func (b *Body) SetUseGravity(enabled bool) { b.gravity = enabled }
func (b *Body) ScaleY() float64           { return b.scaleY }

func (b *Body) SetScaleY(s float64) {
	if s > CollisionAxisTolerance {
		b.scaleY = s
	}
}

func (b *Body) HalfHeight() float64 { return b.halfHeight }
func (b *Body) HalfWidth() float64  { return b.halfWidth }

// ScaledHalfHeight is the collider half height after the vertical scale.
func (b *Body) ScaledHalfHeight() float64 { return b.halfHeight * b.scaleY }

// Grounded reports contact with a surface at the end of the last Step.
func (b *Body) Grounded() bool { return b.grounded }

func (b *Body) AABB() AABB {
	return ActorAABB(b.pos, b.halfWidth, b.ScaledHalfHeight())
}

// Step integrates dt seconds: queued velocity changes, accumulated force,
// gravity, drag, then movement against terrain walls and surfaces. A nil
// terrain means empty space.
func (b *Body) Step(dt float64, t *Terrain) {
	if dt <= 0 {
		return
	}

	b.vel = b.vel.Add(b.pending).Add(b.force.Mul(dt / b.mass))
	b.pending, b.force = Vec3{}, Vec3{}
	if b.gravity {
		b.vel[1] -= Gravity * dt
	}
	b.vel = b.vel.Mul(math.Max(0, 1-b.drag*dt))

	hh := b.ScaledHalfHeight()
	var walls []Wall
	if t != nil {
		walls = t.walls
	}
	pos, blocked := ResolveMovement(b.pos, b.vel.Mul(dt), b.halfWidth, hh, walls)
	for axis, hit := range blocked {
		if hit {
			b.vel[axis] = 0
		}
	}

	b.grounded = false
	if t != nil {
		feet := pos[1] - hh
		if y, _, ok := t.SurfaceAt(pos[0], pos[2], feet+StepHeight); ok && feet <= y+GroundContactSlack {
			pos[1] = y + hh
			if b.vel[1] < 0 {
				b.vel[1] = 0
			}
			b.grounded = true
		}
	}
	b.pos = pos
}

// Nudge displaces the body without touching velocity, stopping at walls.
func (b *Body) Nudge(delta Vec3, t *Terrain) {
	var walls []Wall
	if t != nil {
		walls = t.walls
	}
	b.pos, _ = ResolveMovement(b.pos, delta, b.halfWidth, b.ScaledHalfHeight(), walls)
}
