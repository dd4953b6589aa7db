package locomotion

import (
	"math"
	"testing"
	"time"
)

type appliedForce struct {
	force Vec3
	mode  ForceMode
}

type fakeBody struct {
	pos        Vec3
	vel        Vec3
	drag       float64
	gravity    bool
	scale      float64
	scaleSets  int
	halfHeight float64
	forces     []appliedForce
}

func newFakeBody() *fakeBody {
	return &fakeBody{
		pos:        Vec3{0, 1, 0},
		gravity:    true,
		scale:      1,
		halfHeight: 1,
	}
}

func (b *fakeBody) Position() Vec3        { return b.pos }
func (b *fakeBody) Velocity() Vec3        { return b.vel }
func (b *fakeBody) SetVelocity(v Vec3)    { b.vel = v }
func (b *fakeBody) Drag() float64         { return b.drag }
func (b *fakeBody) SetDrag(d float64)     { b.drag = d }
func (b *fakeBody) UseGravity() bool      { return b.gravity }
func (b *fakeBody) SetUseGravity(on bool) { b.gravity = on }
func (b *fakeBody) ScaleY() float64       { return b.scale }
func (b *fakeBody) HalfHeight() float64   { return b.halfHeight }

func (b *fakeBody) SetScaleY(s float64) {
	b.scale = s
	b.scaleSets++
}

func (b *fakeBody) AddForce(f Vec3, mode ForceMode) {
	b.forces = append(b.forces, appliedForce{force: f, mode: mode})
}

func (b *fakeBody) forcesOf(mode ForceMode) []Vec3 {
	var out []Vec3
	for _, f := range b.forces {
		if f.mode == mode {
			out = append(out, f.force)
		}
	}
	return out
}

func (b *fakeBody) reset() { b.forces = nil }

// fakeProber reports a floor at a fixed distance below the origin with the
// given normal, and an optional wall hit for directional casts.
type fakeProber struct {
	floor     bool
	floorDist float64
	normal    Vec3

	wall     bool
	wallDist float64

	downCalls []float64
	casts     []Vec3
}

func flatFloor() *fakeProber {
	return &fakeProber{floor: true, floorDist: 1, normal: WorldUp}
}

func slopeFloor(angleDeg float64) *fakeProber {
	rad := angleDeg * math.Pi / 180
	// Surface rising toward +Z.
	return &fakeProber{floor: true, floorDist: 1.1, normal: Vec3{0, math.Cos(rad), -math.Sin(rad)}}
}

func noFloor() *fakeProber {
	return &fakeProber{}
}

func (p *fakeProber) CastDown(origin Vec3, maxDistance float64, mask LayerMask) (Hit, bool) {
	p.downCalls = append(p.downCalls, maxDistance)
	if !p.floor || p.floorDist > maxDistance {
		return Hit{}, false
	}
	return Hit{Distance: p.floorDist, Normal: p.normal}, true
}

func (p *fakeProber) Cast(origin, direction Vec3, maxDistance float64, mask LayerMask) (Hit, bool) {
	p.casts = append(p.casts, direction)
	if !p.wall || p.wallDist > maxDistance {
		return Hit{}, false
	}
	return Hit{Distance: p.wallDist, Normal: direction.Mul(-1)}, true
}

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func approxVec(t *testing.T, got, want Vec3, tol float64, field string) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%s = %v, want %v (tol=%.8f)", field, got, want, tol)
		}
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func frameAt(nowMs, deltaMs int) Frame {
	return Frame{Now: ms(nowMs), Delta: ms(deltaMs)}
}

func tickAt(nowMs, deltaMs int) Tick {
	return Tick{Now: ms(nowMs), Delta: ms(deltaMs)}
}

func newTestController(t *testing.T, body RigidBody, p Prober, cfg Config) *Controller {
	t.Helper()
	c, err := New(body, p, cfg, WithName("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
