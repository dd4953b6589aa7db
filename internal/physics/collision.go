package physics

import (
	"math"

	"github.com/Versifine/stride/internal/locomotion"
)

type Vec3 = locomotion.Vec3

// AABB is an axis-aligned box in world space, Y up.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Box builds an AABB from any two opposite corners.
func Box(a, b Vec3) AABB {
	return AABB{
		Min: Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// ActorAABB is the collision box of an actor whose center is at center.
func ActorAABB(center Vec3, halfWidth, halfHeight float64) AABB {
	ext := Vec3{halfWidth, halfHeight, halfWidth}
	return AABB{Min: center.Sub(ext), Max: center.Add(ext)}
}

func (a AABB) Size() Vec3 { return a.Max.Sub(a.Min) }

func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] < b.Max[0] && a.Max[0] > b.Min[0] &&
		a.Min[1] < b.Max[1] && a.Max[1] > b.Min[1] &&
		a.Min[2] < b.Max[2] && a.Max[2] > b.Min[2]
}

func (a AABB) containsXZ(x, z float64) bool {
	return x >= a.Min[0] && x <= a.Max[0] && z >= a.Min[2] && z <= a.Max[2]
}

// ResolveMovement moves an actor box centered at pos by delta against walls,
// one axis at a time in Y, X, Z order. blocked reports the axes that hit a
// wall; the caller zeroes velocity on those.
func ResolveMovement(pos, delta Vec3, halfWidth, halfHeight float64, walls []Wall) (Vec3, [3]bool) {
	var blocked [3]bool
	for _, axis := range [...]int{1, 0, 2} {
		box := ActorAABB(pos, halfWidth, halfHeight)
		allowed := resolveAxis(box, axis, delta[axis], walls)
		pos[axis] += allowed
		blocked[axis] = !nearlyEqual(allowed, delta[axis])
	}
	return pos, blocked
}

func resolveAxis(box AABB, axis int, delta float64, walls []Wall) float64 {
	if len(walls) == 0 || nearlyZero(delta) {
		return delta
	}

	allowed := delta
	for _, w := range walls {
		if !overlapsAcross(box, w.Box, axis) {
			continue
		}
		if delta > 0 && w.Box.Min[axis] >= box.Max[axis]-CollisionAxisTolerance {
			if candidate := w.Box.Min[axis] - box.Max[axis]; candidate < allowed {
				allowed = math.Max(candidate, 0)
			}
		}
		if delta < 0 && w.Box.Max[axis] <= box.Min[axis]+CollisionAxisTolerance {
			if candidate := w.Box.Max[axis] - box.Min[axis]; candidate > allowed {
				allowed = math.Min(candidate, 0)
			}
		}
	}
	return allowed
}

// overlapsAcross reports whether box and wall overlap on the two axes other
// than axis. Horizontal sweeps ignore walls low enough to step onto.
func overlapsAcross(box, wall AABB, axis int) bool {
	for i := 0; i < 3; i++ {
		if i == axis {
			continue
		}
		lo := box.Min[i]
		if i == 1 && axis != 1 {
			lo += StepHeight
		}
		if !(lo < wall.Max[i] && box.Max[i] > wall.Min[i]) {
			return false
		}
	}
	return true
}

// rayBox is a slab test. It returns the entry distance and face normal, and
// misses when origin starts inside the box.
func rayBox(origin, dir Vec3, box AABB, maxDistance float64) (float64, Vec3, bool) {
	tMin, tMax := 0.0, maxDistance
	var normal Vec3
	entered := false

	for i := 0; i < 3; i++ {
		if nearlyZero(dir[i]) {
			if origin[i] < box.Min[i] || origin[i] > box.Max[i] {
				return 0, Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (box.Min[i] - origin[i]) * inv
		t2 := (box.Max[i] - origin[i]) * inv
		var n Vec3
		n[i] = -1
		if t1 > t2 {
			t1, t2 = t2, t1
			n[i] = 1
		}
		if t1 >= tMin {
			tMin = t1
			normal = n
			entered = true
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, Vec3{}, false
		}
	}
	if !entered {
		return 0, Vec3{}, false
	}
	return tMin, normal, true
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= CollisionAxisTolerance
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= CollisionAxisTolerance
}
