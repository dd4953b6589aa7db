package physics

import "math"

// Collider is another actor's box as seen by the push pass.
type Collider struct {
	Center     Vec3
	HalfWidth  float64
	HalfHeight float64
	// Rank orders actors whose centers coincide: the lower rank moves -X.
	Rank int
}

// ColliderOf snapshots b for SeparationPush.
func ColliderOf(b *Body) Collider {
	return Collider{Center: b.pos, HalfWidth: b.halfWidth, HalfHeight: b.ScaledHalfHeight()}
}

// SeparationPush returns the horizontal displacement that eases self out of
// overlapping actors. Each neighbour contributes at most
// actorPushMaxPerActor and the total is capped at actorPushMaxPerTick.
func SeparationPush(self Collider, others []Collider) Vec3 {
	if len(others) == 0 {
		return Vec3{}
	}

	box := ActorAABB(self.Center, self.HalfWidth, self.HalfHeight)
	var push Vec3
	for _, o := range others {
		other := ActorAABB(o.Center, o.HalfWidth, o.HalfHeight)
		if box.Max[1] <= other.Min[1] || box.Min[1] >= other.Max[1] {
			continue
		}

		dx := self.Center[0] - o.Center[0]
		dz := self.Center[2] - o.Center[2]
		minDist := self.HalfWidth + o.HalfWidth
		dist2 := dx*dx + dz*dz
		if dist2 >= minDist*minDist {
			continue
		}

		dist := math.Sqrt(dist2)
		mag := math.Min((minDist-dist)*actorPushStrength, actorPushMaxPerActor)
		if dist < CollisionAxisTolerance {
			if self.Rank < o.Rank {
				mag = -mag
			}
			push[0] += mag
			continue
		}
		push[0] += dx / dist * mag
		push[2] += dz / dist * mag
	}

	if l := push.Len(); l > actorPushMaxPerTick {
		push = push.Mul(actorPushMaxPerTick / l)
	} else if l <= CollisionAxisTolerance {
		return Vec3{}
	}
	return push
}
