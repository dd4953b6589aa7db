package locomotion

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// GroundInfo is what the downward probes saw this tick.
type GroundInfo struct {
	Grounded bool
	// SlopeHit reports whether the longer slope probe hit anything. Normal and
	// SlopeAngle are only meaningful when it did.
	SlopeHit   bool
	Normal     Vec3
	SlopeAngle float64
	OnSlope    bool
}

// Sense casts the ground and slope probes from origin. halfHeight is the
// standing half height of the actor; crouching does not shorten the probes.
func Sense(p Prober, origin Vec3, halfHeight float64, cfg Config) GroundInfo {
	var info GroundInfo
	if p == nil {
		return info
	}

	_, info.Grounded = p.CastDown(origin, halfHeight+cfg.GroundSkin, cfg.GroundMask)

	hit, ok := p.CastDown(origin, halfHeight+cfg.SlopeSkin, cfg.GroundMask)
	if !ok {
		return info
	}
	info.SlopeHit = true
	info.Normal = hit.Normal
	info.SlopeAngle = AngleBetween(WorldUp, hit.Normal)
	info.OnSlope = info.SlopeAngle > 0 && info.SlopeAngle < cfg.MaxSlopeAngle
	return info
}

// SlopeMoveDirection projects dir onto the surface under the actor.
func (g GroundInfo) SlopeMoveDirection(dir Vec3) Vec3 {
	if !g.SlopeHit {
		return NormalizeOrZero(dir)
	}
	return NormalizeOrZero(ProjectOnPlane(dir, g.Normal))
}

// AngleBetween returns the unsigned angle between a and b in degrees.
func AngleBetween(a, b Vec3) float64 {
	denom := a.Len() * b.Len()
	if denom < minDirectionLength {
		return 0
	}
	cos := mgl64.Clamp(a.Dot(b)/denom, -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// ProjectOnPlane removes the component of v along the plane normal n.
func ProjectOnPlane(v, n Vec3) Vec3 {
	lenSq := n.LenSqr()
	if lenSq < minDirectionLength {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n) / lenSq))
}

// NormalizeOrZero is Normalize without the NaN for zero-length input.
func NormalizeOrZero(v Vec3) Vec3 {
	if v.Len() < minDirectionLength {
		return Vec3{}
	}
	return v.Normalize()
}

// Horizontal drops the vertical component.
func Horizontal(v Vec3) Vec3 {
	return Vec3{v.X(), 0, v.Z()}
}
