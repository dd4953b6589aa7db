package locomotion

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// CrouchSession moves the actor's vertical scale toward a target at a fixed
// rate, one frame at a time. Starting a new session replaces the old one.
type CrouchSession struct {
	active  bool
	target  float64
	start   float64
	current float64
	tween   *gween.Tween
}

func (s *CrouchSession) Active() bool     { return s.active }
func (s *CrouchSession) Target() float64  { return s.target }
func (s *CrouchSession) Current() float64 { return s.current }

// Start begins a transition from the body's current scale. Any session still
// in flight is superseded.
func (s *CrouchSession) Start(target, rate float64, body RigidBody) {
	s.active = true
	s.target = target
	s.current = body.ScaleY()
	s.start = s.current
	s.tween = nil

	dist := math.Abs(target - s.current)
	if dist > crouchTolerance && rate > 0 {
		s.tween = gween.New(float32(s.current), float32(target), float32(dist/rate), ease.Linear)
	}
}

// Resume advances the transition by dt and writes the scale to body. It
// reports true on the call that completes the session. Calling it while idle
// does nothing.
func (s *CrouchSession) Resume(dt time.Duration, body RigidBody) bool {
	if !s.active {
		return false
	}
	if s.tween == nil || math.Abs(s.current-s.target) <= crouchTolerance {
		s.current = s.target
		body.SetScaleY(s.target)
		s.active = false
		s.tween = nil
		return true
	}

	value, finished := s.tween.Update(float32(dt.Seconds()))
	// float32 tween output can land a hair outside the segment.
	s.current = mgl64.Clamp(float64(value), math.Min(s.start, s.target), math.Max(s.start, s.target))
	if finished {
		s.current = s.target
	}
	body.SetScaleY(s.current)
	return false
}
