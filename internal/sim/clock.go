package sim

import (
	"math/rand"
	"time"

	"github.com/Versifine/stride/internal/locomotion"
)

// Clock produces variable frames and the fixed ticks that fall due before
// each of them. The same seed always yields the same sequence.
type Clock struct {
	fixed    time.Duration
	frame    time.Duration
	jitter   float64
	maxSteps int
	rng      *rand.Rand

	now      time.Duration
	fixedNow time.Duration
	acc      time.Duration
	dropped  time.Duration
}

func NewClock(fixed, frame time.Duration, jitter float64, seed int64, maxSteps int) *Clock {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Clock{
		fixed:    fixed,
		frame:    frame,
		jitter:   jitter,
		maxSteps: maxSteps,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Next advances by one jittered frame. The returned ticks run before the
// frame, in order.
func (c *Clock) Next() (locomotion.Frame, []locomotion.Tick) {
	delta := c.frame
	if c.jitter > 0 {
		scale := 1 + c.jitter*(2*c.rng.Float64()-1)
		delta = time.Duration(float64(c.frame) * scale)
	}
	return c.Advance(delta)
}

// Advance moves the clock by an externally measured frame delta. Time that
// would need more than maxSteps ticks is dropped.
func (c *Clock) Advance(delta time.Duration) (locomotion.Frame, []locomotion.Tick) {
	if delta <= 0 {
		delta = time.Nanosecond
	}
	c.now += delta
	c.acc += delta

	var ticks []locomotion.Tick
	for c.acc >= c.fixed {
		if len(ticks) == c.maxSteps {
			c.dropped += c.acc
			c.acc = 0
			break
		}
		ticks = append(ticks, locomotion.Tick{Now: c.fixedNow, Delta: c.fixed})
		c.fixedNow += c.fixed
		c.acc -= c.fixed
	}
	return locomotion.Frame{Now: c.now, Delta: delta}, ticks
}

func (c *Clock) Now() time.Duration { return c.now }

// Dropped is the total time discarded by the tick cap.
func (c *Clock) Dropped() time.Duration { return c.dropped }
