package locomotion

import "time"

type JumpPhase int

const (
	JumpReady JumpPhase = iota
	JumpCooling
)

func (p JumpPhase) String() string {
	if p == JumpCooling {
		return "cooling"
	}
	return "ready"
}

// JumpGate debounces jumps. While cooling it also marks the actor as exiting
// a slope so slope force and the gravity toggle leave the jump alone.
type JumpGate struct {
	phase   JumpPhase
	readyAt time.Duration
}

func (g *JumpGate) Phase() JumpPhase { return g.phase }

// ExitingSlope is true for the whole cooldown after a jump.
func (g *JumpGate) ExitingSlope() bool { return g.phase == JumpCooling }

// ReadyAt is when the current cooldown ends. Zero while ready.
func (g *JumpGate) ReadyAt() time.Duration {
	if g.phase != JumpCooling {
		return 0
	}
	return g.readyAt
}

// Refresh ends the cooldown once now reaches the ready time.
func (g *JumpGate) Refresh(now time.Duration) bool {
	if g.phase == JumpCooling && now >= g.readyAt {
		g.phase = JumpReady
		g.readyAt = 0
		return true
	}
	return false
}

// TryTrigger applies the jump to body and starts the cooldown. It is a no-op
// unless grounded and ready.
func (g *JumpGate) TryTrigger(now time.Duration, grounded bool, body RigidBody, cfg Config) bool {
	if g.phase != JumpReady || !grounded {
		return false
	}
	g.phase = JumpCooling
	g.readyAt = now + cfg.JumpCooldown

	v := body.Velocity()
	body.SetVelocity(Vec3{v.X(), 0, v.Z()})
	body.AddForce(WorldUp.Mul(cfg.JumpForce), ForceImpulse)
	return true
}
