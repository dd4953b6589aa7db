package locomotion

import "time"

// DodgeSession is one dodge in flight. A zero Direction is legal: the dodge
// runs its course and costs the cooldown without moving the actor.
type DodgeSession struct {
	Direction Vec3
	// Distance is the nominal dodge distance, shortened to the first obstacle
	// found along Direction when the dodge started. Only this session sees
	// the shortened value; the session still ends on elapsed time.
	Distance  float64
	Origin    Vec3
	StartedAt time.Duration
	Elapsed   time.Duration
	Blocked   bool
}

// Dodger owns at most one DodgeSession and the cooldown timestamp.
type Dodger struct {
	session   *DodgeSession
	lastStart time.Duration
	hasDodged bool
	started   int
	finished  int
}

func (d *Dodger) Active() bool { return d.session != nil }

// Session returns a copy of the session in flight.
func (d *Dodger) Session() (DodgeSession, bool) {
	if d.session == nil {
		return DodgeSession{}, false
	}
	return *d.session, true
}

func (d *Dodger) Started() int   { return d.started }
func (d *Dodger) Completed() int { return d.finished }

// CooldownReady reports whether enough time has passed since the last dodge
// started. The first dodge is always allowed.
func (d *Dodger) CooldownReady(now time.Duration, cfg Config) bool {
	return !d.hasDodged || now-d.lastStart >= cfg.DodgeCooldown
}

// TryStart opens a session when grounded, idle and off cooldown. The request
// is dropped otherwise.
func (d *Dodger) TryStart(now time.Duration, grounded bool, dir Vec3, body RigidBody, p Prober, cfg Config) bool {
	if !grounded || d.session != nil || !d.CooldownReady(now, cfg) {
		return false
	}

	dir = NormalizeOrZero(dir)
	origin := body.Position()
	s := &DodgeSession{
		Direction: dir,
		Distance:  cfg.DodgeDistance,
		Origin:    origin,
		StartedAt: now,
	}
	if p != nil && dir.Len() > 0 {
		if hit, ok := p.Cast(origin, dir, cfg.DodgeDistance, cfg.GroundMask); ok && hit.Distance < s.Distance {
			s.Distance = hit.Distance
			s.Blocked = true
		}
	}

	d.session = s
	d.lastStart = now
	d.hasDodged = true
	d.started++
	return true
}

// Resume applies one tick of dodge velocity and reports true when the session
// ends on this tick.
func (d *Dodger) Resume(dt time.Duration, body RigidBody, cfg Config) bool {
	s := d.session
	if s == nil {
		return false
	}

	body.AddForce(s.Direction.Mul(cfg.DodgeSpeed), ForceVelocityChange)
	s.Elapsed += dt
	if s.Elapsed >= cfg.DodgeDuration {
		d.finish()
		return true
	}
	return false
}

func (d *Dodger) finish() {
	d.session = nil
	d.finished++
}
