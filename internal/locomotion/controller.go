package locomotion

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Versifine/stride/internal/event"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNilBody   = errors.New("rigid body is nil")
	ErrNilProber = errors.New("prober is nil")
)

// Controller drives one actor. Update runs on every frame and FixedUpdate on
// every physics tick; the caller must never run them concurrently.
type Controller struct {
	name      string
	cfg       Config
	body      RigidBody
	prober    Prober
	publisher Publisher
	log       *slog.Logger

	standingScale float64

	state  MovementState
	speed  float64
	ground GroundInfo
	move   MoveCase

	horizontal float64
	vertical   float64
	facing     Orientation

	jump   JumpGate
	crouch CrouchSession
	dodge  Dodger
	jumps  int
}

type Option func(*Controller)

func WithName(name string) Option {
	return func(c *Controller) { c.name = name }
}

func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func New(body RigidBody, prober Prober, cfg Config, opts ...Option) (*Controller, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	if prober == nil {
		return nil, ErrNilProber
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:           cfg,
		body:          body,
		prober:        prober,
		log:           slog.Default(),
		standingScale: body.ScaleY(),
		state:         Walking,
		speed:         cfg.WalkSpeed,
		facing:        OrientationFromYaw(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !(c.standingScale > cfg.CrouchScale) {
		return nil, fmt.Errorf("%w: standing scale %v must exceed crouch_scale %v",
			ErrInvalidConfig, c.standingScale, cfg.CrouchScale)
	}
	c.log = c.log.With("actor", c.name)
	return c, nil
}

func (c *Controller) Config() Config { return c.cfg }

// Update samples ground, triggers timed actions from in, applies the slope
// speed clamp and drag, classifies the state and advances the crouch.
func (c *Controller) Update(f Frame, in Input, o Orientation) {
	c.refreshJump(f.Now)
	c.ground = c.sense()
	c.horizontal = mgl64.Clamp(in.Horizontal, -1, 1)
	c.vertical = mgl64.Clamp(in.Vertical, -1, 1)
	c.facing = o

	if in.Jump.Pressed || (c.cfg.AutoJump && in.Jump.Held) {
		c.tryJump(f.Now)
	}
	if in.Crouch.Pressed {
		c.startCrouch(f.Now, c.cfg.CrouchScale)
	}
	if in.Crouch.Released {
		c.startCrouch(f.Now, c.standingScale)
	}
	if in.Dodge.Pressed {
		c.tryDodge(f.Now)
	}

	ClampSlope(c.body, c.ground, c.jump.ExitingSlope(), c.speed)

	state, speed := Classify(c.ground.Grounded, in.Crouch.Held, in.Sprint.Held, c.cfg, c.speed)
	if state != c.state {
		c.publish(event.EventStateChange, event.StateChangeEvent{
			Actor: c.name,
			At:    f.Now,
			From:  c.state.String(),
			To:    state.String(),
			Speed: speed,
		})
	}
	c.state, c.speed = state, speed

	if c.ground.Grounded {
		c.body.SetDrag(c.cfg.GroundDrag)
	} else {
		c.body.SetDrag(0)
	}

	if c.crouch.Resume(f.Delta, c.body) {
		target := c.crouch.Target()
		c.publish(event.EventCrouchEnd, event.CrouchEvent{Actor: c.name, At: f.Now, Target: target, Down: target != c.standingScale})
	}
}

// FixedUpdate applies movement forces and advances the dodge.
func (c *Controller) FixedUpdate(t Tick, o Orientation) {
	c.refreshJump(t.Now)
	c.ground = c.sense()
	c.facing = o

	dir := MoveDirection(o, c.horizontal, c.vertical)
	c.move = Integrate(c.body, c.ground, c.jump.ExitingSlope(), dir, c.speed, c.cfg)

	if c.dodge.Active() && c.dodge.Resume(t.Delta, c.body, c.cfg) {
		c.log.Debug("Dodge finished", "at", t.Now)
		c.publish(event.EventDodgeEnd, event.DodgeEvent{Actor: c.name, At: t.Now})
	}
}

func (c *Controller) sense() GroundInfo {
	return Sense(c.prober, c.body.Position(), c.body.HalfHeight(), c.cfg)
}

func (c *Controller) refreshJump(now time.Duration) {
	if c.jump.Refresh(now) {
		c.publish(event.EventJumpReady, event.JumpEvent{Actor: c.name, At: now})
	}
}

func (c *Controller) tryJump(now time.Duration) {
	if !c.jump.TryTrigger(now, c.ground.Grounded, c.body, c.cfg) {
		return
	}
	c.jumps++
	c.log.Debug("Jump", "at", now, "ready_at", c.jump.ReadyAt())
	c.publish(event.EventJump, event.JumpEvent{Actor: c.name, At: now, ReadyAt: c.jump.ReadyAt()})
}

func (c *Controller) startCrouch(now time.Duration, target float64) {
	c.crouch.Start(target, c.cfg.CrouchTransitionSpeed, c.body)
	c.publish(event.EventCrouchStart, event.CrouchEvent{Actor: c.name, At: now, Target: target, Down: target != c.standingScale})
}

func (c *Controller) tryDodge(now time.Duration) {
	dir := MoveDirection(c.facing, c.horizontal, c.vertical)
	if !c.dodge.TryStart(now, c.ground.Grounded, dir, c.body, c.prober, c.cfg) {
		c.log.Debug("Dodge rejected",
			"at", now,
			"grounded", c.ground.Grounded,
			"active", c.dodge.Active(),
			"cooldown_ready", c.dodge.CooldownReady(now, c.cfg),
		)
		return
	}
	s, _ := c.dodge.Session()
	c.log.Debug("Dodge", "at", now, "distance", s.Distance, "blocked", s.Blocked)
	c.publish(event.EventDodgeStart, event.DodgeEvent{
		Actor:     c.name,
		At:        now,
		Direction: [3]float64{s.Direction.X(), s.Direction.Y(), s.Direction.Z()},
		Distance:  s.Distance,
		Blocked:   s.Blocked,
	})
}

func (c *Controller) publish(name string, evt any) {
	if c.publisher != nil {
		c.publisher.Publish(name, evt)
	}
}

// Snapshot is a read-only view of the controller after the last tick.
type Snapshot struct {
	State        MovementState
	Speed        float64
	Ground       GroundInfo
	Move         MoveCase
	Jump         JumpPhase
	JumpReadyAt  time.Duration
	ExitingSlope bool
	Crouching    bool
	CrouchTarget float64
	Scale        float64
	Dodging      bool
	Dodge        DodgeSession
	Jumps        int
	Dodges       int
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:        c.state,
		Speed:        c.speed,
		Ground:       c.ground,
		Move:         c.move,
		Jump:         c.jump.Phase(),
		JumpReadyAt:  c.jump.ReadyAt(),
		ExitingSlope: c.jump.ExitingSlope(),
		Crouching:    c.crouch.Active(),
		CrouchTarget: c.crouch.Target(),
		Scale:        c.body.ScaleY(),
		Jumps:        c.jumps,
		Dodges:       c.dodge.Started(),
	}
	s.Dodge, s.Dodging = c.dodge.Session()
	return s
}
