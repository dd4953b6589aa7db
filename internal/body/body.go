package body

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Versifine/stride/internal/input"
	"github.com/Versifine/stride/internal/locomotion"
	"github.com/Versifine/stride/internal/physics"
)

// Body binds one locomotion controller to one physics body standing in a
// shared terrain. Frame and Fixed are serialized per body, so a host may step
// many bodies from different goroutines.
type Body struct {
	mu      sync.Mutex
	name    string
	ctrl    *locomotion.Controller
	rb      *physics.Body
	terrain *physics.Terrain
	sampler *input.Sampler
	yaw     float64
	last    locomotion.Input
}

type options struct {
	publisher locomotion.Publisher
	logger    *slog.Logger
	keymap    input.Keymap
	physics   []physics.BodyOption
}

type Option func(*options)

func WithPublisher(p locomotion.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithKeymap(km input.Keymap) Option {
	return func(o *options) { o.keymap = km }
}

func WithPhysics(opts ...physics.BodyOption) Option {
	return func(o *options) { o.physics = append(o.physics, opts...) }
}

func New(name string, spawn physics.Vec3, yaw float64, terrain *physics.Terrain, cfg locomotion.Config, opts ...Option) (*Body, error) {
	if terrain == nil {
		return nil, fmt.Errorf("body %q: terrain is nil", name)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rb := physics.NewBody(spawn, o.physics...)
	ctrlOpts := []locomotion.Option{locomotion.WithName(name), locomotion.WithLogger(o.logger)}
	if o.publisher != nil {
		ctrlOpts = append(ctrlOpts, locomotion.WithPublisher(o.publisher))
	}
	ctrl, err := locomotion.New(rb, terrain, cfg, ctrlOpts...)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", name, err)
	}

	return &Body{
		name:    name,
		ctrl:    ctrl,
		rb:      rb,
		terrain: terrain,
		sampler: input.NewSampler(o.keymap),
		yaw:     normalizeYaw(yaw),
	}, nil
}

func (b *Body) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// Frame samples actions into one frame of input and runs the controller's
// per-frame update.
func (b *Body) Frame(f locomotion.Frame, actions input.ActionSet, horizontal, vertical float64) error {
	if b == nil {
		return fmt.Errorf("body is nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	in := b.sampler.Sample(actions, horizontal, vertical)
	b.last = in
	b.ctrl.Update(f, in, locomotion.OrientationFromYaw(b.yaw))
	return nil
}

// Fixed runs the controller's fixed update and then advances physics by the
// tick's delta.
func (b *Body) Fixed(t locomotion.Tick) error {
	if b == nil {
		return fmt.Errorf("body is nil")
	}
	if t.Delta <= 0 {
		return fmt.Errorf("body %q: fixed delta must be positive, got %s", b.name, t.Delta)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ctrl.FixedUpdate(t, locomotion.OrientationFromYaw(b.yaw))
	b.rb.Step(t.Delta.Seconds(), b.terrain)
	return nil
}

func (b *Body) Yaw() float64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.yaw
}

func (b *Body) SetYaw(deg float64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.yaw = normalizeYaw(deg)
	b.mu.Unlock()
}

func (b *Body) Turn(deltaDeg float64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.yaw = normalizeYaw(b.yaw + deltaDeg)
	b.mu.Unlock()
}

// Teleport moves the body and stops it.
func (b *Body) Teleport(pos physics.Vec3) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.rb.SetPosition(pos)
	b.rb.SetVelocity(physics.Vec3{})
	b.mu.Unlock()
	slog.Debug("Teleported", "actor", b.name, "x", pos.X(), "y", pos.Y(), "z", pos.Z())
}

// Collider snapshots the body's box for actor separation.
func (b *Body) Collider() physics.Collider {
	if b == nil {
		return physics.Collider{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return physics.ColliderOf(b.rb)
}

// Nudge displaces the body against terrain walls without changing velocity.
func (b *Body) Nudge(delta physics.Vec3) {
	if b == nil || delta == (physics.Vec3{}) {
		return
	}
	b.mu.Lock()
	b.rb.Nudge(delta, b.terrain)
	b.mu.Unlock()
}

// Snapshot is a consistent view of one body between ticks.
type Snapshot struct {
	Name       string
	Position   physics.Vec3
	Velocity   physics.Vec3
	Yaw        float64
	Contact    bool
	Drag       float64
	Gravity    bool
	Input      locomotion.Input
	Locomotion locomotion.Snapshot
}

// HorizontalSpeed is the speed in the XZ plane.
func (s Snapshot) HorizontalSpeed() float64 {
	return locomotion.Horizontal(s.Velocity).Len()
}

func (b *Body) Snapshot() Snapshot {
	if b == nil {
		return Snapshot{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:       b.name,
		Position:   b.rb.Position(),
		Velocity:   b.rb.Velocity(),
		Yaw:        b.yaw,
		Contact:    b.rb.Grounded(),
		Drag:       b.rb.Drag(),
		Gravity:    b.rb.UseGravity(),
		Input:      b.last,
		Locomotion: b.ctrl.Snapshot(),
	}
}

func normalizeYaw(yaw float64) float64 {
	yaw = math.Mod(yaw, 360)
	if yaw < 0 {
		yaw += 360
	}
	return yaw
}
