// Package sim hosts scripted actors in one arena and steps them on a
// deterministic clock.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Versifine/stride/internal/arena"
	"github.com/Versifine/stride/internal/body"
	"github.com/Versifine/stride/internal/config"
	"github.com/Versifine/stride/internal/event"
	"github.com/Versifine/stride/internal/locomotion"
	"github.com/Versifine/stride/internal/physics"
	"github.com/yohamta/donburi"
	"golang.org/x/sync/errgroup"
)

type Sim struct {
	world    donburi.World
	terrain  *physics.Terrain
	clock    *Clock
	bus      *event.Bus
	events   *eventCounter
	log      *slog.Logger
	name     string
	arena    string
	duration time.Duration

	frames int
	ticks  int
}

type options struct {
	bus    *event.Bus
	logger *slog.Logger
}

type Option func(*options)

// WithBus publishes locomotion events on b instead of a private bus.
func WithBus(b *event.Bus) Option {
	return func(o *options) { o.bus = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New places every scenario actor into the arena described by spec.
func New(cfg *config.Config, spec arena.Spec, sc *config.Scenario, opts ...Option) (*Sim, error) {
	if cfg == nil || sc == nil {
		return nil, fmt.Errorf("sim: config and scenario are required")
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = event.NewBus()
	}

	terrain, err := spec.Build()
	if err != nil {
		return nil, fmt.Errorf("sim: arena %q: %w", spec.Name, err)
	}
	keymap, err := cfg.Keymap()
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	duration := cfg.Simulation.Duration
	if sc.Duration > 0 {
		duration = sc.Duration
	}
	s := &Sim{
		world:   donburi.NewWorld(),
		terrain: terrain,
		clock: NewClock(cfg.Simulation.FixedStep, cfg.Simulation.FrameStep,
			cfg.Simulation.Jitter, cfg.Simulation.Seed, cfg.Simulation.MaxFixedSteps),
		bus:      o.bus,
		events:   newEventCounter(o.bus),
		log:      o.logger,
		name:     sc.Name,
		arena:    spec.Name,
		duration: duration,
	}

	for i, a := range sc.Actors {
		pos, yaw, err := placement(terrain, spec.Spawns, a, i)
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
		b, err := body.New(a.Name, pos, yaw, terrain, cfg.Locomotion,
			body.WithPublisher(o.bus), body.WithLogger(o.logger), body.WithKeymap(keymap))
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
		script, err := NewScript(a.Steps)
		if err != nil {
			return nil, fmt.Errorf("sim: actor %s: %w", a.Name, err)
		}

		entry := s.world.Entry(s.world.Create(Actor, Script, Telemetry))
		Actor.Set(entry, &ActorData{Body: b})
		Script.Set(entry, &script)
		Telemetry.Set(entry, &TelemetryData{Start: pos, Last: pos})
		s.log.Debug("Actor placed", "actor", a.Name, "x", pos.X(), "y", pos.Y(), "z", pos.Z(), "yaw", yaw)
	}
	return s, nil
}

// placement resolves where actor i starts: explicit position, then named
// spawn, then the arena spawns in order, then the arena center.
func placement(t *physics.Terrain, spawns []arena.Spawn, a config.ActorScript, i int) (physics.Vec3, float64, error) {
	switch len(a.Position) {
	case 3:
		return physics.Vec3{a.Position[0], a.Position[1], a.Position[2]}, a.Yaw, nil
	case 2:
		sp := arena.Spawn{X: a.Position[0], Z: a.Position[1]}
		return arena.SpawnPosition(t, sp, physics.DefaultHalfHeight), a.Yaw, nil
	}

	var sp arena.Spawn
	switch {
	case a.Spawn != "":
		found := false
		for _, c := range spawns {
			if c.Name == a.Spawn {
				sp, found = c, true
				break
			}
		}
		if !found {
			return physics.Vec3{}, 0, fmt.Errorf("actor %s: unknown spawn %q", a.Name, a.Spawn)
		}
	case len(spawns) > 0:
		sp = spawns[i%len(spawns)]
	default:
		sp = arena.Spawn{X: t.Width() / 2, Z: t.Depth() / 2}
	}

	yaw := sp.Yaw
	if a.Yaw != 0 {
		yaw = a.Yaw
	}
	return arena.SpawnPosition(t, sp, physics.DefaultHalfHeight), yaw, nil
}

type actorRef struct {
	body      *body.Body
	script    *ScriptData
	telemetry *TelemetryData
}

// actors lists the world's actors sorted by name so every phase visits them
// in the same order.
func (s *Sim) actors() []actorRef {
	var refs []actorRef
	Actor.Each(s.world, func(e *donburi.Entry) {
		refs = append(refs, actorRef{
			body:      Actor.Get(e).Body,
			script:    Script.Get(e),
			telemetry: Telemetry.Get(e),
		})
	})
	sort.Slice(refs, func(i, j int) bool { return refs[i].body.Name() < refs[j].body.Name() })
	return refs
}

// Run steps until the scenario duration has elapsed or ctx is done.
func (s *Sim) Run(ctx context.Context) (*Report, error) {
	s.log.Info("Simulation started", "scenario", s.name, "arena", s.arena, "duration", s.duration)
	for s.clock.Now() < s.duration {
		if err := s.Step(ctx); err != nil {
			return s.Report(), err
		}
	}
	if d := s.clock.Dropped(); d > 0 {
		s.log.Warn("Fixed ticks dropped", "time", d)
	}
	s.log.Info("Simulation finished", "frames", s.frames, "ticks", s.ticks)
	return s.Report(), nil
}

// Step runs one frame: the fixed ticks that are due, each followed by actor
// separation, then the frame update driven by every actor's script.
func (s *Sim) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	refs := s.actors()
	frame, ticks := s.clock.Next()

	for _, t := range ticks {
		if err := parallel(ctx, refs, func(a actorRef) error {
			return a.body.Fixed(t)
		}); err != nil {
			return fmt.Errorf("fixed tick at %s: %w", t.Now, err)
		}
		separate(refs)
		s.ticks++
	}

	if err := parallel(ctx, refs, func(a actorRef) error {
		cmd := a.script.Sample(frame.Now, frame.Delta)
		if cmd.SetYaw != nil {
			a.body.SetYaw(*cmd.SetYaw)
		}
		if cmd.Turn != 0 {
			a.body.Turn(cmd.Turn)
		}
		return a.body.Frame(frame, cmd.Actions, cmd.Horizontal, cmd.Vertical)
	}); err != nil {
		return fmt.Errorf("frame at %s: %w", frame.Now, err)
	}

	for _, a := range refs {
		a.telemetry.record(a.body.Snapshot(), frame.Delta)
	}
	s.frames++
	return nil
}

func parallel(ctx context.Context, refs []actorRef, fn func(actorRef) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(a)
		})
	}
	return g.Wait()
}

// separate eases overlapping actors apart. Colliders are snapshotted first so
// the result does not depend on visiting order.
func separate(refs []actorRef) {
	if len(refs) < 2 {
		return
	}
	colliders := make([]physics.Collider, len(refs))
	for i, a := range refs {
		colliders[i] = a.body.Collider()
		colliders[i].Rank = i
	}
	others := make([]physics.Collider, 0, len(refs)-1)
	for i, a := range refs {
		others = others[:0]
		others = append(others, colliders[:i]...)
		others = append(others, colliders[i+1:]...)
		a.body.Nudge(physics.SeparationPush(colliders[i], others))
	}
}

func (t *TelemetryData) record(s body.Snapshot, delta time.Duration) {
	step := locomotion.Horizontal(s.Position.Sub(t.Last)).Len()
	t.Distance += step
	t.Last = s.Position
	if v := s.HorizontalSpeed(); v > t.MaxSpeed {
		t.MaxSpeed = v
	}
	if s.Locomotion.State == locomotion.Airborne {
		t.Airtime += delta
	}
}

// Terrain is the arena the actors move in.
func (s *Sim) Terrain() *physics.Terrain { return s.terrain }

// Body returns the named actor, or nil.
func (s *Sim) Body(name string) *body.Body {
	for _, a := range s.actors() {
		if a.body.Name() == name {
			return a.body
		}
	}
	return nil
}
