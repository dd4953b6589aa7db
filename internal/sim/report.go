package sim

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Versifine/stride/internal/event"
	"github.com/Versifine/stride/internal/locomotion"
	"github.com/Versifine/stride/internal/physics"
)

type Report struct {
	Scenario string
	Arena    string
	Elapsed  time.Duration
	Frames   int
	Ticks    int
	Actors   []ActorReport
}

type ActorReport struct {
	Name     string
	State    locomotion.MovementState
	Final    physics.Vec3
	Distance float64
	MaxSpeed float64
	Airtime  time.Duration
	Jumps    int
	Dodges   int
	Blocked  int
	Crouches int
	Changes  int
}

// Report summarizes the run so far, actors sorted by name.
func (s *Sim) Report() *Report {
	r := &Report{
		Scenario: s.name,
		Arena:    s.arena,
		Elapsed:  s.clock.Now(),
		Frames:   s.frames,
		Ticks:    s.ticks,
	}
	for _, a := range s.actors() {
		snap := a.body.Snapshot()
		c := s.events.get(snap.Name)
		r.Actors = append(r.Actors, ActorReport{
			Name:     snap.Name,
			State:    snap.Locomotion.State,
			Final:    snap.Position,
			Distance: a.telemetry.Distance,
			MaxSpeed: a.telemetry.MaxSpeed,
			Airtime:  a.telemetry.Airtime,
			Jumps:    c.jumps,
			Dodges:   c.dodges,
			Blocked:  c.blocked,
			Crouches: c.crouches,
			Changes:  c.changes,
		})
	}
	return r
}

func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "scenario %s on %s: %s, %d frames, %d ticks\n",
		r.Scenario, r.Arena, r.Elapsed, r.Frames, r.Ticks); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTOR\tSTATE\tX\tY\tZ\tDIST\tMAX SPEED\tAIR\tJUMPS\tDODGES\tBLOCKED\tCROUCHES")
	for _, a := range r.Actors {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%d\t%d\t%d\t%d\n",
			a.Name, a.State, a.Final.X(), a.Final.Y(), a.Final.Z(),
			a.Distance, a.MaxSpeed, a.Airtime.Round(time.Millisecond),
			a.Jumps, a.Dodges, a.Blocked, a.Crouches)
	}
	return tw.Flush()
}

type eventCounts struct {
	jumps    int
	dodges   int
	blocked  int
	crouches int
	changes  int
}

// eventCounter tallies bus events per actor. Handlers run on whichever
// goroutine steps the publishing actor.
type eventCounter struct {
	mu     sync.Mutex
	counts map[string]*eventCounts
}

func newEventCounter(bus *event.Bus) *eventCounter {
	c := &eventCounter{counts: make(map[string]*eventCounts)}
	bus.Subscribe(event.EventJump, func(raw any) {
		if evt, ok := raw.(event.JumpEvent); ok {
			c.add(evt.Actor, func(n *eventCounts) { n.jumps++ })
		}
	})
	bus.Subscribe(event.EventDodgeStart, func(raw any) {
		if evt, ok := raw.(event.DodgeEvent); ok {
			c.add(evt.Actor, func(n *eventCounts) {
				n.dodges++
				if evt.Blocked {
					n.blocked++
				}
			})
		}
	})
	bus.Subscribe(event.EventCrouchStart, func(raw any) {
		// Standing back up also starts a transition; only count the way down.
		if evt, ok := raw.(event.CrouchEvent); ok && evt.Down {
			c.add(evt.Actor, func(n *eventCounts) { n.crouches++ })
		}
	})
	bus.Subscribe(event.EventStateChange, func(raw any) {
		if evt, ok := raw.(event.StateChangeEvent); ok {
			c.add(evt.Actor, func(n *eventCounts) { n.changes++ })
		}
	})
	return c
}

func (c *eventCounter) add(actor string, fn func(*eventCounts)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.counts[actor]
	if !ok {
		n = &eventCounts{}
		c.counts[actor] = n
	}
	fn(n)
}

func (c *eventCounter) get(actor string) eventCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.counts[actor]; ok {
		return *n
	}
	return eventCounts{}
}
