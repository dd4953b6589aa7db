package physics

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Versifine/stride/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

var ErrInvalidTerrain = errors.New("invalid terrain")

// DefaultLayer is used for any surface that does not name one.
const DefaultLayer locomotion.LayerMask = 1

const (
	tagWall  = "wall"
	tagProbe = "probe"

	// probePad widens the segment footprint by one space unit on each side
	// so an axis-aligned segment still covers a row of cells.
	probePad = 1
)

// Wall is a solid box. Its top is also a walkable surface.
type Wall struct {
	Name  string
	Box   AABB
	Layer locomotion.LayerMask
}

type Axis int

const (
	AxisX Axis = iota
	AxisZ
)

// Ramp is an inclined rectangle rising by Rise over its extent along Along.
// A negative Rise descends.
type Ramp struct {
	Name       string
	MinX, MinZ float64
	MaxX, MaxZ float64
	BaseY      float64
	Rise       float64
	Along      Axis
	Layer      locomotion.LayerMask
}

func (r Ramp) length() float64 {
	if r.Along == AxisX {
		return r.MaxX - r.MinX
	}
	return r.MaxZ - r.MinZ
}

func (r Ramp) contains(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// HeightAt is the surface height at (x, z). Callers check containment.
func (r Ramp) HeightAt(x, z float64) float64 {
	t := (z - r.MinZ) / r.length()
	if r.Along == AxisX {
		t = (x - r.MinX) / r.length()
	}
	return r.BaseY + r.Rise*mgl64.Clamp(t, 0, 1)
}

// Angle is the incline in degrees.
func (r Ramp) Angle() float64 {
	return mgl64.RadToDeg(math.Atan2(math.Abs(r.Rise), r.length()))
}

func (r Ramp) Normal() Vec3 {
	sin, cos := math.Sincos(math.Atan2(r.Rise, r.length()))
	if r.Along == AxisX {
		return Vec3{-sin, cos, 0}
	}
	return Vec3{0, cos, -sin}
}

// Layout describes static geometry before it is indexed.
type Layout struct {
	Width       float64
	Depth       float64
	GroundY     float64
	GroundLayer locomotion.LayerMask
	Walls       []Wall
	Ramps       []Ramp
}

// Terrain is static collision geometry: an infinite ground plane, ramps and
// box walls. It implements locomotion.Prober and is safe for concurrent
// queries.
type Terrain struct {
	width       float64
	depth       float64
	groundY     float64
	groundLayer locomotion.LayerMask
	walls       []Wall
	ramps       []Ramp

	mu    sync.Mutex
	space *resolv.Space
	probe *resolv.Object
}

func NewTerrain(l Layout) (*Terrain, error) {
	if !(l.Width > 0 && l.Depth > 0) {
		return nil, fmt.Errorf("%w: size %vx%v must be positive", ErrInvalidTerrain, l.Width, l.Depth)
	}

	t := &Terrain{
		width:       l.Width,
		depth:       l.Depth,
		groundY:     l.GroundY,
		groundLayer: orDefaultLayer(l.GroundLayer),
		walls:       make([]Wall, 0, len(l.Walls)),
		ramps:       make([]Ramp, 0, len(l.Ramps)),
		space:       resolv.NewSpace(spaceExtent(l.Width), spaceExtent(l.Depth), spaceCellSize, spaceCellSize),
	}

	var errs []error
	for i, w := range l.Walls {
		w.Box = Box(w.Box.Min, w.Box.Max)
		w.Layer = orDefaultLayer(w.Layer)
		size := w.Box.Size()
		switch {
		case size[0] <= 0 || size[1] <= 0 || size[2] <= 0:
			errs = append(errs, fmt.Errorf("wall %d %q: degenerate box %v", i, w.Name, size))
			continue
		case w.Box.Min[0] < 0 || w.Box.Min[2] < 0 || w.Box.Max[0] > l.Width || w.Box.Max[2] > l.Depth:
			errs = append(errs, fmt.Errorf("wall %d %q: outside %vx%v arena", i, w.Name, l.Width, l.Depth))
			continue
		}

		x, z := toSpace(w.Box.Min[0]), toSpace(w.Box.Min[2])
		sw, sd := toSpace(size[0]), toSpace(size[2])
		obj := resolv.NewObject(x, z, sw, sd, tagWall)
		obj.SetShape(resolv.NewRectangle(0, 0, sw, sd))
		obj.Data = len(t.walls)
		t.space.Add(obj)
		t.walls = append(t.walls, w)
	}
	for i, r := range l.Ramps {
		r.Layer = orDefaultLayer(r.Layer)
		if !(r.MaxX > r.MinX && r.MaxZ > r.MinZ) {
			errs = append(errs, fmt.Errorf("ramp %d %q: empty footprint", i, r.Name))
			continue
		}
		if a := r.Angle(); a >= 90 {
			errs = append(errs, fmt.Errorf("ramp %d %q: vertical incline", i, r.Name))
			continue
		}
		t.ramps = append(t.ramps, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTerrain, errors.Join(errs...))
	}

	t.probe = resolv.NewObject(0, 0, probePad, probePad, tagProbe)
	t.space.Add(t.probe)
	return t, nil
}

// spaceExtent rounds up to whole cells plus one so edge-aligned walls still
// land in a cell.
func spaceExtent(size float64) int {
	cells := int(math.Ceil(toSpace(size)/spaceCellSize)) + 1
	return cells * spaceCellSize
}

// toSpace converts meters to resolv space units.
func toSpace(m float64) float64 { return m * spaceScale }

func orDefaultLayer(l locomotion.LayerMask) locomotion.LayerMask {
	if l == 0 {
		return DefaultLayer
	}
	return l
}

func (t *Terrain) Width() float64  { return t.width }
func (t *Terrain) Depth() float64  { return t.depth }
func (t *Terrain) GroundY() float64 { return t.groundY }
func (t *Terrain) Walls() []Wall    { return append([]Wall(nil), t.walls...) }
func (t *Terrain) Ramps() []Ramp    { return append([]Ramp(nil), t.ramps...) }

// SurfaceAt returns the highest walkable surface at (x, z) no higher than
// limit, on any layer.
func (t *Terrain) SurfaceAt(x, z, limit float64) (float64, Vec3, bool) {
	return t.surfaceBelow(x, z, limit, locomotion.AllLayers)
}

func (t *Terrain) surfaceBelow(x, z, limit float64, mask locomotion.LayerMask) (float64, Vec3, bool) {
	best := math.Inf(-1)
	var normal Vec3
	consider := func(y float64, n Vec3, layer locomotion.LayerMask) {
		if layer&mask == 0 || y > limit+CollisionAxisTolerance || y <= best {
			return
		}
		best, normal = y, n
	}

	consider(t.groundY, locomotion.WorldUp, t.groundLayer)
	for _, r := range t.ramps {
		if r.contains(x, z) {
			consider(r.HeightAt(x, z), r.Normal(), r.Layer)
		}
	}
	for _, w := range t.walls {
		if w.Box.containsXZ(x, z) {
			consider(w.Box.Max[1], locomotion.WorldUp, w.Layer)
		}
	}

	if math.IsInf(best, -1) {
		return 0, Vec3{}, false
	}
	return best, normal, true
}

// CastDown finds the first surface straight below origin.
func (t *Terrain) CastDown(origin Vec3, maxDistance float64, mask locomotion.LayerMask) (locomotion.Hit, bool) {
	y, n, ok := t.surfaceBelow(origin[0], origin[2], origin[1], mask)
	if !ok {
		return locomotion.Hit{}, false
	}
	dist := math.Max(origin[1]-y, 0)
	if dist > maxDistance {
		return locomotion.Hit{}, false
	}
	return locomotion.Hit{Distance: dist, Normal: n}, true
}

// Cast finds the nearest wall face along direction. Walls containing origin
// are not reported.
func (t *Terrain) Cast(origin, direction Vec3, maxDistance float64, mask locomotion.LayerMask) (locomotion.Hit, bool) {
	dir := locomotion.NormalizeOrZero(direction)
	if dir == (Vec3{}) || maxDistance <= 0 {
		return locomotion.Hit{}, false
	}

	best := locomotion.Hit{Distance: math.Inf(1)}
	found := false
	for _, i := range t.candidates(origin, origin.Add(dir.Mul(maxDistance))) {
		w := t.walls[i]
		if w.Layer&mask == 0 {
			continue
		}
		d, n, ok := rayBox(origin, dir, w.Box, maxDistance)
		if ok && d < best.Distance {
			best = locomotion.Hit{Distance: d, Normal: n}
			found = true
		}
	}
	return best, found
}

// candidates returns indexes of walls whose cells overlap the XZ footprint of
// the segment from a to b.
func (t *Terrain) candidates(a, b Vec3) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	minX, maxX := toSpace(math.Min(a[0], b[0])), toSpace(math.Max(a[0], b[0]))
	minZ, maxZ := toSpace(math.Min(a[2], b[2])), toSpace(math.Max(a[2], b[2]))
	t.probe.X, t.probe.Y = minX-probePad, minZ-probePad
	t.probe.W, t.probe.H = maxX-minX+2*probePad, maxZ-minZ+2*probePad
	t.probe.Update()

	check := t.probe.Check(0, 0, tagWall)
	if check == nil {
		return nil
	}
	out := make([]int, 0, len(check.Objects))
	for _, obj := range check.Objects {
		if i, ok := obj.Data.(int); ok {
			out = append(out, i)
		}
	}
	return out
}
