// Package arena describes the static level an actor moves through and turns
// it into physics terrain.
package arena

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"path"
	"strings"

	"github.com/Versifine/stride/internal/locomotion"
	"github.com/Versifine/stride/internal/physics"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown arena format")

// Spec is a YAML-friendly arena. X runs east, Z runs south, both in meters
// from the arena origin.
type Spec struct {
	Name        string     `yaml:"name"`
	Width       float64    `yaml:"width"`
	Depth       float64    `yaml:"depth"`
	GroundY     float64    `yaml:"ground_y"`
	GroundLayer uint32     `yaml:"ground_layer"`
	Walls       []WallSpec `yaml:"walls"`
	Ramps       []RampSpec `yaml:"ramps"`
	Spawns      []Spawn    `yaml:"spawns"`
}

type WallSpec struct {
	Name   string  `yaml:"name"`
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Width  float64 `yaml:"width"`
	Depth  float64 `yaml:"depth"`
	Height float64 `yaml:"height"`
	BaseY  float64 `yaml:"base_y"`
	Layer  uint32  `yaml:"layer"`
}

// RampSpec rises along Along ("x" or "z", default "z"). Rise wins over Angle
// when both are set.
type RampSpec struct {
	Name  string  `yaml:"name"`
	X     float64 `yaml:"x"`
	Z     float64 `yaml:"z"`
	Width float64 `yaml:"width"`
	Depth float64 `yaml:"depth"`
	BaseY float64 `yaml:"base_y"`
	Rise  float64 `yaml:"rise"`
	Angle float64 `yaml:"angle"`
	Along string  `yaml:"along"`
	Layer uint32  `yaml:"layer"`
}

type Spawn struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Z    float64 `yaml:"z"`
	Yaw  float64 `yaml:"yaw"`
}

// Build validates s and indexes its geometry.
func (s Spec) Build() (*physics.Terrain, error) {
	layout := physics.Layout{
		Width:       s.Width,
		Depth:       s.Depth,
		GroundY:     s.GroundY,
		GroundLayer: locomotion.LayerMask(s.GroundLayer),
	}
	for _, w := range s.Walls {
		h := w.Height
		if h == 0 {
			h = 1
		}
		layout.Walls = append(layout.Walls, physics.Wall{
			Name: w.Name,
			Box: physics.Box(
				physics.Vec3{w.X, s.GroundY + w.BaseY, w.Z},
				physics.Vec3{w.X + w.Width, s.GroundY + w.BaseY + h, w.Z + w.Depth},
			),
			Layer: locomotion.LayerMask(w.Layer),
		})
	}

	var errs []error
	for _, r := range s.Ramps {
		ramp, err := r.toRamp(s.GroundY)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		layout.Ramps = append(layout.Ramps, ramp)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("arena %q: %w", s.Name, errors.Join(errs...))
	}

	t, err := physics.NewTerrain(layout)
	if err != nil {
		return nil, fmt.Errorf("arena %q: %w", s.Name, err)
	}
	return t, nil
}

func (r RampSpec) toRamp(groundY float64) (physics.Ramp, error) {
	ramp := physics.Ramp{
		Name:  r.Name,
		MinX:  r.X,
		MinZ:  r.Z,
		MaxX:  r.X + r.Width,
		MaxZ:  r.Z + r.Depth,
		BaseY: groundY + r.BaseY,
		Rise:  r.Rise,
		Layer: locomotion.LayerMask(r.Layer),
	}

	length := r.Depth
	switch strings.ToLower(r.Along) {
	case "", "z":
		ramp.Along = physics.AxisZ
	case "x":
		ramp.Along = physics.AxisX
		length = r.Width
	default:
		return physics.Ramp{}, fmt.Errorf("ramp %q: along must be x or z, got %q", r.Name, r.Along)
	}

	if ramp.Rise == 0 && r.Angle != 0 {
		if math.Abs(r.Angle) >= 90 {
			return physics.Ramp{}, fmt.Errorf("ramp %q: angle %v out of range", r.Name, r.Angle)
		}
		ramp.Rise = length * math.Tan(r.Angle*math.Pi/180)
	}
	return ramp, nil
}

// SpawnPosition is the center of an actor of halfHeight standing at sp.
func SpawnPosition(t *physics.Terrain, sp Spawn, halfHeight float64) physics.Vec3 {
	y, _, ok := t.SurfaceAt(sp.X, sp.Z, math.Inf(1))
	if !ok {
		y = t.GroundY()
	}
	return physics.Vec3{sp.X, y + halfHeight, sp.Z}
}

// Default is a small training yard: a 30 degree ramp up to a platform, a
// steep 60 degree ramp, a low curb and a wall to dodge into.
func Default() Spec {
	return Spec{
		Name:  "yard",
		Width: 40,
		Depth: 40,
		Walls: []WallSpec{
			{Name: "platform", X: 4, Z: 22, Width: 8, Depth: 6, Height: 10 * math.Tan(30*math.Pi/180)},
			{Name: "wall", X: 26, Z: 4, Width: 1, Depth: 20, Height: 3},
			{Name: "curb", X: 14, Z: 30, Width: 10, Depth: 2, Height: 0.2},
		},
		Ramps: []RampSpec{
			{Name: "ramp30", X: 4, Z: 12, Width: 8, Depth: 10, Angle: 30},
			{Name: "ramp60", X: 32, Z: 12, Width: 6, Depth: 4, Angle: 60},
		},
		Spawns: []Spawn{
			{Name: "p1", X: 8, Z: 4},
			{Name: "p2", X: 20, Z: 10, Yaw: 90},
		},
	}
}

// Load reads an arena from fsys by extension: .tmx through LoadTMX, .yaml or
// .yml as a Spec document.
func Load(fsys fs.FS, name string) (Spec, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".tmx":
		return LoadTMX(fsys, name)
	case ".yaml", ".yml":
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return Spec{}, fmt.Errorf("read arena %s: %w", name, err)
		}
		var s Spec
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Spec{}, fmt.Errorf("parse arena %s: %w", name, err)
		}
		if s.Name == "" {
			s.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		return s, nil
	default:
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}
