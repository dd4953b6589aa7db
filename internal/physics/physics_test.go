package physics

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/Versifine/stride/internal/locomotion"
)

const (
	groundLayer locomotion.LayerMask = 1
	rampLayer   locomotion.LayerMask = 2
)

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func vecNear(a, b Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func mustTerrain(t *testing.T, l Layout) *Terrain {
	t.Helper()
	terrain, err := NewTerrain(l)
	if err != nil {
		t.Fatalf("NewTerrain: %v", err)
	}
	return terrain
}

func flatTerrain(t *testing.T, walls ...Wall) *Terrain {
	return mustTerrain(t, Layout{Width: 20, Depth: 20, Walls: walls})
}

func rampTerrain(t *testing.T) *Terrain {
	return mustTerrain(t, Layout{
		Width:       20,
		Depth:       20,
		GroundLayer: groundLayer,
		Ramps: []Ramp{{
			Name: "ramp",
			MinX: 0, MaxX: 20,
			MinZ: 5, MaxZ: 15,
			Rise:  5,
			Along: AxisZ,
			Layer: rampLayer,
		}},
	})
}

func stepN(b *Body, terrain *Terrain, n int, dt float64) {
	for i := 0; i < n; i++ {
		b.Step(dt, terrain)
	}
}

func TestBody_FreeFallOneStep(t *testing.T) {
	b := NewBody(Vec3{5, 10, 5})

	b.Step(0.02, nil)

	approxEqual(t, b.Velocity().Y(), -Gravity*0.02, 1e-12, "velocity.y")
	approxEqual(t, b.Position().Y(), 10-Gravity*0.02*0.02, 1e-12, "position.y")
	if b.Grounded() {
		t.Fatal("grounded = true, want false")
	}
}

func TestBody_ForceModes(t *testing.T) {
	tests := []struct {
		name  string
		mode  locomotion.ForceMode
		wantX float64
	}{
		{"continuous force scales by mass and dt", locomotion.ForceContinuous, 2.5},
		{"impulse scales by mass", locomotion.ForceImpulse, 5},
		{"velocity change ignores mass", locomotion.ForceVelocityChange, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBody(Vec3{}, WithMass(2))
			b.SetUseGravity(false)

			b.AddForce(Vec3{10, 0, 0}, tt.mode)
			if b.Velocity() != (Vec3{}) {
				t.Fatalf("velocity before step = %v, want zero", b.Velocity())
			}
			b.Step(0.5, nil)

			approxEqual(t, b.Velocity().X(), tt.wantX, 1e-12, "velocity.x")

			b.Step(0.5, nil)
			approxEqual(t, b.Velocity().X(), tt.wantX, 1e-12, "velocity.x after second step")
		})
	}
}

func TestBody_Drag(t *testing.T) {
	tests := []struct {
		name  string
		drag  float64
		wantX float64
	}{
		{"no drag", 0, 10},
		{"partial damping", 4, 6},
		{"damping floors at zero", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBody(Vec3{})
			b.SetUseGravity(false)
			b.SetVelocity(Vec3{10, 0, 0})
			b.SetDrag(tt.drag)

			b.Step(0.1, nil)

			approxEqual(t, b.Velocity().X(), tt.wantX, 1e-12, "velocity.x")
		})
	}
}

func TestBody_NegativeDragClamped(t *testing.T) {
	b := NewBody(Vec3{})
	b.SetDrag(-3)
	if b.Drag() != 0 {
		t.Fatalf("drag = %v, want 0", b.Drag())
	}
}

func TestBody_RestsOnGround(t *testing.T) {
	terrain := flatTerrain(t)
	b := NewBody(Vec3{5, 1, 5})

	stepN(b, terrain, 10, 0.02)

	approxEqual(t, b.Position().Y(), 1, 1e-12, "position.y")
	approxEqual(t, b.Velocity().Y(), 0, 1e-12, "velocity.y")
	if !b.Grounded() {
		t.Fatal("grounded = false, want true")
	}
}

func TestBody_LandsFromFall(t *testing.T) {
	terrain := flatTerrain(t)
	b := NewBody(Vec3{5, 3, 5})

	stepN(b, terrain, 100, 0.02)

	approxEqual(t, b.Position().Y(), 1, 1e-12, "position.y")
	if !b.Grounded() {
		t.Fatal("grounded = false after landing")
	}
}

func TestBody_CrouchedColliderSitsLower(t *testing.T) {
	terrain := flatTerrain(t)
	b := NewBody(Vec3{5, 1, 5})
	b.SetScaleY(0.5)

	stepN(b, terrain, 50, 0.02)

	approxEqual(t, b.Position().Y(), 0.5, 1e-9, "position.y")
}

func TestBody_WallStopsHorizontalMovement(t *testing.T) {
	terrain := flatTerrain(t, Wall{Name: "wall", Box: Box(Vec3{10, 0, 0}, Vec3{11, 3, 20})})
	b := NewBody(Vec3{9, 1, 5})
	b.SetVelocity(Vec3{10, 0, 0})

	stepN(b, terrain, 20, 0.02)

	approxEqual(t, b.Position().X(), 9.5, 1e-9, "position.x")
	approxEqual(t, b.Velocity().X(), 0, 1e-12, "velocity.x")
}

func TestBody_StepsOntoLowLedge(t *testing.T) {
	terrain := flatTerrain(t, Wall{Name: "curb", Box: Box(Vec3{10, 0, 0}, Vec3{15, 0.2, 20})})
	b := NewBody(Vec3{9, 1, 5})
	b.SetVelocity(Vec3{5, 0, 0})

	stepN(b, terrain, 30, 0.02)

	if b.Position().X() < 11 {
		t.Fatalf("position.x = %v, want past the curb edge", b.Position().X())
	}
	approxEqual(t, b.Position().Y(), 1.2, 1e-9, "position.y")
	if !b.Grounded() {
		t.Fatal("grounded = false on ledge")
	}
}

func TestBody_FollowsRamp(t *testing.T) {
	terrain := rampTerrain(t)
	ramp := terrain.Ramps()[0]
	b := NewBody(Vec3{10, 1, 5})
	b.SetVelocity(Vec3{0, 0, 2})

	stepN(b, terrain, 50, 0.02)

	pos := b.Position()
	approxEqual(t, pos.Y(), ramp.HeightAt(pos.X(), pos.Z())+1, 1e-9, "position.y")
	if !b.Grounded() {
		t.Fatal("grounded = false on ramp")
	}
}

func TestResolveMovement_NoWalls(t *testing.T) {
	pos, blocked := ResolveMovement(Vec3{1, 2, 3}, Vec3{0.5, -0.5, 0.25}, 0.5, 1, nil)
	if pos != (Vec3{1.5, 1.5, 3.25}) {
		t.Fatalf("pos = %v", pos)
	}
	if blocked != [3]bool{} {
		t.Fatalf("blocked = %v, want none", blocked)
	}
}

func TestResolveMovement_LandsOnWallTop(t *testing.T) {
	walls := []Wall{{Box: Box(Vec3{0, 0, 0}, Vec3{4, 2, 4})}}

	pos, blocked := ResolveMovement(Vec3{2, 3.05, 2}, Vec3{0, -0.5, 0}, 0.5, 1, walls)

	approxEqual(t, pos.Y(), 3, 1e-12, "position.y")
	if !blocked[1] {
		t.Fatal("y axis not blocked")
	}
}

func TestRamp_Geometry(t *testing.T) {
	r := Ramp{MinX: 0, MaxX: 4, MinZ: 0, MaxZ: 10, Rise: 10, Along: AxisZ}

	approxEqual(t, r.Angle(), 45, 1e-9, "angle")
	approxEqual(t, r.HeightAt(2, 5), 5, 1e-12, "height mid")
	approxEqual(t, r.HeightAt(2, 20), 10, 1e-12, "height clamps")
	n := r.Normal()
	approxEqual(t, n.Len(), 1, 1e-12, "normal length")
	approxEqual(t, locomotion.AngleBetween(locomotion.WorldUp, n), 45, 1e-9, "normal angle")
	if n.Z() >= 0 {
		t.Fatalf("normal %v should lean toward -Z for a ramp rising along +Z", n)
	}

	x := Ramp{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 4, Rise: -5, Along: AxisX}
	if x.Normal().X() <= 0 {
		t.Fatalf("descending X ramp normal %v should lean toward +X", x.Normal())
	}
}

func TestTerrain_CastDown(t *testing.T) {
	terrain := rampTerrain(t)
	withWall := mustTerrain(t, Layout{
		Width: 20, Depth: 20,
		Walls: []Wall{{Box: Box(Vec3{2, 0, 2}, Vec3{4, 1.5, 4})}},
	})

	tests := []struct {
		name      string
		terrain   *Terrain
		origin    Vec3
		max       float64
		mask      locomotion.LayerMask
		wantHit   bool
		wantDist  float64
		wantAngle float64
	}{
		{"flat ground", terrain, Vec3{10, 1, 2}, 1.2, locomotion.AllLayers, true, 1, 0},
		{"out of reach", terrain, Vec3{10, 3, 2}, 1.2, locomotion.AllLayers, false, 0, 0},
		{"ramp surface", terrain, Vec3{10, 3, 10}, 1.2, locomotion.AllLayers, true, 0.5, math.Atan2(5, 10) * 180 / math.Pi},
		{"mask skips ramp", terrain, Vec3{10, 3, 10}, 5, groundLayer, true, 3, 0},
		{"mask skips everything", terrain, Vec3{10, 1, 2}, 5, 4, false, 0, 0},
		{"wall top", withWall, Vec3{3, 2.5, 3}, 1.2, locomotion.AllLayers, true, 1, 0},
		{"below the origin only", withWall, Vec3{3, 1, 3}, 1.2, locomotion.AllLayers, true, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := tt.terrain.CastDown(tt.origin, tt.max, tt.mask)
			if ok != tt.wantHit {
				t.Fatalf("hit = %t, want %t", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			approxEqual(t, hit.Distance, tt.wantDist, 1e-9, "distance")
			approxEqual(t, locomotion.AngleBetween(locomotion.WorldUp, hit.Normal), tt.wantAngle, 1e-9, "angle")
		})
	}
}

func TestTerrain_Cast(t *testing.T) {
	terrain := mustTerrain(t, Layout{
		Width: 30, Depth: 30,
		Walls: []Wall{
			{Name: "near", Box: Box(Vec3{10, 0, 0}, Vec3{11, 3, 30})},
			{Name: "far", Box: Box(Vec3{20, 0, 0}, Vec3{21, 3, 30})},
			{Name: "glass", Box: Box(Vec3{0, 0, 10}, Vec3{8, 3, 11}), Layer: rampLayer},
		},
	})

	tests := []struct {
		name       string
		origin     Vec3
		dir        Vec3
		max        float64
		mask       locomotion.LayerMask
		wantHit    bool
		wantDist   float64
		wantNormal Vec3
	}{
		{"straight at near wall", Vec3{5, 1, 5}, Vec3{1, 0, 0}, 10, locomotion.AllLayers, true, 5, Vec3{-1, 0, 0}},
		{"short of the wall", Vec3{5, 1, 5}, Vec3{1, 0, 0}, 4, locomotion.AllLayers, false, 0, Vec3{}},
		{"facing away", Vec3{5, 1, 5}, Vec3{-1, 0, 0}, 10, locomotion.AllLayers, false, 0, Vec3{}},
		{"unnormalized direction", Vec3{5, 1, 5}, Vec3{3, 0, 0}, 10, locomotion.AllLayers, true, 5, Vec3{-1, 0, 0}},
		{"diagonal", Vec3{5, 1, 15}, Vec3{1, 0, 1}, 10, locomotion.AllLayers, true, 5 * math.Sqrt2, Vec3{-1, 0, 0}},
		{"between walls hits far", Vec3{15, 1, 5}, Vec3{1, 0, 0}, 10, locomotion.AllLayers, true, 5, Vec3{-1, 0, 0}},
		{"back face", Vec3{15, 1, 5}, Vec3{-1, 0, 0}, 10, locomotion.AllLayers, true, 4, Vec3{1, 0, 0}},
		{"layer filtered", Vec3{5, 1, 5}, Vec3{0, 0, 1}, 10, groundLayer, false, 0, Vec3{}},
		{"layer matched", Vec3{5, 1, 5}, Vec3{0, 0, 1}, 10, rampLayer, true, 5, Vec3{0, 0, -1}},
		{"inside a wall", Vec3{10.5, 1, 5}, Vec3{1, 0, 0}, 5, locomotion.AllLayers, false, 0, Vec3{}},
		{"over the top", Vec3{5, 4, 5}, Vec3{1, 0, 0}, 10, locomotion.AllLayers, false, 0, Vec3{}},
		{"zero direction", Vec3{5, 1, 5}, Vec3{}, 10, locomotion.AllLayers, false, 0, Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := terrain.Cast(tt.origin, tt.dir, tt.max, tt.mask)
			if ok != tt.wantHit {
				t.Fatalf("hit = %t (%+v), want %t", ok, hit, tt.wantHit)
			}
			if !ok {
				return
			}
			approxEqual(t, hit.Distance, tt.wantDist, 1e-9, "distance")
			if !vecNear(hit.Normal, tt.wantNormal, 1e-9) {
				t.Fatalf("normal = %v, want %v", hit.Normal, tt.wantNormal)
			}
		})
	}
}

func TestTerrain_CastConcurrent(t *testing.T) {
	terrain := flatTerrain(t, Wall{Box: Box(Vec3{10, 0, 0}, Vec3{11, 3, 20})})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(z float64) {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				hit, ok := terrain.Cast(Vec3{5, 1, z}, Vec3{1, 0, 0}, 10, locomotion.AllLayers)
				if !ok || math.Abs(hit.Distance-5) > 1e-9 {
					t.Errorf("Cast from z=%v = %+v, %t", z, hit, ok)
					return
				}
			}
		}(float64(i) + 0.5)
	}
	wg.Wait()
}

func TestTerrain_CastAcrossCells(t *testing.T) {
	terrain := flatTerrain(t,
		Wall{Name: "slab", Box: Box(Vec3{10, 0, 0}, Vec3{11, 3, 20})},
		Wall{Name: "rail", Box: Box(Vec3{0, 0, 14}, Vec3{9, 1, 14.2})},
	)

	tests := []struct {
		name     string
		origin   func(s float64) Vec3
		dir      Vec3
		wantDist func(s float64) float64
	}{
		{"east onto slab", func(s float64) Vec3 { return Vec3{5, 2, s} }, Vec3{1, 0, 0}, func(float64) float64 { return 5 }},
		{"west onto slab", func(s float64) Vec3 { return Vec3{16, 2, s} }, Vec3{-1, 0, 0}, func(float64) float64 { return 5 }},
		{"north onto thin rail", func(s float64) Vec3 { return Vec3{s * 0.45, 0.5, 10} }, Vec3{0, 0, 1}, func(float64) float64 { return 4 }},
		{"diagonal onto slab", func(s float64) Vec3 { return Vec3{7, 2, s} }, Vec3{1, 0, 1},
			func(float64) float64 { return 3 * math.Sqrt2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// s walks through every cell boundary and the points between them.
			for s := 0.25; s < 19.9; s += 0.25 {
				origin := tt.origin(s)
				if tt.name == "diagonal onto slab" && origin[2] > 16 {
					continue
				}
				hit, ok := terrain.Cast(origin, tt.dir, 10, locomotion.AllLayers)
				if !ok {
					t.Fatalf("Cast from %v missed", origin)
				}
				approxEqual(t, hit.Distance, tt.wantDist(s), 1e-9, "distance")
			}
		})
	}
}

func TestNewTerrain_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"zero size", Layout{Width: 0, Depth: 10}},
		{"flat wall", Layout{Width: 10, Depth: 10, Walls: []Wall{{Box: Box(Vec3{1, 0, 1}, Vec3{2, 0, 2})}}}},
		{"wall outside arena", Layout{Width: 10, Depth: 10, Walls: []Wall{{Box: Box(Vec3{8, 0, 8}, Vec3{12, 1, 9})}}}},
		{"empty ramp", Layout{Width: 10, Depth: 10, Ramps: []Ramp{{MinX: 1, MaxX: 1, MinZ: 0, MaxZ: 5, Rise: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTerrain(tt.layout)
			if !errors.Is(err, ErrInvalidTerrain) {
				t.Fatalf("err = %v, want ErrInvalidTerrain", err)
			}
		})
	}
}

func TestTerrain_ImplementsProber(t *testing.T) {
	var _ locomotion.Prober = flatTerrain(t)
	var _ locomotion.RigidBody = NewBody(Vec3{})
}

func TestSeparationPush(t *testing.T) {
	self := Collider{Center: Vec3{0, 1, 0}, HalfWidth: 0.5, HalfHeight: 1}

	tests := []struct {
		name   string
		others []Collider
		want   Vec3
	}{
		{"alone", nil, Vec3{}},
		{"touching only", []Collider{{Center: Vec3{1, 1, 0}, HalfWidth: 0.5, HalfHeight: 1}}, Vec3{}},
		{"overlap capped per actor", []Collider{{Center: Vec3{0.5, 1, 0}, HalfWidth: 0.5, HalfHeight: 1}}, Vec3{-actorPushMaxPerActor, 0, 0}},
		{"small overlap", []Collider{{Center: Vec3{0, 1, 0.9}, HalfWidth: 0.5, HalfHeight: 1}}, Vec3{0, 0, -0.1 * actorPushStrength}},
		{"coincident pushes along x", []Collider{{Center: Vec3{0, 1, 0}, HalfWidth: 0.5, HalfHeight: 1}}, Vec3{actorPushMaxPerActor, 0, 0}},
		{"coincident lower rank pushes back", []Collider{{Center: Vec3{0, 1, 0}, HalfWidth: 0.5, HalfHeight: 1, Rank: 1}}, Vec3{-actorPushMaxPerActor, 0, 0}},
		{"stacked vertically", []Collider{{Center: Vec3{0.2, 3.5, 0}, HalfWidth: 0.5, HalfHeight: 1}}, Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SeparationPush(self, tt.others)
			if !vecNear(got, tt.want, 1e-9) {
				t.Fatalf("push = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeparationPush_TotalCapped(t *testing.T) {
	self := Collider{Center: Vec3{0, 1, 0}, HalfWidth: 0.5, HalfHeight: 1}
	others := []Collider{
		{Center: Vec3{-0.3, 1, 0}, HalfWidth: 0.5, HalfHeight: 1},
		{Center: Vec3{-0.3, 1, 0.1}, HalfWidth: 0.5, HalfHeight: 1},
		{Center: Vec3{-0.3, 1, -0.1}, HalfWidth: 0.5, HalfHeight: 1},
	}

	got := SeparationPush(self, others)

	approxEqual(t, got.Len(), actorPushMaxPerTick, 1e-9, "push length")
	if got.X() <= 0 {
		t.Fatalf("push %v should point away along +X", got)
	}
}
