package locomotion

import "testing"

func TestJumpGate_TriggerAppliesImpulse(t *testing.T) {
	cfg := DefaultConfig()
	body := newFakeBody()
	body.vel = Vec3{2, -3, 1}
	var g JumpGate

	if !g.TryTrigger(ms(100), true, body, cfg) {
		t.Fatal("TryTrigger = false, want true")
	}

	approxVec(t, body.vel, Vec3{2, 0, 1}, 1e-12, "velocity after jump")
	impulses := body.forcesOf(ForceImpulse)
	if len(impulses) != 1 {
		t.Fatalf("impulses = %d, want 1", len(impulses))
	}
	approxVec(t, impulses[0], Vec3{0, cfg.JumpForce, 0}, 1e-12, "impulse")
	if g.Phase() != JumpCooling || !g.ExitingSlope() {
		t.Fatalf("phase = %s exiting = %t, want cooling/true", g.Phase(), g.ExitingSlope())
	}
	if g.ReadyAt() != ms(350) {
		t.Fatalf("ReadyAt = %s, want 350ms", g.ReadyAt())
	}
}

func TestJumpGate_RejectsWhileCooling(t *testing.T) {
	cfg := DefaultConfig()
	body := newFakeBody()
	var g JumpGate

	g.TryTrigger(0, true, body, cfg)
	body.reset()

	if g.TryTrigger(ms(100), true, body, cfg) {
		t.Fatal("second TryTrigger during cooldown = true")
	}
	if len(body.forces) != 0 {
		t.Fatalf("forces = %d, want 0", len(body.forces))
	}
	if g.ReadyAt() != cfg.JumpCooldown {
		t.Fatalf("ReadyAt = %s, want %s (timer must not restart)", g.ReadyAt(), cfg.JumpCooldown)
	}
}

func TestJumpGate_RejectsWhenAirborne(t *testing.T) {
	body := newFakeBody()
	var g JumpGate
	if g.TryTrigger(0, false, body, DefaultConfig()) {
		t.Fatal("TryTrigger airborne = true")
	}
	if g.Phase() != JumpReady {
		t.Fatalf("phase = %s, want ready", g.Phase())
	}
}

func TestJumpGate_Refresh(t *testing.T) {
	cfg := DefaultConfig()
	var g JumpGate
	g.TryTrigger(0, true, newFakeBody(), cfg)

	if g.Refresh(cfg.JumpCooldown - ms(1)) {
		t.Fatal("Refresh before cooldown = true")
	}
	if !g.Refresh(cfg.JumpCooldown) {
		t.Fatal("Refresh at cooldown = false")
	}
	if g.Phase() != JumpReady || g.ExitingSlope() || g.ReadyAt() != 0 {
		t.Fatalf("after refresh phase=%s exiting=%t readyAt=%s", g.Phase(), g.ExitingSlope(), g.ReadyAt())
	}
	if g.Refresh(cfg.JumpCooldown * 2) {
		t.Fatal("Refresh while ready = true")
	}
}
