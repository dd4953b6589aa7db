package locomotion

import "testing"

func runCrouch(t *testing.T, s *CrouchSession, body *fakeBody, maxFrames int) int {
	t.Helper()
	for i := 1; i <= maxFrames; i++ {
		if s.Resume(ms(50), body) {
			return i
		}
	}
	t.Fatalf("crouch did not complete within %d frames", maxFrames)
	return 0
}

func TestCrouchSession_ConvergesToTarget(t *testing.T) {
	body := newFakeBody()
	var s CrouchSession

	s.Start(0.5, 2, body)
	if !s.Active() {
		t.Fatal("Active = false after Start")
	}

	prev := body.scale
	for i := 0; i < 20 && s.Active(); i++ {
		if s.Resume(ms(50), body) {
			break
		}
		if body.scale > prev {
			t.Fatalf("scale increased %v -> %v while crouching", prev, body.scale)
		}
		if body.scale < 0.5 {
			t.Fatalf("scale %v undershot target", body.scale)
		}
		prev = body.scale
	}

	if s.Active() {
		t.Fatal("session still active")
	}
	if body.scale != 0.5 {
		t.Fatalf("scale = %v, want exactly 0.5", body.scale)
	}
}

func TestCrouchSession_DurationFollowsRate(t *testing.T) {
	body := newFakeBody()
	var s CrouchSession

	// 0.5 units at 2/s is 250ms, five 50ms frames plus the snap frame.
	s.Start(0.5, 2, body)
	frames := runCrouch(t, &s, body, 20)
	if frames < 5 || frames > 7 {
		t.Fatalf("frames = %d, want 5..7", frames)
	}
}

func TestCrouchSession_AtTargetCompletesImmediately(t *testing.T) {
	body := newFakeBody()
	body.scale = 0.505
	var s CrouchSession

	s.Start(0.5, 2, body)
	if !s.Resume(ms(16), body) {
		t.Fatal("Resume within tolerance = false, want snap")
	}
	if body.scale != 0.5 {
		t.Fatalf("scale = %v, want 0.5", body.scale)
	}
}

func TestCrouchSession_ResumeIdle(t *testing.T) {
	body := newFakeBody()
	var s CrouchSession
	if s.Resume(ms(16), body) {
		t.Fatal("Resume idle = true")
	}
	if body.scale != 1 {
		t.Fatalf("scale = %v, want untouched 1", body.scale)
	}
}

func TestCrouchSession_NewStartSupersedes(t *testing.T) {
	body := newFakeBody()
	var s CrouchSession

	s.Start(0.5, 2, body)
	s.Resume(ms(50), body)
	s.Resume(ms(50), body)
	mid := body.scale
	if !(mid < 1 && mid > 0.5) {
		t.Fatalf("mid scale = %v, want between 0.5 and 1", mid)
	}

	s.Start(1, 2, body)
	if s.Target() != 1 {
		t.Fatalf("Target = %v, want 1", s.Target())
	}
	if s.Current() != mid {
		t.Fatalf("Current = %v, want restart from %v", s.Current(), mid)
	}
	runCrouch(t, &s, body, 20)
	if body.scale != 1 {
		t.Fatalf("scale = %v, want 1", body.scale)
	}
}

func TestCrouchSession_IdempotentAtLimit(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		target float64
	}{
		{"crouch down", 1, 0.5},
		{"stand up", 0.5, 1},
		{"already there", 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := newFakeBody()
			body.scale = tt.start
			var s CrouchSession

			s.Start(tt.target, 2, body)
			runCrouch(t, &s, body, 20)
			sets := body.scaleSets

			for i := 0; i < 50; i++ {
				if s.Resume(ms(50), body) {
					t.Fatalf("Resume %d after completion = true", i)
				}
			}
			if body.scale != tt.target {
				t.Fatalf("scale = %v, want exactly %v", body.scale, tt.target)
			}
			if body.scaleSets != sets {
				t.Fatalf("SetScaleY called %d more times after completion", body.scaleSets-sets)
			}
			if s.Active() || s.Current() != tt.target {
				t.Fatalf("active=%t current=%v after completion", s.Active(), s.Current())
			}
		})
	}
}
