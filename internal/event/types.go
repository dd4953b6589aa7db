package event

import "time"

const (
	EventJump        = "locomotion.jump"
	EventJumpReady   = "locomotion.jump.ready"
	EventCrouchStart = "locomotion.crouch.start"
	EventCrouchEnd   = "locomotion.crouch.end"
	EventDodgeStart  = "locomotion.dodge.start"
	EventDodgeEnd    = "locomotion.dodge.end"
	EventStateChange = "locomotion.state"
)

type JumpEvent struct {
	Actor   string
	At      time.Duration
	ReadyAt time.Duration
}

type CrouchEvent struct {
	Actor  string
	At     time.Duration
	Target float64
	// Down is true when Target is the crouch scale and false when standing up.
	Down bool
}

type DodgeEvent struct {
	Actor     string
	At        time.Duration
	Direction [3]float64
	Distance  float64
	Blocked   bool
}

type StateChangeEvent struct {
	Actor string
	At    time.Duration
	From  string
	To    string
	Speed float64
}
