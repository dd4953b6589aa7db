package sim

import (
	"fmt"
	"time"

	"github.com/Versifine/stride/internal/config"
	"github.com/Versifine/stride/internal/input"
)

// ScriptStep is a parsed config.Step.
type ScriptStep struct {
	At         time.Duration
	For        time.Duration
	Actions    input.ActionSet
	Horizontal float64
	Vertical   float64
	Yaw        *float64
	Turn       float64

	started bool
	done    bool
}

// Command is what a script asks of its actor for one frame.
type Command struct {
	Actions    input.ActionSet
	Horizontal float64
	Vertical   float64
	// SetYaw, when non-nil, snaps the heading before Turn is applied.
	SetYaw *float64
	Turn   float64
}

func NewScript(steps []config.Step) (ScriptData, error) {
	out := make([]ScriptStep, 0, len(steps))
	for i, st := range steps {
		actions, err := input.Actions(st.Hold...)
		if err != nil {
			return ScriptData{}, fmt.Errorf("step %d: %w", i, err)
		}
		out = append(out, ScriptStep{
			At:         st.At,
			For:        st.For,
			Actions:    actions,
			Horizontal: st.Horizontal,
			Vertical:   st.Vertical,
			Yaw:        st.Yaw,
			Turn:       st.Turn,
		})
	}
	return ScriptData{Steps: out}, nil
}

// Sample merges every step active at now. A step is active on
// [At, At+For); a tap (For == 0) is active for the first frame at or after At.
func (s *ScriptData) Sample(now, delta time.Duration) Command {
	var cmd Command
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.done || now < st.At {
			continue
		}
		if st.For > 0 && now >= st.At+st.For {
			st.done = true
			continue
		}
		if !st.started {
			st.started = true
			if st.Yaw != nil {
				yaw := *st.Yaw
				cmd.SetYaw = &yaw
			}
		}
		if st.For == 0 {
			st.done = true
		}

		for a, held := range st.Actions {
			if held {
				cmd.Actions[a] = true
			}
		}
		cmd.Horizontal += st.Horizontal
		cmd.Vertical += st.Vertical
		cmd.Turn += st.Turn * delta.Seconds()
	}
	return cmd
}
