// Package input turns raw key state into per-frame locomotion input.
package input

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Versifine/stride/internal/locomotion"
	"github.com/go-gl/mathgl/mgl64"
)

type Action int

const (
	ActionForward Action = iota
	ActionBack
	ActionLeft
	ActionRight
	ActionJump
	ActionSprint
	ActionCrouch
	ActionDodge
	ActionCount
)

var actionNames = [ActionCount]string{
	ActionForward: "forward",
	ActionBack:    "back",
	ActionLeft:    "left",
	ActionRight:   "right",
	ActionJump:    "jump",
	ActionSprint:  "sprint",
	ActionCrouch:  "crouch",
	ActionDodge:   "dodge",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// ActionSet is the held state of every action for one frame.
type ActionSet [ActionCount]bool

// Actions builds a set from action names.
func Actions(names ...string) (ActionSet, error) {
	var set ActionSet
	for _, n := range names {
		a, err := ParseAction(n)
		if err != nil {
			return ActionSet{}, err
		}
		set[a] = true
	}
	return set, nil
}

// Keymap binds key names to actions. Several keys may share an action.
type Keymap map[string]Action

func DefaultKeymap() Keymap {
	return Keymap{
		"w":     ActionForward,
		"s":     ActionBack,
		"a":     ActionLeft,
		"d":     ActionRight,
		"space": ActionJump,
		"shift": ActionSprint,
		"c":     ActionCrouch,
		"q":     ActionDodge,
	}
}

// NewKeymap builds a keymap from action -> key bindings as found in config.
// Actions left unbound keep their default key.
func NewKeymap(binds map[string]string) (Keymap, error) {
	km := DefaultKeymap()
	actions := make([]string, 0, len(binds))
	for a := range binds {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	for _, name := range actions {
		a, err := ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("keybinds: %w", err)
		}
		key := strings.ToLower(strings.TrimSpace(binds[name]))
		if key == "" {
			return nil, fmt.Errorf("keybinds: %s has no key", name)
		}
		for k, bound := range km {
			if bound == a {
				delete(km, k)
			}
		}
		if other, taken := km[key]; taken {
			return nil, fmt.Errorf("keybinds: key %q bound to both %s and %s", key, other, a)
		}
		km[key] = a
	}
	return km, nil
}

// Resolve maps held key names to the actions they trigger. Unknown keys are
// ignored.
func (k Keymap) Resolve(held map[string]bool) ActionSet {
	var set ActionSet
	for key, down := range held {
		if !down {
			continue
		}
		if a, ok := k[strings.ToLower(key)]; ok {
			set[a] = true
		}
	}
	return set
}

// KeyFor returns the first key, alphabetically, bound to a.
func (k Keymap) KeyFor(a Action) (string, bool) {
	var keys []string
	for key, bound := range k {
		if bound == a {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}

// Sampler keeps the previous frame's action set so it can report edges.
type Sampler struct {
	keymap   Keymap
	previous ActionSet
}

func NewSampler(km Keymap) *Sampler {
	if km == nil {
		km = DefaultKeymap()
	}
	return &Sampler{keymap: km}
}

// SampleKeys resolves key names through the keymap, then samples.
func (s *Sampler) SampleKeys(held map[string]bool, horizontal, vertical float64) locomotion.Input {
	return s.Sample(s.keymap.Resolve(held), horizontal, vertical)
}

// Sample produces one frame of input. Movement actions add to the analog
// axes and the sum is clamped to [-1, 1].
func (s *Sampler) Sample(cur ActionSet, horizontal, vertical float64) locomotion.Input {
	prev := s.previous
	s.previous = cur

	key := func(a Action) locomotion.KeyState {
		return locomotion.KeyState{
			Held:     cur[a],
			Pressed:  cur[a] && !prev[a],
			Released: !cur[a] && prev[a],
		}
	}

	if cur[ActionRight] {
		horizontal++
	}
	if cur[ActionLeft] {
		horizontal--
	}
	if cur[ActionForward] {
		vertical++
	}
	if cur[ActionBack] {
		vertical--
	}

	return locomotion.Input{
		Horizontal: mgl64.Clamp(horizontal, -1, 1),
		Vertical:   mgl64.Clamp(vertical, -1, 1),
		Jump:       key(ActionJump),
		Sprint:     key(ActionSprint),
		Crouch:     key(ActionCrouch),
		Dodge:      key(ActionDodge),
	}
}

// Reset forgets the previous frame, so held keys register as new presses.
func (s *Sampler) Reset() { s.previous = ActionSet{} }
