package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/stride/internal/body"
	"github.com/Versifine/stride/internal/input"
	"github.com/Versifine/stride/internal/locomotion"
	"github.com/Versifine/stride/internal/physics"
	"github.com/Versifine/stride/internal/sim"
	"golang.org/x/term"
)

const (
	defaultFrameInterval = 16 * time.Millisecond
	defaultMovePulse     = 180 * time.Millisecond
	maxFixedSteps        = 8
	yawStep              = 5.0
)

// ControlledBody is the actor the console drives.
type ControlledBody interface {
	Frame(f locomotion.Frame, actions input.ActionSet, horizontal, vertical float64) error
	Fixed(t locomotion.Tick) error
	Snapshot() body.Snapshot
	Teleport(pos physics.Vec3)
	SetYaw(deg float64)
	Turn(deltaDeg float64)
}

type Console struct {
	body          ControlledBody
	keymap        input.Keymap
	fixedStep     time.Duration
	frameInterval time.Duration
	movePulse     time.Duration
	out           io.Writer

	mu          sync.Mutex
	held        input.ActionSet
	pulseUntil  [input.ActionCount]time.Time
	taps        input.ActionSet
	commandMode bool
	commandBuf  []rune
	statusWidth int
	quit        bool
	now         func() time.Time
}

func NewConsole(b ControlledBody, km input.Keymap, fixedStep time.Duration) *Console {
	if km == nil {
		km = input.DefaultKeymap()
	}
	return &Console{
		body:          b,
		keymap:        km,
		fixedStep:     fixedStep,
		frameInterval: defaultFrameInterval,
		movePulse:     defaultMovePulse,
		out:           os.Stdout,
		now:           time.Now,
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.body == nil {
		return fmt.Errorf("console body is nil")
	}
	if c.fixedStep <= 0 {
		return fmt.Errorf("console fixed step must be positive, got %s", c.fixedStep)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprint(c.out, "[debug] console started (W/A/S/D pulse, Space jump, Q dodge, C or [ crouch, ] sprint, arrows, X, :)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		c.handleKey(reader, b)
		if c.quitRequested() {
			return nil
		}
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.frameInterval)
	defer ticker.Stop()

	clock := sim.NewClock(c.fixedStep, c.frameInterval, 0, 0, maxFixedSteps)
	last := c.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := c.now()
			if err := c.step(clock, now.Sub(last)); err != nil {
				slog.Debug("debug body step failed", "error", err)
			}
			last = now
			c.renderStatusLine()
		}
	}
}

// step advances the body by one measured frame: due fixed ticks first, then
// the frame with the current console input.
func (c *Console) step(clock *sim.Clock, elapsed time.Duration) error {
	frame, ticks := clock.Advance(elapsed)
	for _, t := range ticks {
		if err := c.body.Fixed(t); err != nil {
			return err
		}
	}
	return c.body.Frame(frame, c.takeActions(), 0, 0)
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case '[':
		c.toggle(input.ActionCrouch)
	case ']':
		c.toggle(input.ActionSprint)
	case 'x', 'X':
		c.clearInput()
	case 3: // Ctrl+C never reaches signal handlers in raw mode
		c.mu.Lock()
		c.quit = true
		c.mu.Unlock()
		return
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.body.Turn(-yawStep)
		case 'C': // right
			c.body.Turn(yawStep)
		}
	default:
		c.handleActionKey(keyName(b))
	}
	c.renderStatusLine()
}

// handleActionKey routes a bound key by action kind: movement keys pulse,
// jump and dodge tap for one frame, crouch and sprint toggle.
func (c *Console) handleActionKey(key string) {
	action, ok := c.keymap[key]
	if !ok {
		return
	}
	switch action {
	case input.ActionForward, input.ActionBack, input.ActionLeft, input.ActionRight:
		c.pulse(action)
	case input.ActionJump, input.ActionDodge:
		c.tap(action)
	case input.ActionCrouch, input.ActionSprint:
		c.toggle(action)
	}
}

func keyName(b byte) string {
	switch b {
	case ' ':
		return "space"
	case 9:
		return "tab"
	case 13, 10:
		return "enter"
	}
	return strings.ToLower(string(rune(b)))
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		s := c.body.Snapshot()
		fmt.Fprintf(c.out, "[debug] %s pos=(%.3f,%.3f,%.3f) vel=(%.3f,%.3f,%.3f) contact=%t drag=%.2f gravity=%t\r\n",
			s.Name,
			s.Position.X(), s.Position.Y(), s.Position.Z(),
			s.Velocity.X(), s.Velocity.Y(), s.Velocity.Z(),
			s.Contact, s.Drag, s.Gravity,
		)
		l := s.Locomotion
		fmt.Fprintf(c.out, "[debug] state=%s speed=%.2f slope=%t angle=%.1f scale=%.2f dodging=%t jumps=%d dodges=%d\r\n",
			l.State, l.Speed, l.Ground.OnSlope, l.Ground.SlopeAngle, l.Scale, l.Dodging, l.Jumps, l.Dodges,
		)
	case "tp":
		if len(parts) != 4 {
			fmt.Fprint(c.out, "[debug] usage: :tp <x> <y> <z>\r\n")
			return
		}
		x, err1 := strconv.ParseFloat(parts[1], 64)
		y, err2 := strconv.ParseFloat(parts[2], 64)
		z, err3 := strconv.ParseFloat(parts[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			fmt.Fprint(c.out, "[debug] invalid tp args\r\n")
			return
		}
		c.body.Teleport(physics.Vec3{x, y, z})
		fmt.Fprintf(c.out, "[debug] teleported to (%.3f, %.3f, %.3f)\r\n", x, y, z)
	case "yaw":
		if len(parts) != 2 {
			fmt.Fprint(c.out, "[debug] usage: :yaw <degrees>\r\n")
			return
		}
		deg, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			fmt.Fprint(c.out, "[debug] invalid yaw\r\n")
			return
		}
		c.body.SetYaw(deg)
		fmt.Fprintf(c.out, "[debug] yaw set to %.1f\r\n", c.body.Snapshot().Yaw)
	case "quit", "q":
		c.mu.Lock()
		c.quit = true
		c.mu.Unlock()
	default:
		fmt.Fprintf(c.out, "[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) printHelp() {
	key := func(a input.Action) string {
		k, ok := c.keymap.KeyFor(a)
		if !ok {
			return "-"
		}
		return strings.ToUpper(k)
	}
	fmt.Fprint(c.out, "[debug] keys:\r\n")
	fmt.Fprintf(c.out, "  %s/%s/%s/%s: pulse movement (~180ms)\r\n",
		key(input.ActionForward), key(input.ActionBack), key(input.ActionLeft), key(input.ActionRight))
	fmt.Fprintf(c.out, "  %s: jump\r\n", key(input.ActionJump))
	fmt.Fprintf(c.out, "  %s: dodge\r\n", key(input.ActionDodge))
	fmt.Fprintf(c.out, "  %s or [: toggle crouch\r\n", key(input.ActionCrouch))
	fmt.Fprint(c.out, "  ]: toggle sprint\r\n")
	fmt.Fprint(c.out, "  Arrow Left/Right: yaw -/+5\r\n")
	fmt.Fprint(c.out, "  X: clear all input\r\n")
	fmt.Fprint(c.out, "  : enter command mode\r\n")
	fmt.Fprint(c.out, "[debug] commands:\r\n")
	fmt.Fprint(c.out, "  :tp <x> <y> <z>\r\n")
	fmt.Fprint(c.out, "  :yaw <degrees>\r\n")
	fmt.Fprint(c.out, "  :state\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
	fmt.Fprint(c.out, "  :quit\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	held := c.held
	width := c.statusWidth
	c.mu.Unlock()

	s := c.body.Snapshot()
	line := fmt.Sprintf(
		"[FWD:%s SPR:%s CRH:%s | %s %.1fm/s | YAW:%.1f | X:%.2f Y:%.2f Z:%.2f contact:%t]",
		boolLabel(held[input.ActionForward]),
		boolLabel(held[input.ActionSprint]),
		boolLabel(held[input.ActionCrouch]),
		s.Locomotion.State,
		s.HorizontalSpeed(),
		s.Yaw,
		s.Position.X(),
		s.Position.Y(),
		s.Position.Z(),
		s.Contact,
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func (c *Console) pulse(a input.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held[a] = true
	c.pulseUntil[a] = c.now().Add(c.movePulse)
	if opp, ok := opposite(a); ok {
		c.held[opp] = false
		c.pulseUntil[opp] = time.Time{}
	}
}

func opposite(a input.Action) (input.Action, bool) {
	switch a {
	case input.ActionForward:
		return input.ActionBack, true
	case input.ActionBack:
		return input.ActionForward, true
	case input.ActionLeft:
		return input.ActionRight, true
	case input.ActionRight:
		return input.ActionLeft, true
	}
	return 0, false
}

func (c *Console) tap(a input.Action) {
	c.mu.Lock()
	c.taps[a] = true
	c.mu.Unlock()
}

// toggle flips a held action. Crouch and sprint exclude each other.
func (c *Console) toggle(a input.Action) {
	c.mu.Lock()
	c.held[a] = !c.held[a]
	enabled := c.held[a]
	if enabled {
		switch a {
		case input.ActionCrouch:
			c.held[input.ActionSprint] = false
		case input.ActionSprint:
			c.held[input.ActionCrouch] = false
		}
	}
	c.mu.Unlock()
	slog.Debug("debug toggle", "action", a, "enabled", enabled)
}

// takeActions expires finished pulses and returns this frame's actions.
// Taps are consumed.
func (c *Console) takeActions() input.ActionSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for a, until := range c.pulseUntil {
		if !until.IsZero() && !now.Before(until) {
			c.held[a] = false
			c.pulseUntil[a] = time.Time{}
		}
	}
	set := c.held
	for a, tapped := range c.taps {
		if tapped {
			set[a] = true
		}
	}
	c.taps = input.ActionSet{}
	return set
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.held = input.ActionSet{}
	c.taps = input.ActionSet{}
	c.pulseUntil = [input.ActionCount]time.Time{}
	c.mu.Unlock()
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func (c *Console) quitRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quit
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
