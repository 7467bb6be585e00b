package window

import "github.com/Carmen-Shannon/oxy-pacer/common"

// ButtonState is the per-tick state of a key or mouse button. The Just states last for exactly one poll tick.
type ButtonState int

const (
	// Released means the button is up and was already up last tick.
	Released ButtonState = iota
	// JustReleased means the button went up during the current tick.
	JustReleased
	// Pressed means the button is down and was already down last tick.
	Pressed
	// JustPressed means the button went down during the current tick.
	JustPressed
)

func (s ButtonState) String() string {
	switch s {
	case JustReleased:
		return "just-released"
	case Pressed:
		return "pressed"
	case JustPressed:
		return "just-pressed"
	default:
		return "released"
	}
}

// Down reports whether the button is held.
func (s ButtonState) Down() bool {
	return s == Pressed || s == JustPressed
}

// Input tracks keyboard and mouse state across poll ticks. It is only touched from the window goroutine.
type Input struct {
	keys    map[common.KeyCode]ButtonState
	buttons map[common.MouseButton]ButtonState

	cursorX, cursorY float64
	scroll           float32
}

// NewInput creates an Input with every button released.
//
// Returns:
//   - *Input: the input state
func NewInput() *Input {
	return &Input{
		keys:    make(map[common.KeyCode]ButtonState),
		buttons: make(map[common.MouseButton]ButtonState),
	}
}

// Tick ages the state by one poll: Just states settle into their steady counterparts and the scroll delta is
// cleared. Call it before delivering the events of the new tick.
func (in *Input) Tick() {
	settle(in.keys)
	settle(in.buttons)
	in.scroll = 0
}

func settle[K comparable](m map[K]ButtonState) {
	for k, s := range m {
		switch s {
		case JustPressed:
			m[k] = Pressed
		case JustReleased:
			delete(m, k)
		}
	}
}

func press[K comparable](m map[K]ButtonState, k K) {
	if !m[k].Down() {
		m[k] = JustPressed
	}
}

func release[K comparable](m map[K]ButtonState, k K) {
	if m[k].Down() {
		m[k] = JustReleased
	}
}

// KeyDown records a key press. Repeats of a held key do not restart JustPressed.
func (in *Input) KeyDown(k common.KeyCode) {
	press(in.keys, k)
}

// KeyUp records a key release.
func (in *Input) KeyUp(k common.KeyCode) {
	release(in.keys, k)
}

func (in *Input) MouseDown(b common.MouseButton) {
	press(in.buttons, b)
}

func (in *Input) MouseUp(b common.MouseButton) {
	release(in.buttons, b)
}

// MoveCursor records the cursor position in window coordinates.
func (in *Input) MoveCursor(x, y float64) {
	in.cursorX, in.cursorY = x, y
}

// Scroll accumulates vertical wheel movement for the current tick. Positive is away from the user.
func (in *Input) Scroll(delta float32) {
	in.scroll += delta
}

// Key returns the state of k.
//
// Parameters:
//   - k: the key
//
// Returns:
//   - ButtonState: the key's state this tick
func (in *Input) Key(k common.KeyCode) ButtonState {
	return in.keys[k]
}

// Mouse returns the state of b.
//
// Parameters:
//   - b: the mouse button
//
// Returns:
//   - ButtonState: the button's state this tick
func (in *Input) Mouse(b common.MouseButton) ButtonState {
	return in.buttons[b]
}

func (in *Input) Cursor() (float64, float64) {
	return in.cursorX, in.cursorY
}

// ScrollDelta returns the wheel movement accumulated this tick.
func (in *Input) ScrollDelta() float32 {
	return in.scroll
}
