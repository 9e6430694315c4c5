package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action represents a logical viewer action, not a physical key
type Action int

const (
	ActionToggleWireframe Action = iota
	ActionResolutionUp
	ActionResolutionDown
	ActionCycleShape
	ActionCycleNoise
	ActionCycleVariant
	ActionStampCrater
	ActionToggleAtmosphere
	ActionToggleHUD
	ActionExport
	ActionQuit
	ActionOrbit
	ActionModShift
	ActionCount // Sentinel value for array sizing
)

// InputManager maps physical keys and buttons to actions and tracks their
// held and edge state between frames.
type InputManager struct {
	mu sync.RWMutex

	keyToActions         map[glfw.Key][]Action
	mouseButtonToActions map[glfw.MouseButton][]Action

	currentState [ActionCount]bool

	// Edge flags, cleared by PostUpdate
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	// Accumulated since the last PostUpdate
	cursorDX, cursorDY float64
	scroll             float64
	lastX, lastY       float64
	haveCursor         bool
}

// NewInputManager creates a new InputManager with default key bindings
func NewInputManager() *InputManager {
	im := &InputManager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
	}

	im.BindKey(glfw.KeyW, ActionToggleWireframe)
	im.BindKey(glfw.KeyUp, ActionResolutionUp)
	im.BindKey(glfw.KeyDown, ActionResolutionDown)
	im.BindKey(glfw.KeyC, ActionCycleShape)
	im.BindKey(glfw.KeyN, ActionCycleNoise)
	im.BindKey(glfw.KeyT, ActionCycleVariant)
	im.BindKey(glfw.KeySpace, ActionStampCrater)
	im.BindKey(glfw.KeyA, ActionToggleAtmosphere)
	im.BindKey(glfw.KeyF3, ActionToggleHUD)
	im.BindKey(glfw.KeyE, ActionExport)
	im.BindKey(glfw.KeyEscape, ActionQuit)
	im.BindKey(glfw.KeyLeftShift, ActionModShift)
	im.BindKey(glfw.KeyRightShift, ActionModShift)

	im.BindMouseButton(glfw.MouseButtonLeft, ActionOrbit)

	return im
}

// BindKey binds a physical key to a logical action.
// Multiple keys can be bound to the same action.
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.keyToActions[key] = append(im.keyToActions[key], action)
}

// BindMouseButton binds a mouse button to a logical action
func (im *InputManager) BindMouseButton(button glfw.MouseButton, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.mouseButtonToActions[button] = append(im.mouseButtonToActions[button], action)
}

func (im *InputManager) set(actions []Action, pressed bool) {
	for _, act := range actions {
		if pressed && !im.currentState[act] {
			im.justPressed[act] = true
		}
		if !pressed && im.currentState[act] {
			im.justReleased[act] = true
		}
		im.currentState[act] = pressed
	}
}

// HandleKeyEvent processes a key event and updates internal state
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	if action == glfw.Repeat {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.set(im.keyToActions[key], action == glfw.Press)
}

// HandleMouseButtonEvent processes a mouse button event and updates internal state
func (im *InputManager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.set(im.mouseButtonToActions[button], action == glfw.Press)
}

// HandleCursor accumulates cursor movement between frames.
func (im *InputManager) HandleCursor(x, y float64) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.haveCursor {
		im.cursorDX += x - im.lastX
		im.cursorDY += y - im.lastY
	}
	im.lastX, im.lastY, im.haveCursor = x, y, true
}

// HandleScroll accumulates vertical scroll between frames.
func (im *InputManager) HandleScroll(yoff float64) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.scroll += yoff
}

// Install registers the GLFW callbacks for this input manager.
func (im *InputManager) Install(window *glfw.Window) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		im.HandleCursor(x, y)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		im.HandleScroll(yoff)
	})
}

// CursorDelta returns the cursor movement since the last PostUpdate.
func (im *InputManager) CursorDelta() (dx, dy float64) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.cursorDX, im.cursorDY
}

// Scroll returns the scroll amount since the last PostUpdate.
func (im *InputManager) Scroll() float64 {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.scroll
}

// PostUpdate must be called at the end of each frame to reset edge flags
// and accumulated motion.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()
	for i := Action(0); i < ActionCount; i++ {
		im.justPressed[i] = false
		im.justReleased[i] = false
	}
	im.cursorDX, im.cursorDY, im.scroll = 0, 0, 0
}

// IsActive returns true if the action is currently being held down
func (im *InputManager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.currentState[action]
}

// JustPressed returns true only if the action was pressed in the current frame
func (im *InputManager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justPressed[action]
}

// JustReleased returns true only if the action was released in the current frame
func (im *InputManager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.justReleased[action]
}
