package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action represents a logical viewer action, not a physical key
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionFast
	ActionPause
	ActionToggleOverlay
	ActionToggleWireframe
	ActionViewFarther
	ActionViewNearer
	ActionQuit
	ActionCount // Sentinel value for array sizing
)

// InputManager maps keys to actions and tracks held state, per-frame edges
// and accumulated mouse movement. Event handlers may run on any goroutine.
type InputManager struct {
	mu sync.RWMutex

	keyToActions map[glfw.Key][]Action

	currentState [ActionCount]bool
	justPressed  [ActionCount]bool

	// Mouse
	haveCursor     bool
	lastX, lastY   float64
	deltaX, deltaY float64
}

// NewInputManager creates a new InputManager with default key bindings
func NewInputManager() *InputManager {
	im := &InputManager{keyToActions: make(map[glfw.Key][]Action)}

	im.BindKey(glfw.KeyW, ActionMoveForward)
	im.BindKey(glfw.KeyUp, ActionMoveForward)
	im.BindKey(glfw.KeyS, ActionMoveBackward)
	im.BindKey(glfw.KeyDown, ActionMoveBackward)
	im.BindKey(glfw.KeyA, ActionMoveLeft)
	im.BindKey(glfw.KeyLeft, ActionMoveLeft)
	im.BindKey(glfw.KeyD, ActionMoveRight)
	im.BindKey(glfw.KeyRight, ActionMoveRight)
	im.BindKey(glfw.KeySpace, ActionMoveUp)
	im.BindKey(glfw.KeyLeftControl, ActionMoveDown)
	im.BindKey(glfw.KeyLeftShift, ActionFast)
	im.BindKey(glfw.KeyEscape, ActionPause)
	im.BindKey(glfw.KeyF3, ActionToggleOverlay)
	im.BindKey(glfw.KeyF, ActionToggleWireframe)
	im.BindKey(glfw.KeyEqual, ActionViewFarther)
	im.BindKey(glfw.KeyKPAdd, ActionViewFarther)
	im.BindKey(glfw.KeyMinus, ActionViewNearer)
	im.BindKey(glfw.KeyKPSubtract, ActionViewNearer)
	im.BindKey(glfw.KeyQ, ActionQuit)

	return im
}

// BindKey binds a physical key to a logical action
func (im *InputManager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.keyToActions[key] = append(im.keyToActions[key], action)
}

// UnbindKey removes all action bindings for a key
func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.keyToActions, key)
}

// HandleKeyEvent processes a key event and updates internal state
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.mu.Lock()
	defer im.mu.Unlock()

	pressed := action == glfw.Press || action == glfw.Repeat
	for _, act := range im.keyToActions[key] {
		if pressed && !im.currentState[act] {
			im.justPressed[act] = true
		}
		im.currentState[act] = pressed
	}
}

// HandleCursorEvent accumulates cursor movement since the last frame.
func (im *InputManager) HandleCursorEvent(x, y float64) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.haveCursor {
		im.deltaX += x - im.lastX
		im.deltaY += y - im.lastY
	}
	im.lastX, im.lastY = x, y
	im.haveCursor = true
}

// ResetCursor forgets the last cursor position, so the next event after a
// cursor mode change does not produce a jump.
func (im *InputManager) ResetCursor() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.haveCursor = false
	im.deltaX, im.deltaY = 0, 0
}

// MouseDelta returns the cursor movement accumulated this frame.
func (im *InputManager) MouseDelta() (float64, float64) {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.deltaX, im.deltaY
}

// PostUpdate must be called at the end of each frame to clear edges and
// mouse movement
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()
	clear(im.justPressed[:])
	im.deltaX, im.deltaY = 0, 0
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
