package game

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// SetupInputHandlers routes window callbacks into the app.
func SetupInputHandlers(app *App) {
	window := app.Window
	im := app.Input

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		im.HandleCursorEvent(xpos, ypos)
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
		if app.Font != nil {
			// Text is laid out in window coordinates.
			winW, winH := w.GetSize()
			app.Font.Resize(winW, winH)
		}
	})

	window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if !focused && !app.paused {
			app.setPaused(true)
		}
	})
}
