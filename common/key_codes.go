package common

// KeyCode identifies a keyboard key. The values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type KeyCode uint32

const (
	KeySpace KeyCode = 32 // Spacebar (ASCII)

	Key0 KeyCode = 48 // 0 key (ASCII)
	Key1 KeyCode = 49 // 1 key (ASCII)
	Key2 KeyCode = 50 // 2 key (ASCII)
	Key3 KeyCode = 51 // 3 key (ASCII)

	KeyA KeyCode = 65 // A key (ASCII)
	KeyD KeyCode = 68 // D key (ASCII)
	KeyP KeyCode = 80 // P key (ASCII)
	KeyR KeyCode = 82 // R key (ASCII)
	KeyS KeyCode = 83 // S key (ASCII)
	KeyW KeyCode = 87 // W key (ASCII)

	KeyEsc   KeyCode = 256 // Escape key (GLFW)
	KeyEnter KeyCode = 257 // Enter key (GLFW)
	KeyF11   KeyCode = 300 // F11 key (GLFW)
)

// MouseButton identifies a mouse button. The values match GLFW mouse button numbers.
type MouseButton uint32

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)
