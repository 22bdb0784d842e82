package window

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the initial window width. Defaults to 768.
//
// Parameters:
//   - width: initial width in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the initial window height. Defaults to 768.
//
// Parameters:
//   - height: initial height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithMinSize bounds how small a user resize can make the window. Values below 1 are raised to 1.
//
// Parameters:
//   - width, height: smallest client area in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth = max(width, 1)
		w.minHeight = max(height, 1)
	}
}

// WithMaxSize bounds how large a user resize can make the window. A value of 0 or less leaves that
// axis unbounded.
//
// Parameters:
//   - width, height: largest client area in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.maxWidth = max(width, 0)
		w.maxHeight = max(height, 0)
	}
}

// WithResizable sets whether the user can resize the window. Defaults to true.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}
