package oauth

import "context"

// Window is the authorization surface opened for an attempt.
type Window interface {
	Close()
}

// ClosedNotifier is implemented by windows that can signal when the user
// closes them.
type ClosedNotifier interface {
	Closed() <-chan struct{}
}

// ClosedPoller is implemented by windows whose closure can only be observed
// by asking.
type ClosedPoller interface {
	IsClosed() bool
}

// WindowOptions positions the window.
type WindowOptions struct {
	Name   string
	Width  int
	Height int
	Left   int
	Top    int
}

// Opener opens a window showing url.
type Opener interface {
	Open(ctx context.Context, url string, opts WindowOptions) (Window, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string, opts WindowOptions) (Window, error)

func (f OpenerFunc) Open(ctx context.Context, url string, opts WindowOptions) (Window, error) {
	return f(ctx, url, opts)
}

const (
	windowWidth  = 600
	windowHeight = 700
)

// centredWindow returns a 600x700 window centred on a screen of the given
// size, clamped to the top-left corner when the screen is smaller.
func centredWindow(name string, screenWidth, screenHeight int) WindowOptions {
	left := (screenWidth - windowWidth) / 2
	top := (screenHeight - windowHeight) / 2
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	return WindowOptions{Name: name, Width: windowWidth, Height: windowHeight, Left: left, Top: top}
}
