package oauth

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserOpener opens authorization URLs in the system browser. The
// resulting window cannot report closure, so attempts opened through it end
// by callback, context cancellation or timeout.
type BrowserOpener struct {
	// Command overrides the launcher; the URL is appended as the last
	// argument.
	Command []string
}

func (b BrowserOpener) Open(ctx context.Context, url string, _ WindowOptions) (Window, error) {
	argv := b.Command
	if len(argv) == 0 {
		argv = defaultBrowserCommand()
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("no browser launcher for %s", runtime.GOOS)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:len(argv):len(argv)], url)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	// The launcher exits as soon as the browser has the URL.
	go cmd.Wait()
	return browserWindow{}, nil
}

func defaultBrowserCommand() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []string{"xdg-open"}
	}
	return nil
}

// browserWindow is a tab opened by a launcher. It cannot be closed from
// here.
type browserWindow struct{}

func (browserWindow) Close() {}
