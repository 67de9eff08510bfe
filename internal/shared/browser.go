package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// opener returns the platform launcher command for a URL, used to show
// poster images in the default browser.
func opener(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", url), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", goos)
}

// OpenBrowser opens the given URL in the system browser. The launch is
// fire-and-forget; the command is started, not waited on.
func OpenBrowser(url string) error {
	cmd, err := opener(getRuntime(), url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
