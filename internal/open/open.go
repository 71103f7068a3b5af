package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Report opens a generated report in the user's browser: $BROWSER when set,
// otherwise the platform opener.
func Report(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("report not found: %s", abs)
	}

	cmd := browserCommand(os.Getenv("BROWSER"), runtime.GOOS, abs)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", abs, err)
	}
	return cmd.Process.Release()
}

func browserCommand(browser, goos, path string) *exec.Cmd {
	if browser != "" {
		// $BROWSER may carry arguments, e.g. "firefox --new-window"
		fields := strings.Fields(browser)
		return exec.Command(fields[0], append(fields[1:], path)...)
	}

	switch goos {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return exec.Command("xdg-open", path)
	}
}
