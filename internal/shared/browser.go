package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserArgv picks the launcher command for a URL on the given platform.
func browserArgv(goos, url string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"open", url}, nil
	case "linux":
		return []string{"xdg-open", url}, nil
	case "windows":
		return []string{"cmd", "/c", "start", url}, nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", goos)
}

// OpenBrowser opens the default system browser at the given URL.
//
// Supports macOS, Linux, and Windows. Callers fall back to printing the
// URL when the launch fails.
func OpenBrowser(url string) error {
	argv, err := browserArgv(runtime.GOOS, url)
	if err != nil {
		return err
	}

	if err := exec.Command(argv[0], argv[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
