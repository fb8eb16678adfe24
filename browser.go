package pomoflow

import (
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/browser"
)

// openBrowser opens url in the user's default browser. Failures are
// logged and otherwise ignored: the URL is printed at startup, so the
// user can always open the tab by hand.
func openBrowser(url string, logger *slog.Logger) {
	var err error
	if isWSL() {
		// Inside WSL the Linux-side xdg-open usually has nowhere to
		// go; hand the URL to the Windows shell instead.
		err = exec.Command("cmd.exe", "/c", "start", strings.ReplaceAll(url, "&", "^&")).Run()
	} else {
		err = browser.OpenURL(url)
	}
	if err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}

// isWSL reports whether the process is running under Windows Subsystem
// for Linux.
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}
