//go:build !windows

package banner

import (
	"os"
	"strings"
)

// enableANSI is a no-op; escape sequences work everywhere but Windows consoles.
func enableANSI() {}

// blueBackground reads the background slot of COLORFGBG ("fg;bg").
// ANSI colors 4 and 12 are blue and bright blue.
func blueBackground() bool {
	parts := strings.Split(os.Getenv("COLORFGBG"), ";")
	switch strings.TrimSpace(parts[len(parts)-1]) {
	case "4", "12":
		return true
	}
	return false
}
