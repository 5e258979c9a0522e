//go:build windows

package banner

import (
	"os"

	"golang.org/x/sys/windows"
)

const (
	enableVirtualTerminalProcessing = 0x0004
	backgroundBlue                  = 0x0010
)

func stdoutHandle() windows.Handle {
	return windows.Handle(os.Stdout.Fd())
}

// enableANSI turns on escape sequence processing for the console.
func enableANSI() {
	var mode uint32
	if err := windows.GetConsoleMode(stdoutHandle(), &mode); err != nil {
		return
	}
	_ = windows.SetConsoleMode(stdoutHandle(), mode|enableVirtualTerminalProcessing)
}

func blueBackground() bool {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(stdoutHandle(), &info); err != nil {
		return false
	}
	return info.Attributes&backgroundBlue != 0
}
