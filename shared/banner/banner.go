// Package banner prints the application title.
package banner

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type bannerColor int

const (
	bannerAmazonOrange bannerColor = iota
	bannerSquidInk
	bannerIBMBlue
	bannerSpotifyGreen
	bannerTwitchPurple
	bannerWhite
)

var bannerTitleColors = []string{
	"\x1b[38;2;255;153;0m",   // Amazon Orange
	"\x1b[38;2;35;47;62m",    // Squid Ink
	"\x1b[38;2;15;98;254m",   // IBM Blue
	"\x1b[38;2;30;215;96m",   // Spotify Green
	"\x1b[38;2;145;70;255m",  // Twitch Purple
	"\x1b[38;2;255;255;255m", // White
}

var bannerTitleColorNames = []string{
	"AmazonOrange",
	"SquidInk",
	"IBMBlue",
	"SpotifyGreen",
	"TwitchPurple",
	"White",
}

const (
	bannerTitleColorDefault        = bannerAmazonOrange
	bannerTitleColorBlueBackground = bannerWhite
	bannerTitleColorEnv            = "AWS_CLOUD_WELLNESS_BANNER_COLOR"
)

var titleLines = []string{
	"╔══════════════════════════════════════════════╗",
	"║      A W S   C L O U D   W E L L N E S S     ║",
	"║   account best-practice and hygiene audit    ║",
	"╚══════════════════════════════════════════════╝",
}

// displayWidth counts runes, which is what the box characters occupy.
func displayWidth(s string) int {
	return len([]rune(s))
}

func printCenteredLines(lines []string, width int) {
	for _, line := range lines {
		pad := 0

		if width > displayWidth(line) {
			pad = (width - displayWidth(line)) / 2
		}

		if pad > 0 {
			fmt.Print(strings.Repeat(" ", pad))
		}

		fmt.Println(line)
	}
}

func bannerTitleColor() bannerColor {
	if color, ok := bannerTitleColorFromEnv(); ok {
		return color
	}

	if blueBackground() {
		return bannerTitleColorBlueBackground
	}

	return bannerTitleColorDefault
}

func bannerTitleColorFromEnv() (bannerColor, bool) {
	raw := strings.TrimSpace(os.Getenv(bannerTitleColorEnv))

	if raw == "" {
		return 0, false
	}

	for idx, color := range bannerTitleColors {
		name := bannerTitleColorNames[idx]
		if strings.EqualFold(raw, name) || raw == color {
			return bannerColor(idx), true
		}
	}

	return 0, false
}

// DrawBannerTitle prints the application title banner to stdout.
func DrawBannerTitle() {
	enableANSI()

	width := 80

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
	}

	fmt.Print(bannerTitleColors[bannerTitleColor()])
	printCenteredLines(titleLines, width)
	fmt.Print("\x1b[0m")
}
