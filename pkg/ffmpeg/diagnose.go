package ffmpeg

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	driverVersionRe = regexp.MustCompile(`driver for nvenc is (\d+(\.\d+)?(\.\d+)?) or newer`)
	missingFileRe   = regexp.MustCompile(`: (.*?): No such file or directory`)
	permissionRe    = regexp.MustCompile(`: (.*?): Permission denied`)
)

// Diagnose turns ffmpeg stderr of a failed run into one human readable cause.
// fontsDir is named when libass could not find a font.
func Diagnose(stderr, fontsDir string) string {
	if strings.TrimSpace(stderr) == "" {
		return "unknown error (empty stderr)"
	}
	lower := strings.ToLower(stderr)

	if strings.Contains(stderr, "Driver does not support the required nvenc API version") ||
		strings.Contains(stderr, "minimum required Nvidia driver for nvenc") {
		msg := "NVIDIA driver is too old for this ffmpeg build"
		if m := driverVersionRe.FindStringSubmatch(stderr); m != nil {
			msg += fmt.Sprintf(" (driver %s or newer required)", m[1])
		}
		return msg + ". Update the NVIDIA driver."
	}

	if strings.Contains(stderr, "[libass]") || strings.Contains(lower, "fontconfig") {
		if strings.Contains(stderr, "Font not found") || strings.Contains(lower, "fontselect: failed to find font") {
			return fmt.Sprintf("subtitle font not found; add the missing fonts to %s", filepath.ToSlash(fontsDir))
		}
		return "subtitle rendering error (libass/fontconfig); check the subtitle file and fonts"
	}

	if strings.Contains(stderr, "No such file or directory") {
		if m := missingFileRe.FindStringSubmatch(stderr); m != nil {
			return fmt.Sprintf("file not found: %s", m[1])
		}
		return "file not found"
	}

	if strings.Contains(stderr, "Permission denied") {
		if m := permissionRe.FindStringSubmatch(stderr); m != nil {
			return fmt.Sprintf("permission denied: %s", m[1])
		}
		return "permission denied"
	}

	return "last ffmpeg messages: " + strings.Join(lastLines(stderr, 5), " | ")
}

func lastLines(s string, n int) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
