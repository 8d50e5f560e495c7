package ffmpeg

import (
	"regexp"
	"strings"
)

var unsafeFilenameRe = regexp.MustCompile(`[\\/:*?"<>|\[\]\n\r\t]+`)

// SanitizeFilenamePart makes s usable inside a file name: reserved
// characters are dropped, the result is trimmed of dots and spaces and cut
// to max runes. An empty result becomes "untitled".
func SanitizeFilenamePart(s string, max int) string {
	s = strings.Trim(unsafeFilenameRe.ReplaceAllString(s, ""), ". ")
	if r := []rune(s); max > 0 && len(r) > max {
		s = strings.Trim(string(r[:max]), "_ .-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
