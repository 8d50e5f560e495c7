package theme

import (
	"fmt"
	"strconv"
	"strings"
)

var namedColors = map[string]string{
	"black":     "#000000",
	"white":     "#ffffff",
	"red":       "#ff0000",
	"lime":      "#00ff00",
	"green":     "#008000",
	"blue":      "#0000ff",
	"yellow":    "#ffff00",
	"orange":    "#ffa500",
	"gray":      "#808080",
	"grey":      "#808080",
	"lightgray": "#d3d3d3",
	"darkgray":  "#a9a9a9",
	"silver":    "#c0c0c0",
	"cyan":      "#00ffff",
	"magenta":   "#ff00ff",
}

// ParseColor normalizes a QSS color value to #rrggbb. It accepts #rgb,
// #rrggbb, #aarrggbb, rgb(), rgba() and basic color names. Transparent
// and unknown values report false.
func ParseColor(value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if hex, ok := namedColors[v]; ok {
		return hex, true
	}

	if strings.HasPrefix(v, "#") {
		digits := v[1:]
		if _, err := strconv.ParseUint(digits, 16, 32); err != nil {
			return "", false
		}
		switch len(digits) {
		case 3:
			return "#" + string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]}), true
		case 6:
			return v, true
		case 8:
			return "#" + digits[2:], true
		}
		return "", false
	}

	fn, args, ok := strings.Cut(v, "(")
	if !ok || (fn != "rgb" && fn != "rgba") || !strings.HasSuffix(args, ")") {
		return "", false
	}
	parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
	if len(parts) < 3 {
		return "", false
	}
	var rgb [3]int
	for i := range rgb {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return "", false
		}
		rgb[i] = n
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), true
}

// FindColor returns the first color in a compound value such as
// "1px solid #3c3c3c".
func FindColor(value string) (string, bool) {
	if c, ok := ParseColor(value); ok {
		return c, true
	}
	for _, field := range strings.Fields(value) {
		if c, ok := ParseColor(field); ok {
			return c, true
		}
	}
	return "", false
}
