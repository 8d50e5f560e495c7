package theme

import "strings"

// Log levels understood by LogPalette.
const (
	LevelInfo    = "info"
	LevelError   = "error"
	LevelWarning = "warning"
	LevelDebug   = "debug"
	LevelSuccess = "success"
)

// LogPalette holds the log pane color per level, as #rrggbb.
type LogPalette struct {
	Info    string
	Error   string
	Warning string
	Debug   string
	Success string
}

// DefaultLogPalette is the log pane palette of the dark theme.
func DefaultLogPalette() LogPalette {
	return LogPalette{
		Info:    "#ffffff",
		Error:   "#ff0000",
		Warning: "#ffff00",
		Debug:   "#808080",
		Success: "#00ff00",
	}
}

// Color returns the color for level. Unknown levels use the info color.
func (p LogPalette) Color(level string) string {
	switch strings.ToLower(level) {
	case LevelError:
		return p.Error
	case LevelWarning, "warn":
		return p.Warning
	case LevelDebug:
		return p.Debug
	case LevelSuccess:
		return p.Success
	default:
		return p.Info
	}
}

// Roles are the handful of colors a terminal rendition of a sheet needs.
type Roles struct {
	Background string
	Foreground string
	Accent     string
	Border     string
	Muted      string
}

// RolesOf derives Roles from a sheet by resolving a few representative widgets.
// Roles the sheet leaves unset fall back to the dark theme's values.
func RolesOf(s *Sheet) Roles {
	r := Roles{
		Background: "#232323",
		Foreground: "#dcdcdc",
		Accent:     "#1f6feb",
		Border:     "#3c3c3c",
		Muted:      "#6e6e6e",
	}
	set := func(dst *string, w Widget, prop string) {
		if c, ok := s.Resolve(w).Color(prop); ok {
			*dst = c
		}
	}
	set(&r.Background, Widget{Class: "QMainWindow"}, "background-color")
	set(&r.Foreground, Widget{Class: "QWidget"}, "color")
	set(&r.Accent, Widget{Class: "QProgressBar", SubControl: "chunk"}, "background-color")
	set(&r.Border, Widget{Class: "QGroupBox"}, "border")
	set(&r.Muted, Widget{Class: "QPushButton", States: []string{"disabled"}}, "color")
	return r
}
