package theme

import (
	_ "embed"
	"sync"
)

//go:embed dark.qss
var darkQSS string

var dark = sync.OnceValue(func() *Sheet { return MustParse(darkQSS) })

// Dark returns the built-in dark theme.
func Dark() *Sheet {
	return dark()
}

// DarkSource returns the QSS text of the built-in dark theme.
func DarkSource() string {
	return darkQSS
}
