package nvencoder

import (
	_ "embed"
	"strings"
)

// Version is the release of this module, as written in the VERSION file.
//
//go:embed VERSION
var Version string

// CurrentVersion returns Version without surrounding whitespace.
func CurrentVersion() string {
	return strings.TrimSpace(Version)
}
