package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct{ text, color string }{
	{`                                    _`, "#22c55e"},
	{` _ ____   _____ _ __   ___ ___   __| | ___ _ __`, "#4ade80"},
	{`| '_ \ \ / / _ \ '_ \ / __/ _ \ / _' |/ _ \ '__|`, "#76b900"},
	{`| | | \ V /  __/ | | | (_| (_) | (_| |  __/ |`, "#a3e635"},
	{`|_| |_|\_/ \___|_| |_|\___\___/ \__,_|\___|_|`, "#bef264"},
}

// PrintBanner writes the ASCII banner, colored for w's terminal profile,
// followed by the version line.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  HEVC NVENC batch encoder "+version).Faint())
	fmt.Fprintln(w)
}
