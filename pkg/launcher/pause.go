package launcher

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Pauser holds a failing launcher open until the operator acknowledges the error,
// the way a console window would otherwise close before the message can be read.
type Pauser struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewPauser returns a pauser reading from in. Pausing is enabled only when in is a terminal.
func NewPauser(in *os.File, out io.Writer) *Pauser {
	return &Pauser{
		in:          in,
		out:         out,
		interactive: in != nil && term.IsTerminal(int(in.Fd())),
	}
}

// NewPauserFrom returns a pauser over arbitrary streams; interactive forces the prompt on or off.
func NewPauserFrom(in io.Reader, out io.Writer, interactive bool) *Pauser {
	return &Pauser{in: in, out: out, interactive: interactive}
}

// Interactive reports whether Pause will wait.
func (p *Pauser) Interactive() bool {
	return p != nil && p.interactive
}

// Pause prints the prompt and blocks until a line (or EOF) is read.
func (p *Pauser) Pause() {
	if !p.Interactive() {
		return
	}
	fmt.Fprint(p.out, "Press Enter to close...")
	_, _ = bufio.NewReader(p.in).ReadString('\n')
}
