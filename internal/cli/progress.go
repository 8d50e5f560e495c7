package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// ProgressPrinter renders worker progress as one status line per file.
// On a terminal the line is redrawn in place; otherwise each update is a
// new line.
type ProgressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	inPlace bool
	width   int
	current string
}

// NewProgressPrinter writes to w.
func NewProgressPrinter(w io.Writer, inPlace bool) *ProgressPrinter {
	return &ProgressPrinter{w: w, inPlace: inPlace}
}

// Hooks returns the callbacks driving the printer.
func (p *ProgressPrinter) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFileStart: func(_ context.Context, e *domain.FileEvent) {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.current = fmt.Sprintf("[%d/%d] %s", e.Index, e.Total, filepath.Base(e.Input))
		},
		OnProgress: func(_ context.Context, e *domain.FileEvent) {
			if e.Progress == nil {
				return
			}
			p.draw(FormatProgress(*e.Progress))
		},
		OnFileFinish: func(_ context.Context, e *domain.FileEvent) {
			if e.Result == nil {
				return
			}
			p.finish(string(e.Result.Status))
		},
	}
}

func (p *ProgressPrinter) draw(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := p.current + " " + status
	if !p.inPlace {
		fmt.Fprintln(p.w, line)
		return
	}
	pad := ""
	if n := p.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.width = len(line)
	fmt.Fprint(p.w, "\r"+line+pad)
}

func (p *ProgressPrinter) finish(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := p.current + " " + status
	if p.inPlace && p.width > 0 {
		pad := ""
		if n := p.width - len(line); n > 0 {
			pad = strings.Repeat(" ", n)
		}
		fmt.Fprint(p.w, "\r"+line+pad+"\n")
	} else {
		fmt.Fprintln(p.w, line)
	}
	p.width = 0
}

// FormatProgress renders a sample like "45% speed=5.2x fps=120 ETA 00:01:10".
func FormatProgress(pr domain.Progress) string {
	parts := []string{}
	if pr.HasPercent() {
		parts = append(parts, fmt.Sprintf("%3d%%", pr.Percent))
	}
	if pr.Elapsed != "" {
		parts = append(parts, "at "+pr.Elapsed)
	}
	if pr.Speed != "" {
		parts = append(parts, "speed="+pr.Speed)
	}
	if pr.FPS != "" {
		parts = append(parts, "fps="+pr.FPS)
	}
	if pr.Bitrate != "" {
		parts = append(parts, "bitrate="+pr.Bitrate)
	}
	if pr.ETA != "" {
		parts = append(parts, "ETA "+pr.ETA)
	}
	return strings.Join(parts, " ")
}
