package ffmpeg

import (
	"bytes"
	"strings"
	"sync"
)

// Limits of what a LineWriter keeps for diagnosis.
const (
	DiagnosticLines = 200
	maxLineBytes    = 4096
)

// LineWriter is an io.Writer that splits ffmpeg output into lines and hands
// each non-empty one to fn. Both '\r' and '\n' end a line, since ffmpeg
// redraws its status with carriage returns. The last DiagnosticLines lines
// that are not status redraws are kept for Diagnose; memory stays bounded
// however long the encode runs.
type LineWriter struct {
	mu      sync.Mutex
	fn      func(string)
	partial []byte
	tail    []string
}

// NewLineWriter returns a LineWriter calling fn for each line.
func NewLineWriter(fn func(string)) *LineWriter {
	return &LineWriter{fn: fn}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range p {
		if b == '\r' || b == '\n' {
			w.emit()
			continue
		}
		if len(w.partial) < maxLineBytes {
			w.partial = append(w.partial, b)
		}
	}
	return len(p), nil
}

// Flush emits a trailing line that was not terminated.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit()
}

// String returns the kept lines, newline terminated.
func (w *LineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var b strings.Builder
	for _, l := range w.tail {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

func (w *LineWriter) emit() {
	line := string(bytes.TrimSpace(w.partial))
	w.partial = w.partial[:0]
	if line == "" {
		return
	}
	if !isStatusLine(line) {
		w.tail = append(w.tail, line)
		if over := len(w.tail) - DiagnosticLines; over > 0 {
			w.tail = append(w.tail[:0], w.tail[over:]...)
		}
	}
	if w.fn != nil {
		w.fn(line)
	}
}

// isStatusLine reports ffmpeg's periodic "frame=... time=..." redraw
// ("size=..." when there is no video).
func isStatusLine(line string) bool {
	return strings.HasPrefix(line, "frame=") || strings.HasPrefix(line, "size=")
}
