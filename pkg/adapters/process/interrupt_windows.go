//go:build windows

package process

import "os"

// Windows has no deliverable interrupt for arbitrary children.
func interrupt(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}
