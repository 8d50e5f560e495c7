package ffmpeg

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
)

var (
	timeRe  = regexp.MustCompile(`(?:^|[\s(\[])time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	statsRe = regexp.MustCompile(`fps=\s*([\d.]+)\s+q=\s*([-\d.]+)\s+.*?bitrate=\s*([\d.N/A]+\s*k?bits/s|N/A)\s+speed=\s*([\d.]+)x`)
)

// NotAvailable fills progress fields ffmpeg did not report.
const NotAvailable = "N/A"

// ParseProgress reads one ffmpeg status line. ok is false when the line
// carries neither a time= position nor the fps/bitrate/speed statistics.
//
// Percent is capped at 100 and stays -1 without a position or a positive
// total. ETA is derived from the reported speed; it and Elapsed are cleared
// when the speed is zero or the total is unknown.
func ParseProgress(line string, total time.Duration) (domain.Progress, bool) {
	p := domain.Progress{
		Percent: -1,
		Speed:   NotAvailable,
		FPS:     NotAvailable,
		Bitrate: NotAvailable,
	}

	tm := timeRe.FindStringSubmatch(line)
	if tm != nil {
		h, _ := strconv.Atoi(tm[1])
		m, _ := strconv.Atoi(tm[2])
		s, _ := strconv.Atoi(tm[3])
		cs, _ := strconv.Atoi(tm[4])
		p.Timed = true
		p.Position = time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second + time.Duration(cs)*10*time.Millisecond
		p.Elapsed = fmt.Sprintf("%02d:%02d:%02d", h, m, s)
		if total > 0 {
			p.Percent = min(100, int(p.Position*100/total))
		}
	}

	st := statsRe.FindStringSubmatch(line)
	if st != nil {
		p.FPS = st[1]
		p.Bitrate = st[3]
		speed, _ := strconv.ParseFloat(st[4], 64)
		p.Speed = strconv.FormatFloat(speed, 'f', -1, 64) + "x"
		if speed <= 0 || total <= 0 {
			p.ETA, p.Elapsed = "", ""
		} else {
			p.ETA = formatClock(time.Duration(float64(total-p.Position) / speed))
		}
	}

	return p, tm != nil || st != nil
}

// formatClock renders d as HH:MM:SS, truncating fractions.
func formatClock(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
