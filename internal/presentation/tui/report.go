package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/nvencoder/pkg/domain"
)

// ReportMarkdown summarizes a batch as a markdown document: a counts line
// and one table row per file.
func ReportMarkdown(batchID string, results []domain.FileResult, canceled bool, elapsed time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Batch %s\n\n", batchID)

	counts := map[domain.FileStatus]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	fmt.Fprintf(&b, "**%d** encoded, **%d** skipped, **%d** failed", counts[domain.StatusEncoded], counts[domain.StatusSkipped], counts[domain.StatusFailed])
	if canceled {
		b.WriteString(", batch **canceled**")
	}
	if elapsed > 0 {
		fmt.Fprintf(&b, " in %s", elapsed.Round(time.Second))
	}
	b.WriteString(".\n\n")

	if len(results) == 0 {
		b.WriteString("_No files processed._\n")
		return b.String()
	}

	b.WriteString("| # | File | Status | Time | Details |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for i, r := range results {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1,
			cell(filepath.Base(r.Input)),
			statusLabel(r.Status),
			r.Elapsed.Round(time.Second),
			cell(details(r)),
		)
	}
	return b.String()
}

func details(r domain.FileResult) string {
	if r.Status == domain.StatusEncoded && r.Decoder != "" {
		return fmt.Sprintf("%s -> %s", r.Decoder, r.Encoder)
	}
	return r.Message
}

func statusLabel(s domain.FileStatus) string {
	switch s {
	case domain.StatusEncoded:
		return "✅ encoded"
	case domain.StatusSkipped:
		return "⏭ skipped"
	case domain.StatusFailed:
		return "❌ failed"
	case domain.StatusCanceled:
		return "⏹ canceled"
	}
	return string(s)
}

// cell keeps a value inside one markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
