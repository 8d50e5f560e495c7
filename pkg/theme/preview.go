package theme

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// PreviewWidgets is the default widget set shown by Preview.
func PreviewWidgets() []Widget {
	return []Widget{
		{Class: "QMainWindow"},
		{Class: "QGroupBox"},
		{Class: "QGroupBox", SubControl: "title"},
		{Class: "QLabel"},
		{Class: "QPushButton"},
		{Class: "QPushButton", States: []string{"hover"}},
		{Class: "QPushButton", States: []string{"pressed"}},
		{Class: "QPushButton", States: []string{"disabled"}},
		{Class: "QPushButton", Name: "startButton"},
		{Class: "QPushButton", Name: "stopButton"},
		{Class: "QComboBox"},
		{Class: "QComboBox", SubControl: "drop-down"},
		{Class: "QLineEdit", States: []string{"focus"}},
		{Class: "QCheckBox", SubControl: "indicator", States: []string{"checked"}},
		{Class: "QCheckBox", SubControl: "indicator", States: []string{"unchecked"}},
		{Class: "QProgressBar"},
		{Class: "QProgressBar", SubControl: "chunk"},
		{Class: "QScrollBar", States: []string{"vertical"}},
		{Class: "QScrollBar", SubControl: "handle", States: []string{"vertical"}},
		{Class: "QTextEdit", Name: "logOutput"},
	}
}

// Preview writes one swatch line per widget: the widget rendered with its
// resolved background, foreground and border colors, followed by the
// properties that produced them.
func Preview(w io.Writer, sheet *Sheet, widgets []Widget) error {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Width(44)
	muted := r.NewStyle().Foreground(lipgloss.Color(RolesOf(sheet).Muted))

	for _, wd := range widgets {
		props := sheet.Resolve(wd)

		swatch := r.NewStyle().Padding(0, 2)
		if bg, ok := props.Color("background-color"); ok {
			swatch = swatch.Background(lipgloss.Color(bg))
		}
		if fg, ok := props.Color("color"); ok {
			swatch = swatch.Foreground(lipgloss.Color(fg))
		}
		if bc, ok := props.Color("border"); ok {
			swatch = swatch.Border(lipgloss.NormalBorder(), false, true).BorderForeground(lipgloss.Color(bc))
		}

		line := lipgloss.JoinHorizontal(lipgloss.Center,
			label.Render(wd.String()),
			swatch.Render("Aa"),
			" ",
			muted.Render(props.String()),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
