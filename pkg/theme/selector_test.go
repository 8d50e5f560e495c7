package theme_test

import (
	"testing"

	"github.com/aretw0/nvencoder/pkg/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector_RoundTrip(t *testing.T) {
	tests := []string{
		"QPushButton",
		"*",
		".QPushButton",
		"#logOutput",
		"QTextEdit#logOutput",
		"QPushButton:hover",
		"QPushButton:!enabled",
		"QProgressBar::chunk",
		"QScrollBar::handle:vertical",
		"QCheckBox::indicator:unchecked:hover",
		"QComboBox QAbstractItemView",
		"QGroupBox > QPushButton#ok:pressed",
		`QPushButton[flat="true"]`,
		"QLineEdit[readOnly]",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			sel, err := theme.ParseSelector(src)
			require.NoError(t, err)
			assert.Equal(t, src, sel.String())
		})
	}
}

func TestParseSelector_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":              "",
		"dangling child":     "QGroupBox >",
		"empty state":        "QPushButton:",
		"empty sub-control":  "QProgressBar::",
		"empty id":           "QPushButton#",
		"sub-control inside": "QProgressBar::chunk QLabel",
		"two sub-controls":   "QScrollBar::handle::add-line",
		"stray character":    "QPushButton%",
		"unterminated attr":  "QPushButton[flat",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := theme.ParseSelector(src)
			assert.ErrorIs(t, err, theme.ErrSelector)
		})
	}
}

func TestSelector_Specificity(t *testing.T) {
	specificity := func(src string) theme.Specificity {
		sel, err := theme.ParseSelector(src)
		require.NoError(t, err)
		return sel.Specificity()
	}

	assert.Equal(t, theme.Specificity{}, specificity("*"))
	assert.Equal(t, theme.Specificity{Types: 1}, specificity("QPushButton"))
	assert.Equal(t, theme.Specificity{Classes: 1, Types: 1}, specificity("QPushButton:hover"))
	assert.Equal(t, theme.Specificity{Classes: 1}, specificity(".QPushButton"))
	assert.Equal(t, theme.Specificity{IDs: 1, Types: 1}, specificity("QTextEdit#logOutput"))
	assert.Equal(t, theme.Specificity{Classes: 1, Types: 2}, specificity("QScrollBar::handle:vertical"))

	assert.True(t, specificity("QPushButton").Less(specificity("QPushButton:hover")))
	assert.True(t, specificity("QPushButton:hover:pressed").Less(specificity("#ok")))
}

func TestSelector_Matches(t *testing.T) {
	button := theme.Widget{Class: "QPushButton", Name: "ok"}
	group := &theme.Widget{Class: "QGroupBox"}
	window := &theme.Widget{Class: "QMainWindow"}
	group.Parent = window
	nested := theme.Widget{Class: "QPushButton", Parent: group}

	tests := []struct {
		selector string
		widget   theme.Widget
		want     bool
	}{
		{"QPushButton", button, true},
		{"QAbstractButton", button, true},
		{"QWidget", button, true},
		{".QAbstractButton", button, false},
		{".QPushButton", button, true},
		{"*", button, true},
		{"#ok", button, true},
		{"#cancel", button, false},
		{"QPushButton:hover", button, false},
		{"QPushButton:hover", theme.Widget{Class: "QPushButton", States: []string{"hover"}}, true},
		{"QPushButton:enabled", button, true},
		{"QPushButton:!enabled", button, false},
		{"QPushButton:!enabled", theme.Widget{Class: "QPushButton", States: []string{"disabled"}}, true},
		{"QProgressBar", theme.Widget{Class: "QProgressBar", SubControl: "chunk"}, false},
		{"QProgressBar::chunk", theme.Widget{Class: "QProgressBar", SubControl: "chunk"}, true},
		{"QProgressBar::chunk", theme.Widget{Class: "QProgressBar"}, false},
		{"QGroupBox QPushButton", nested, true},
		{"QMainWindow QPushButton", nested, true},
		{"QGroupBox > QPushButton", nested, true},
		{"QMainWindow > QPushButton", nested, false},
		{"QMainWindow > QGroupBox QPushButton", nested, true},
		{"QGroupBox QPushButton", button, false},
		{`QPushButton[flat="true"]`, theme.Widget{Class: "QPushButton", Properties: map[string]string{"flat": "true"}}, true},
		{`QPushButton[flat="true"]`, button, false},
	}
	for _, tt := range tests {
		t.Run(tt.selector+" on "+tt.widget.String(), func(t *testing.T) {
			sel, err := theme.ParseSelector(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.Matches(tt.widget))
		})
	}
}

func TestParseWidget(t *testing.T) {
	w, err := theme.ParseWidget("QGroupBox > QPushButton#ok:hover")
	require.NoError(t, err)
	assert.Equal(t, "QPushButton", w.Class)
	assert.Equal(t, "ok", w.Name)
	assert.Equal(t, []string{"hover"}, w.States)
	require.NotNil(t, w.Parent)
	assert.Equal(t, "QGroupBox", w.Parent.Class)
	assert.Equal(t, "QGroupBox > QPushButton#ok:hover", w.String())

	chunk, err := theme.ParseWidget("QProgressBar::chunk")
	require.NoError(t, err)
	assert.Equal(t, "chunk", chunk.SubControl)

	_, err = theme.ParseWidget("*:hover")
	assert.Error(t, err)
	_, err = theme.ParseWidget("QPushButton:!enabled")
	assert.Error(t, err)
}
