package theme_test

import (
	"strings"
	"testing"

	"github.com/aretw0/nvencoder/pkg/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basics(t *testing.T) {
	sheet, err := theme.Parse(`
/* header comment { not a rule } */
QPushButton, QToolButton {
    color: #ffffff; /* trailing */
    BORDER: 1px solid #505050;
}
QProgressBar::chunk { background-color: #1f6feb !important; }
`)
	require.NoError(t, err)
	rules := sheet.Rules()
	require.Len(t, rules, 2)

	assert.Equal(t, "QPushButton, QToolButton", rules[0].Selector())
	assert.Equal(t, []theme.Declaration{
		{Property: "color", Value: "#ffffff"},
		{Property: "border", Value: "1px solid #505050"},
	}, rules[0].Declarations)

	assert.Equal(t, "QProgressBar::chunk", rules[1].Selector())
	assert.True(t, rules[1].Declarations[0].Important)
}

func TestParse_LenientAndLineNumbered(t *testing.T) {
	src := strings.Join([]string{
		"QLabel { color: red; }",
		"",
		"QPushButton%% { color: blue; }",
		"QCheckBox { color: green; }",
		"}",
		"QLineEdit { color: yellow; }",
	}, "\n")

	sheet, err := theme.Parse(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, theme.ErrSyntax)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "line 5")

	assert.Equal(t, 3, sheet.Len(), "valid rules around the broken ones are kept")
	assert.Equal(t, "yellow", sheet.Resolve(theme.Widget{Class: "QLineEdit"})["color"])
	assert.Equal(t, "green", sheet.Resolve(theme.Widget{Class: "QCheckBox"})["color"])
}

func TestParse_RejectsAtRules(t *testing.T) {
	sheet, err := theme.Parse("@media screen { QLabel { color: red; } }\nQLabel { color: blue; }")
	assert.ErrorIs(t, err, theme.ErrSyntax)
	assert.Equal(t, 1, sheet.Len())
}

func TestParse_StringRoundTrip(t *testing.T) {
	sheet := theme.MustParse(cascade)
	again, err := theme.Parse(sheet.String())
	require.NoError(t, err)

	assert.Equal(t, sheet.String(), again.String())
	assert.Equal(t, sheet.Rules(), again.Rules())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { theme.MustParse("QLabel% { color: red; }") })
}

func TestParse_FunctionValuesKeepColons(t *testing.T) {
	sheet, err := theme.Parse(`
QProgressBar::chunk {
    background-color: qlineargradient(x1:0, y1:0, x2:1, y2:0,
                                      stop:0 #1f6feb, stop:1 #8ab4f8);
}
QRadioButton::indicator:checked { background: qradialgradient(cx:0.5, cy:0.5, radius:0.4, stop:0 #ffffff, stop:1 #1f6feb); }
QCheckBox::indicator:checked { image: url(:/icons/x.png); }
QLabel#title { font-family: "Segoe UI; Bold"; }
`)
	require.NoError(t, err)
	require.Equal(t, 4, sheet.Len())

	chunk := sheet.Resolve(theme.Widget{Class: "QProgressBar", SubControl: "chunk"})
	assert.Equal(t, "qlineargradient(x1:0, y1:0, x2:1, y2:0, stop:0 #1f6feb, stop:1 #8ab4f8)", chunk["background-color"])

	rules := sheet.Rules()
	assert.Equal(t, "qradialgradient(cx:0.5, cy:0.5, radius:0.4, stop:0 #ffffff, stop:1 #1f6feb)", rules[1].Declarations[0].Value)
	assert.Equal(t, theme.Declaration{Property: "image", Value: "url(:/icons/x.png)"}, rules[2].Declarations[0])
	assert.Equal(t, `"Segoe UI; Bold"`, rules[3].Declarations[0].Value)

	again, err := theme.Parse(sheet.String())
	require.NoError(t, err)
	assert.Equal(t, sheet.Rules(), again.Rules())
}

func TestParse_RejectsUnterminatedAndBareBlocks(t *testing.T) {
	sheet, err := theme.Parse("QPushButton { color: red; } QLabel { color: blue")
	require.ErrorIs(t, err, theme.ErrSyntax)
	assert.Contains(t, err.Error(), "unterminated")
	assert.Equal(t, 1, sheet.Len())
	_, ok := sheet.Resolve(theme.Widget{Class: "QLabel"}).Get("color")
	assert.False(t, ok)

	sheet, err = theme.Parse("QPushButton { color: red; }\ngarbage")
	require.ErrorIs(t, err, theme.ErrSyntax)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, sheet.Len())
}

func TestParse_RejectsEmptyValues(t *testing.T) {
	sheet, err := theme.Parse("QLabel { color: red; }\nQLabel { color: ; }\nQLabel { border }")
	require.ErrorIs(t, err, theme.ErrSyntax)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "line 3")

	assert.Equal(t, "red", sheet.Resolve(theme.Widget{Class: "QLabel"})["color"])
}

func TestParse_UnbalancedParentheses(t *testing.T) {
	_, err := theme.Parse("QLabel { background: qlineargradient(x1:0, stop:0 #fff; }")
	assert.ErrorIs(t, err, theme.ErrSyntax)
}
