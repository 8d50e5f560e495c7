package theme

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// classParents is the slice of the Qt class tree the stylesheets here care
// about. A type selector matches its class and every subclass.
var classParents = map[string]string{
	"QMainWindow":         "QWidget",
	"QDialog":             "QWidget",
	"QFrame":              "QWidget",
	"QLabel":              "QFrame",
	"QGroupBox":           "QWidget",
	"QAbstractButton":     "QWidget",
	"QPushButton":         "QAbstractButton",
	"QToolButton":         "QAbstractButton",
	"QCheckBox":           "QAbstractButton",
	"QRadioButton":        "QAbstractButton",
	"QComboBox":           "QWidget",
	"QLineEdit":           "QWidget",
	"QAbstractSpinBox":    "QWidget",
	"QSpinBox":            "QAbstractSpinBox",
	"QDoubleSpinBox":      "QAbstractSpinBox",
	"QProgressBar":        "QWidget",
	"QAbstractSlider":     "QWidget",
	"QScrollBar":          "QAbstractSlider",
	"QSlider":             "QAbstractSlider",
	"QAbstractScrollArea": "QFrame",
	"QTextEdit":           "QAbstractScrollArea",
	"QPlainTextEdit":      "QAbstractScrollArea",
	"QAbstractItemView":   "QAbstractScrollArea",
	"QListView":           "QAbstractItemView",
	"QTreeView":           "QAbstractItemView",
	"QStatusBar":          "QWidget",
	"QMenuBar":            "QWidget",
	"QMenu":               "QWidget",
	"QToolTip":            "QWidget",
}

// Widget is the thing a stylesheet is resolved against: a class, an object
// name, its current states and its ancestors.
type Widget struct {
	Class      string
	Name       string
	States     []string
	Properties map[string]string
	SubControl string // set to resolve a part of the widget, e.g. "chunk"
	Parent     *Widget
}

// IsA reports whether the widget's class is class or inherits from it.
func (w Widget) IsA(class string) bool {
	for c := w.Class; c != ""; c = classParents[c] {
		if c == class {
			return true
		}
	}
	return false
}

// HasState reports whether the widget is in the named state.
// "enabled" holds unless the widget is "disabled".
func (w Widget) HasState(name string) bool {
	if name == "enabled" {
		return !w.has("disabled")
	}
	return w.has(name)
}

func (w Widget) has(name string) bool {
	for _, s := range w.States {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// String renders the widget chain in selector form.
func (w Widget) String() string {
	var b strings.Builder
	if w.Parent != nil {
		b.WriteString(w.Parent.String())
		b.WriteString(" > ")
	}
	b.WriteString(w.Class)
	if w.Name != "" {
		b.WriteString("#" + w.Name)
	}
	for _, k := range slices.Sorted(maps.Keys(w.Properties)) {
		b.WriteString(Attribute{Name: k, Value: w.Properties[k], HasValue: true}.String())
	}
	if w.SubControl != "" {
		b.WriteString("::" + w.SubControl)
	}
	for _, s := range w.States {
		b.WriteString(":" + s)
	}
	return b.String()
}

// ParseWidget builds a widget from selector syntax, e.g.
// "QGroupBox > QPushButton#ok:hover" or "QProgressBar::chunk".
// Each element must name a concrete class; negated states are rejected.
func ParseWidget(src string) (Widget, error) {
	sel, err := ParseSelector(src)
	if err != nil {
		return Widget{}, err
	}

	var parent *Widget
	for i, c := range sel.Parts {
		if c.Type == "" || c.Type == "*" {
			return Widget{}, fmt.Errorf("%w %q: element %d has no class", ErrSelector, src, i+1)
		}
		w := Widget{Class: c.Type, Name: c.ID, SubControl: c.SubControl, Parent: parent}
		for _, st := range c.States {
			if st.Negated {
				return Widget{}, fmt.Errorf("%w %q: a widget cannot be in state %s", ErrSelector, src, st)
			}
			w.States = append(w.States, st.Name)
		}
		for _, a := range c.Attributes {
			if w.Properties == nil {
				w.Properties = make(map[string]string)
			}
			w.Properties[a.Name] = a.Value
		}
		parent = &w
	}
	return *parent, nil
}
