// Package theme models a widget stylesheet as data and resolves it.
//
// A Sheet is an ordered list of rules, each pairing a selector list with
// declarations, written in the Qt stylesheet dialect (QSS). Resolve walks
// the sheet the way a style engine would on each paint: it collects the
// declarations whose selectors match a Widget and applies them by
// importance, specificity and source order. Resolution is pure, so applying
// the same sheet twice always yields the same properties.
//
// The embedded dark theme is available through Dark. The log pane colors
// it implies are exposed as a LogPalette for console output.
package theme
