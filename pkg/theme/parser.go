package theme

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ErrSyntax is wrapped by every rule the parser had to drop.
var ErrSyntax = errors.New("stylesheet syntax error")

// Parse reads a QSS stylesheet. Malformed rules are skipped and reported in
// the returned error, one line-numbered diagnostic each; the sheet holds every
// rule that parsed. Callers that want all-or-nothing check the error.
func Parse(src string) (*Sheet, error) {
	var (
		rules []Rule
		errs  []error
	)
	for _, blk := range splitBlocks(stripComments(src)) {
		parsed, err := parseBlock(blk.text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: line %d: %v", ErrSyntax, blk.line, err))
			continue
		}
		rules = append(rules, parsed...)
	}
	return &Sheet{rules: rules}, errors.Join(errs...)
}

// MustParse is Parse for sheets known to be valid. It panics on any diagnostic.
func MustParse(src string) *Sheet {
	s, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return s
}

// parseBlock reads one "prelude { body }" block. douceur classifies the
// prelude; the body is split here because Qt values such as
// qlineargradient(x1:0, stop:0 #fff) and url(:/icons/x.png) carry colons
// a CSS declaration parser cuts apart.
func parseBlock(text string) ([]Rule, error) {
	open := strings.IndexByte(text, '{')
	if open < 0 {
		return nil, fmt.Errorf("missing '{' in %q", text)
	}
	if !strings.HasSuffix(text, "}") {
		return nil, fmt.Errorf("unterminated block %q", strings.TrimSpace(text[:open]))
	}
	prelude, body := strings.TrimSpace(text[:open]), text[open+1:len(text)-1]

	ss, err := parser.Parse(prelude + " {}")
	if err != nil {
		return nil, err
	}
	if len(ss.Rules) != 1 {
		return nil, fmt.Errorf("malformed selector %q", prelude)
	}
	r := ss.Rules[0]
	if r.Kind != css.QualifiedRule {
		return nil, fmt.Errorf("at-rule %s is not supported", r.Name)
	}
	sels, err := ParseSelectorList(r.Prelude)
	if err != nil {
		return nil, err
	}
	decls, err := parseDeclarations(body)
	if err != nil {
		return nil, err
	}
	return []Rule{{Selectors: sels, Declarations: decls}}, nil
}

// parseDeclarations splits a rule body on top-level semicolons and each
// declaration at its first colon.
func parseDeclarations(body string) ([]Declaration, error) {
	parts, err := splitTopLevel(body, ';')
	if err != nil {
		return nil, err
	}
	var out []Declaration
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		colon := strings.IndexByte(part, ':')
		if colon < 0 {
			return nil, fmt.Errorf("malformed declaration %q", part)
		}
		prop := strings.ToLower(strings.TrimSpace(part[:colon]))
		if !isProperty(prop) {
			return nil, fmt.Errorf("malformed declaration %q", part)
		}
		value, important := splitImportant(collapseSpace(part[colon+1:]))
		if value == "" {
			return nil, fmt.Errorf("empty value for %q", prop)
		}
		out = append(out, Declaration{Property: prop, Value: value, Important: important})
	}
	return out, nil
}

// splitTopLevel cuts s at sep outside parentheses and quotes. Braces are
// not allowed in a body.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var (
		out   []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth == 0 {
				return nil, errors.New("unbalanced ')'")
			}
			depth--
		case c == '{' || c == '}':
			return nil, fmt.Errorf("unexpected %q in declarations", c)
		case c == sep && depth == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	switch {
	case quote != 0:
		return nil, errors.New("unterminated string")
	case depth != 0:
		return nil, errors.New("unbalanced '('")
	}
	return append(out, s[start:]), nil
}

func isProperty(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// splitImportant strips a trailing "!important".
func splitImportant(v string) (string, bool) {
	const flag = "!important"
	if len(v) >= len(flag) && strings.EqualFold(v[len(v)-len(flag):], flag) {
		return strings.TrimSpace(v[:len(v)-len(flag)]), true
	}
	return v, false
}

// collapseSpace trims v and folds whitespace runs outside quotes to one space.
func collapseSpace(v string) string {
	var (
		b     strings.Builder
		quote byte
		space bool
	)
	for i := 0; i < len(v); i++ {
		c := v[i]
		if quote == 0 && isSpace(c) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stripComments blanks /* */ comments, keeping newlines so line numbers hold.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '*' {
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				end = len(src) - i - 2
			}
			for _, c := range src[i : i+2+end] {
				if c == '\n' {
					b.WriteByte('\n')
				}
			}
			i += 2 + end + 1
			continue
		}
		b.WriteByte(src[i])
	}
	return b.String()
}

type block struct {
	text string
	line int
}

// splitBlocks cuts src into top-level "prelude { body }" blocks so one broken
// rule cannot take the rest of the sheet down with it.
func splitBlocks(src string) []block {
	var (
		out     []block
		depth   int
		start   int
		line    = 1
		first   = 1
		pending = true
		quote   byte
	)
	flush := func(end int) {
		if text := strings.TrimSpace(src[start:end]); text != "" {
			out = append(out, block{text: text, line: first})
		}
		start, pending = end, true
	}
	for i := 0; i < len(src); i++ {
		c := src[i]
		if pending && !isSpace(c) {
			first, pending = line, false
		}
		switch {
		case c == '\n':
			line++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth <= 0 {
				depth = 0
				flush(i + 1)
			}
		}
	}
	flush(len(src))
	return out
}
