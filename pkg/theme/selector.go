package theme

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrSelector is wrapped by every selector syntax error.
var ErrSelector = errors.New("invalid selector")

// Combinator joins two compounds of a selector.
type Combinator int

const (
	// Descendant matches any ancestor ("A B").
	Descendant Combinator = iota
	// Child matches the direct parent ("A > B").
	Child
)

// State is a pseudo-state such as :hover or the negated :!enabled.
type State struct {
	Name    string
	Negated bool
}

func (s State) String() string {
	if s.Negated {
		return ":!" + s.Name
	}
	return ":" + s.Name
}

// Attribute is a property selector: [flat="true"] or the presence test [flat].
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
}

func (a Attribute) String() string {
	if !a.HasValue {
		return "[" + a.Name + "]"
	}
	return fmt.Sprintf("[%s=%q]", a.Name, a.Value)
}

// Compound is one element of a selector, e.g. QPushButton#ok:hover.
type Compound struct {
	Type       string // widget class, "*" or empty
	Exact      bool   // .QPushButton: the class itself, no subclasses
	ID         string // object name
	Attributes []Attribute
	SubControl string
	States     []State
}

func (c Compound) String() string {
	var b strings.Builder
	if c.Exact {
		b.WriteByte('.')
	}
	b.WriteString(c.Type)
	if c.ID != "" {
		b.WriteString("#" + c.ID)
	}
	for _, a := range c.Attributes {
		b.WriteString(a.String())
	}
	if c.SubControl != "" {
		b.WriteString("::" + c.SubControl)
	}
	for _, s := range c.States {
		b.WriteString(s.String())
	}
	return b.String()
}

// Specificity orders competing selectors. Higher wins.
type Specificity struct {
	IDs     int
	Classes int // states, attributes and exact class selectors
	Types   int // type names and sub-controls
}

// Less reports whether s ranks below o.
func (s Specificity) Less(o Specificity) bool {
	if s.IDs != o.IDs {
		return s.IDs < o.IDs
	}
	if s.Classes != o.Classes {
		return s.Classes < o.Classes
	}
	return s.Types < o.Types
}

func (s Specificity) String() string {
	return fmt.Sprintf("%d,%d,%d", s.IDs, s.Classes, s.Types)
}

// Selector is a chain of compounds. Combinators[i] joins Parts[i] and Parts[i+1].
type Selector struct {
	Parts       []Compound
	Combinators []Combinator
}

func (s Selector) String() string {
	var b strings.Builder
	for i, p := range s.Parts {
		if i > 0 {
			if s.Combinators[i-1] == Child {
				b.WriteString(" > ")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(p.String())
	}
	return b.String()
}

func (s Selector) clone() Selector {
	parts := make([]Compound, len(s.Parts))
	for i, p := range s.Parts {
		p.Attributes = slices.Clone(p.Attributes)
		p.States = slices.Clone(p.States)
		parts[i] = p
	}
	return Selector{Parts: parts, Combinators: slices.Clone(s.Combinators)}
}

// Specificity sums the specificity of every compound.
func (s Selector) Specificity() Specificity {
	var sp Specificity
	for _, p := range s.Parts {
		if p.ID != "" {
			sp.IDs++
		}
		sp.Classes += len(p.States) + len(p.Attributes)
		switch {
		case p.Exact:
			sp.Classes++
		case p.Type != "" && p.Type != "*":
			sp.Types++
		}
		if p.SubControl != "" {
			sp.Types++
		}
	}
	return sp
}

// Matches reports whether the selector applies to w.
func (s Selector) Matches(w Widget) bool {
	if len(s.Parts) == 0 {
		return false
	}
	return s.matchFrom(len(s.Parts)-1, &w)
}

func (s Selector) matchFrom(i int, w *Widget) bool {
	if !s.Parts[i].matches(w, i == len(s.Parts)-1) {
		return false
	}
	if i == 0 {
		return true
	}
	if s.Combinators[i-1] == Child {
		return w.Parent != nil && s.matchFrom(i-1, w.Parent)
	}
	for p := w.Parent; p != nil; p = p.Parent {
		if s.matchFrom(i-1, p) {
			return true
		}
	}
	return false
}

func (c Compound) matches(w *Widget, subject bool) bool {
	switch {
	case c.Type == "" || c.Type == "*":
	case c.Exact:
		if w.Class != c.Type {
			return false
		}
	default:
		if !w.IsA(c.Type) {
			return false
		}
	}
	if c.ID != "" && w.Name != c.ID {
		return false
	}
	if subject && c.SubControl != w.SubControl {
		return false
	}
	for _, a := range c.Attributes {
		v, ok := w.Properties[a.Name]
		if !ok || (a.HasValue && v != a.Value) {
			return false
		}
	}
	for _, st := range c.States {
		if w.HasState(st.Name) == st.Negated {
			return false
		}
	}
	return true
}

// ParseSelector parses a single selector (no commas).
func ParseSelector(src string) (Selector, error) {
	p := &selectorParser{src: strings.TrimSpace(src)}
	sel, err := p.parse()
	if err != nil {
		return Selector{}, fmt.Errorf("%w %q: %v", ErrSelector, src, err)
	}
	return sel, nil
}

// ParseSelectorList parses a comma-separated selector list.
func ParseSelectorList(src string) ([]Selector, error) {
	var out []Selector
	for _, part := range strings.Split(src, ",") {
		sel, err := ParseSelector(part)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

type selectorParser struct {
	src string
	pos int
}

func (p *selectorParser) parse() (Selector, error) {
	var sel Selector
	if p.src == "" {
		return sel, errors.New("empty selector")
	}

	for {
		c, err := p.compound()
		if err != nil {
			return sel, err
		}
		sel.Parts = append(sel.Parts, c)

		sawSpace := p.skipSpace()
		if p.eof() {
			break
		}
		comb := Descendant
		if p.peek() == '>' {
			comb = Child
			p.pos++
			p.skipSpace()
		} else if !sawSpace {
			return sel, fmt.Errorf("unexpected %q at offset %d", p.peek(), p.pos)
		}
		if p.eof() {
			return sel, errors.New("dangling combinator")
		}
		sel.Combinators = append(sel.Combinators, comb)
	}

	for _, c := range sel.Parts[:len(sel.Parts)-1] {
		if c.SubControl != "" {
			return sel, fmt.Errorf("sub-control ::%s must be on the last element", c.SubControl)
		}
	}
	return sel, nil
}

func (p *selectorParser) compound() (Compound, error) {
	var c Compound
	start := p.pos

	switch {
	case p.eof():
	case p.peek() == '*':
		c.Type = "*"
		p.pos++
	case p.peek() == '.':
		p.pos++
		c.Exact = true
		c.Type = p.ident()
		if c.Type == "" {
			return c, errors.New("class name expected after '.'")
		}
	case isIdentStart(p.peek()):
		c.Type = p.ident()
	}

	for !p.eof() {
		switch ch := p.peek(); {
		case ch == '#':
			p.pos++
			if c.ID = p.ident(); c.ID == "" {
				return c, errors.New("object name expected after '#'")
			}
		case ch == '[':
			a, err := p.attribute()
			if err != nil {
				return c, err
			}
			c.Attributes = append(c.Attributes, a)
		case strings.HasPrefix(p.src[p.pos:], "::"):
			p.pos += 2
			if c.SubControl != "" {
				return c, errors.New("only one sub-control per element")
			}
			if c.SubControl = p.ident(); c.SubControl == "" {
				return c, errors.New("sub-control name expected after '::'")
			}
		case ch == ':':
			p.pos++
			st := State{}
			if !p.eof() && p.peek() == '!' {
				st.Negated = true
				p.pos++
			}
			if st.Name = p.ident(); st.Name == "" {
				return c, errors.New("state name expected after ':'")
			}
			c.States = append(c.States, st)
		default:
			if p.pos == start {
				return c, fmt.Errorf("unexpected %q at offset %d", ch, p.pos)
			}
			return c, nil
		}
	}
	if p.pos == start {
		return c, errors.New("element expected")
	}
	return c, nil
}

func (p *selectorParser) attribute() (Attribute, error) {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return Attribute{}, errors.New("unterminated attribute")
	}
	body := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1

	name, value, hasValue := strings.Cut(body, "=")
	a := Attribute{Name: strings.TrimSpace(name), HasValue: hasValue}
	if a.Name == "" {
		return a, errors.New("attribute name expected")
	}
	if hasValue {
		a.Value = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	return a, nil
}

func (p *selectorParser) ident() string {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *selectorParser) skipSpace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
	return p.pos > start
}

func (p *selectorParser) eof() bool  { return p.pos >= len(p.src) }
func (p *selectorParser) peek() byte { return p.src[p.pos] }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
