package theme

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

// Declaration is one "property: value" pair of a rule.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important;"
	}
	return d.Property + ": " + d.Value + ";"
}

// Rule pairs a selector list with its declarations.
type Rule struct {
	Selectors    []Selector
	Declarations []Declaration
}

// Selector returns the rule's selector list as written.
func (r Rule) Selector() string {
	parts := make([]string, len(r.Selectors))
	for i, s := range r.Selectors {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Selector())
	b.WriteString(" {\n")
	for _, d := range r.Declarations {
		b.WriteString("    ")
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.String()
}

// Sheet is an ordered, immutable rule set.
type Sheet struct {
	rules []Rule
}

// NewSheet returns a sheet holding rules in order.
func NewSheet(rules ...Rule) *Sheet {
	return (&Sheet{rules: rules}).clone()
}

func (s *Sheet) clone() *Sheet {
	return &Sheet{rules: s.Rules()}
}

// Rules returns a deep copy of the sheet's rules.
func (s *Sheet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		sels := make([]Selector, len(r.Selectors))
		for j, sel := range r.Selectors {
			sels[j] = sel.clone()
		}
		out[i] = Rule{Selectors: sels, Declarations: slices.Clone(r.Declarations)}
	}
	return out
}

// Len returns the number of rules.
func (s *Sheet) Len() int { return len(s.rules) }

// Empty reports whether the sheet has no rules.
func (s *Sheet) Empty() bool { return len(s.rules) == 0 }

// Append returns a new sheet with other's rules after s's. Neither input changes.
func (s *Sheet) Append(other *Sheet) *Sheet {
	rules := slices.Clone(s.rules)
	if other != nil {
		rules = append(rules, other.rules...)
	}
	return &Sheet{rules: rules}
}

// String re-emits the sheet as QSS. Parsing the result yields an equivalent sheet.
func (s *Sheet) String() string {
	var b strings.Builder
	for i, r := range s.rules {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(r.String())
	}
	return b.String()
}

// Applied explains where a resolved property came from.
type Applied struct {
	Property    string
	Value       string
	Important   bool
	Selector    string
	Specificity Specificity
	order       int
}

// Explain returns every declaration that applies to w, in cascade order:
// later entries override earlier ones for the same property.
func (s *Sheet) Explain(w Widget) []Applied {
	var out []Applied
	order := 0
	for _, r := range s.rules {
		best, matched := Specificity{}, ""
		for _, sel := range r.Selectors {
			if !sel.Matches(w) {
				continue
			}
			if sp := sel.Specificity(); matched == "" || best.Less(sp) {
				best, matched = sp, sel.String()
			}
		}
		for _, d := range r.Declarations {
			order++
			if matched == "" {
				continue
			}
			out = append(out, Applied{
				Property:    d.Property,
				Value:       d.Value,
				Important:   d.Important,
				Selector:    matched,
				Specificity: best,
				order:       order,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Important != b.Important {
			return !a.Important
		}
		if a.Specificity != b.Specificity {
			return a.Specificity.Less(b.Specificity)
		}
		return a.order < b.order
	})
	return out
}

// Resolve returns the properties the sheet gives w.
func (s *Sheet) Resolve(w Widget) Properties {
	props := make(Properties)
	for _, a := range s.Explain(w) {
		props[a.Property] = a.Value
	}
	return props
}

// Properties is a resolved property map keyed by lowercase property name.
type Properties map[string]string

// Get returns the value of name.
func (p Properties) Get(name string) (string, bool) {
	v, ok := p[strings.ToLower(name)]
	return v, ok
}

// Names returns the property names in sorted order.
func (p Properties) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Color returns the first color found in the value of name, as #rrggbb.
func (p Properties) Color(name string) (string, bool) {
	v, ok := p.Get(name)
	if !ok {
		return "", false
	}
	return FindColor(v)
}

func (p Properties) String() string {
	var b strings.Builder
	for i, name := range p.Names() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name + ": " + p[name])
	}
	return b.String()
}
