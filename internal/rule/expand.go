package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loaneye/internal/models"
)

// VariableSet holds variable rules in save order. A definition references
// another variable wherever that variable's name occurs in its text; at any
// position the longest matching token wins. Literal tokens, such as system
// variable labels, take part in matching but are never substituted, so a
// label containing a variable name is left intact.
type VariableSet struct {
	order    []string
	defs     map[string]string
	literals map[string]bool
}

func NewVariableSet(literals ...string) *VariableSet {
	v := &VariableSet{defs: make(map[string]string), literals: make(map[string]bool)}
	for _, l := range literals {
		if l != "" {
			v.literals[l] = true
		}
	}
	return v
}

func (v *VariableSet) Len() int {
	return len(v.order)
}

func (v *VariableSet) Get(name string) (string, bool) {
	def, ok := v.defs[name]
	return def, ok
}

// Names returns variable names in save order.
func (v *VariableSet) Names() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

func (v *VariableSet) Rules() []models.VariableRule {
	out := make([]models.VariableRule, 0, len(v.order))
	for _, name := range v.order {
		out = append(out, models.VariableRule{Name: name, Definition: v.defs[name]})
	}
	return out
}

// Map returns name -> unexpanded definition.
func (v *VariableSet) Map() map[string]string {
	out := make(map[string]string, len(v.defs))
	for k, d := range v.defs {
		out[k] = d
	}
	return out
}

func (v *VariableSet) clone() *VariableSet {
	c := NewVariableSet()
	c.literals = v.literals
	c.order = append(c.order, v.order...)
	for k, d := range v.defs {
		c.defs[k] = d
	}
	return c
}

// set stores def under name, keeping its position on replace.
func (v *VariableSet) set(name, def string) {
	if _, ok := v.defs[name]; !ok {
		v.order = append(v.order, name)
	}
	v.defs[name] = def
}

// Put stores def under name unless doing so would create a circular
// reference, in which case the set is left unchanged.
func (v *VariableSet) Put(name, def string) error {
	if v.literals[name] {
		return models.NewValidationError("name",
			fmt.Sprintf("%q is a system variable and cannot be redefined", name))
	}
	next := v.clone()
	next.set(name, def)
	if err := next.checkAcyclic(); err != nil {
		return err
	}
	v.order, v.defs = next.order, next.defs
	return nil
}

// matchOrder lists names and literals longest first, ties broken lexically.
func (v *VariableSet) matchOrder() []string {
	names := v.Names()
	for l := range v.literals {
		names = append(names, l)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

func matchAt(text string, i int, names []string) string {
	for _, name := range names {
		if name != "" && strings.HasPrefix(text[i:], name) {
			return name
		}
	}
	return ""
}

// References returns the distinct variable names text refers to, in order
// of first occurrence.
func (v *VariableSet) References(text string) []string {
	names := v.matchOrder()
	seen := make(map[string]bool)
	var refs []string
	for i := 0; i < len(text); {
		name := matchAt(text, i, names)
		if name == "" {
			i++
			continue
		}
		if !seen[name] && !v.literals[name] {
			seen[name] = true
			refs = append(refs, name)
		}
		i += len(name)
	}
	return refs
}

// Graph returns each variable's direct references.
func (v *VariableSet) Graph() map[string][]string {
	g := make(map[string][]string, len(v.order))
	for _, name := range v.order {
		g[name] = v.References(v.defs[name])
	}
	return g
}

type expansion struct {
	set   *VariableSet
	names []string
	done  map[string]string
	stack []string
}

// Expand substitutes every variable reference in text with its fully
// expanded definition in parentheses.
func (v *VariableSet) Expand(text string) (string, error) {
	e := &expansion{set: v, names: v.matchOrder(), done: make(map[string]string)}
	return e.text(text)
}

func (v *VariableSet) checkAcyclic() error {
	e := &expansion{set: v, names: v.matchOrder(), done: make(map[string]string)}
	for _, name := range v.order {
		if _, err := e.variable(name); err != nil {
			return err
		}
	}
	return nil
}

func (e *expansion) text(text string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(text); {
		name := matchAt(text, i, e.names)
		if name == "" {
			b.WriteByte(text[i])
			i++
			continue
		}
		i += len(name)
		if e.set.literals[name] {
			b.WriteString(name)
			continue
		}
		body, err := e.variable(name)
		if err != nil {
			return "", err
		}
		b.WriteString("(" + body + ")")
	}
	return b.String(), nil
}

func (e *expansion) variable(name string) (string, error) {
	if body, ok := e.done[name]; ok {
		return body, nil
	}
	for i, n := range e.stack {
		if n == name {
			cycle := append(append([]string{}, e.stack[i:]...), name)
			return "", models.NewValidationError("name",
				fmt.Sprintf("circular variable reference: %s", strings.Join(cycle, " -> ")))
		}
	}

	e.stack = append(e.stack, name)
	body, err := e.text(e.set.defs[name])
	e.stack = e.stack[:len(e.stack)-1]
	if err != nil {
		return "", err
	}
	e.done[name] = body
	return body, nil
}
