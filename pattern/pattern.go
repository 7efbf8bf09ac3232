// Package pattern implements gate-sequence templates with free
// variables and the matcher/rewriter that applies them to a circuit
// graph. Patterns are the authoring surface of the optimizer: a
// pattern is literally an ordered list of (gate name, qubit slots,
// params) templates, where slots given as an unordered pair denote
// commutative matching.
package pattern

import (
	"fmt"

	"github.com/pkg/errors"

	"qcompile/circuit"
)

// InvalidPatternError reports a template whose shape is wrong at
// authoring time: bad arity, a disconnected template, or a variable
// whose first occurrence cannot bind. Detected eagerly by Validate.
type InvalidPatternError struct {
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return "invalid pattern: " + e.Reason
}

// Variable is a parameter placeholder shared across a pattern. A free
// variable binds on its first occurrence and must agree everywhere
// else in the same match. A fixed variable carries a value. The
// forbidden set expresses guards like "any angle except the
// hardware-native ones": binding to a forbidden value rejects the
// candidate match and scanning continues.
type Variable struct {
	Name      string
	Fixed     *float64
	Forbidden []float64
}

// Var declares a free variable.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// Fixed declares a variable carrying a constant value.
func Fixed(name string, v float64) *Variable {
	return &Variable{Name: name, Fixed: &v}
}

// Excluding adds forbidden values to the variable and returns it, so
// declarations chain: Var("t").Excluding(0, math.Pi).
func (v *Variable) Excluding(vals ...float64) *Variable {
	v.Forbidden = append(v.Forbidden, vals...)
	return v
}

func (v *Variable) forbids(val float64) bool {
	for _, f := range v.Forbidden {
		if circuit.ParamsEqual(val, f) {
			return true
		}
	}
	return false
}

// Arg is one parameter position of a template: a literal, a variable
// occurrence, or a variable occurrence viewed through a transform.
// When matching, the gate parameter must equal the transformed bound
// value; when substituting, the transformed bound value is emitted.
type Arg struct {
	Value     float64
	Variable  *Variable
	Transform func(float64) float64
}

// Lit builds a literal argument.
func Lit(v float64) Arg {
	return Arg{Value: v}
}

// Ref builds a plain variable occurrence.
func Ref(v *Variable) Arg {
	return Arg{Variable: v}
}

// RefT builds a variable occurrence compared and substituted through
// a transform, e.g. RefT(theta, func(x float64) float64 { return -x }).
func RefT(v *Variable, f func(float64) float64) Arg {
	return Arg{Variable: v, Transform: f}
}

// Template is one gate position of a pattern. Slots are local qubit
// indices; two templates sharing a slot match gates sharing a wire.
// Undirected templates (two-qubit only) match under either operand
// order; the author asserts the orderings are equivalent.
type Template struct {
	Name       string
	Slots      []int
	Args       []Arg
	Undirected bool
	Dagger     bool
}

// T builds a directed template.
func T(name string, slots ...int) Template {
	return Template{Name: name, Slots: slots}
}

// U builds an undirected two-qubit template: the slot pair is a set.
func U(name string, a, b int) Template {
	return Template{Name: name, Slots: []int{a, b}, Undirected: true}
}

// WithArgs attaches parameter arguments to the template.
func (t Template) WithArgs(args ...Arg) Template {
	t.Args = args
	return t
}

// Adj marks the template as matching the dagger form of the gate.
func (t Template) Adj() Template {
	t.Dagger = true
	return t
}

// Pattern is an ordered gate-sequence template.
type Pattern struct {
	Templates []Template
}

// New builds a pattern and validates it eagerly, returning
// InvalidPatternError on shape violations.
func New(templates ...Template) (*Pattern, error) {
	p := &Pattern{Templates: templates}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Must is New for statically-known patterns; it panics on invalid
// shapes. Pattern libraries use it at package init.
func Must(templates ...Template) *Pattern {
	p, err := New(templates...)
	if err != nil {
		panic(err)
	}
	return p
}

// Empty is the zero-gate pattern, the replacement side of removal
// rules.
func Empty() *Pattern {
	return &Pattern{}
}

// Validate checks template arity against the gate catalogue, slot
// distinctness, pattern connectivity (every template after the first
// shares a slot with an earlier one, which the matcher relies on), and
// that the first occurrence of every free variable is untransformed so
// it can bind.
func (p *Pattern) Validate() error {
	seenSlots := make(map[int]bool)
	boundVars := make(map[string]bool)
	for i, t := range p.Templates {
		if info, ok := circuit.Lookup(t.Name); ok {
			if len(t.Slots) != info.Arity {
				return errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("template %d: %s wants %d qubits, has %d slots", i, t.Name, info.Arity, len(t.Slots)),
				}, "validate")
			}
			if len(t.Args) != info.NumParams {
				return errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("template %d: %s wants %d params, has %d args", i, t.Name, info.NumParams, len(t.Args)),
				}, "validate")
			}
		}
		if t.Undirected && len(t.Slots) != 2 {
			return errors.Wrap(&InvalidPatternError{
				Reason: fmt.Sprintf("template %d: undirected templates must have exactly two slots", i),
			}, "validate")
		}
		local := make(map[int]bool)
		shares := i == 0
		for _, s := range t.Slots {
			if s < 0 {
				return errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("template %d: negative slot %d", i, s),
				}, "validate")
			}
			if local[s] {
				return errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("template %d: slot %d repeated", i, s),
				}, "validate")
			}
			local[s] = true
			if seenSlots[s] {
				shares = true
			}
		}
		if !shares && len(t.Slots) > 0 {
			return errors.Wrap(&InvalidPatternError{
				Reason: fmt.Sprintf("template %d shares no slot with earlier templates", i),
			}, "validate")
		}
		for _, s := range t.Slots {
			seenSlots[s] = true
		}
		for _, a := range t.Args {
			if a.Variable == nil {
				continue
			}
			if a.Variable.Fixed == nil && !boundVars[a.Variable.Name] {
				if a.Transform != nil {
					return errors.Wrap(&InvalidPatternError{
						Reason: fmt.Sprintf("variable %s: first occurrence cannot carry a transform", a.Variable.Name),
					}, "validate")
				}
				boundVars[a.Variable.Name] = true
			}
		}
	}
	return nil
}

// slots returns the set of local slots the pattern uses.
func (p *Pattern) slots() map[int]bool {
	out := make(map[int]bool)
	for _, t := range p.Templates {
		for _, s := range t.Slots {
			out[s] = true
		}
	}
	return out
}
