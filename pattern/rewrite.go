package pattern

import (
	"fmt"

	"github.com/pkg/errors"

	"qcompile/circuit"
)

// ReplaceOne finds one occurrence of old, substitutes the bound
// variables into the replacement, and splices it into the graph.
// It returns false with no error when old is absent: pattern-absent is
// the normal termination condition of repeat-until-fixed-point loops.
//
// The replacement must be directed (already oriented by the author),
// must use only slots the old pattern binds, and must only reference
// variables old binds or fixed variables. Violations surface as
// InvalidPatternError; a replacement that would change wire topology
// surfaces the graph's InvalidEditError.
func ReplaceOne(g *circuit.Graph, old, repl *Pattern) (bool, error) {
	if err := checkReplacement(old, repl); err != nil {
		return false, err
	}
	b, ok := FindOne(g, old)
	if !ok {
		return false, nil
	}
	gates, err := instantiate(repl, b)
	if err != nil {
		return false, err
	}
	if _, err := g.Replace(b.Handles, gates); err != nil {
		return false, errors.Wrap(err, "replace one")
	}
	return true, nil
}

// Apply substitutes the replacement at a specific binding, previously
// produced by FindOne or FindAll against an unmodified graph.
func Apply(g *circuit.Graph, old, repl *Pattern, b *Binding) error {
	if err := checkReplacement(old, repl); err != nil {
		return err
	}
	gates, err := instantiate(repl, b)
	if err != nil {
		return err
	}
	if _, err := g.Replace(b.Handles, gates); err != nil {
		return errors.Wrap(err, "apply")
	}
	return nil
}

// RemoveOne is sugar for replacing old with the empty pattern.
func RemoveOne(g *circuit.Graph, old *Pattern) (bool, error) {
	return ReplaceOne(g, old, Empty())
}

// ReplaceAll applies ReplaceOne until the pattern disappears or limit
// applications have been made (limit <= 0 means unbounded). Returns
// the number of applications.
func ReplaceAll(g *circuit.Graph, old, repl *Pattern, limit int) (int, error) {
	n := 0
	for limit <= 0 || n < limit {
		ok, err := ReplaceOne(g, old, repl)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
	return n, nil
}

// checkReplacement validates the old/replacement pair.
func checkReplacement(old, repl *Pattern) error {
	oldSlots := old.slots()
	oldVars := make(map[string]bool)
	for _, t := range old.Templates {
		for _, a := range t.Args {
			if a.Variable != nil {
				oldVars[a.Variable.Name] = true
			}
		}
	}
	for i, t := range repl.Templates {
		if t.Undirected {
			return errors.Wrap(&InvalidPatternError{
				Reason: fmt.Sprintf("replacement template %d is undirected; replacements must be oriented", i),
			}, "check replacement")
		}
		for _, s := range t.Slots {
			if !oldSlots[s] {
				return errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("replacement template %d uses unbound slot %d", i, s),
				}, "check replacement")
			}
		}
		for _, a := range t.Args {
			if a.Variable != nil && a.Variable.Fixed == nil && !oldVars[a.Variable.Name] {
				return errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("replacement references unbound variable %s", a.Variable.Name),
				}, "check replacement")
			}
		}
	}
	return nil
}

// instantiate turns the replacement into concrete gates under a
// binding.
func instantiate(repl *Pattern, b *Binding) ([]circuit.Gate, error) {
	gates := make([]circuit.Gate, 0, len(repl.Templates))
	for _, t := range repl.Templates {
		qubits := make([]int, len(t.Slots))
		for j, s := range t.Slots {
			qubits[j] = b.Qubits[s]
		}
		params := make([]float64, 0, len(t.Args))
		for _, a := range t.Args {
			v, ok := b.value(a)
			if !ok {
				return nil, errors.Wrap(&InvalidPatternError{
					Reason: fmt.Sprintf("variable %s unbound at substitution", a.Variable.Name),
				}, "instantiate")
			}
			params = append(params, v)
		}
		gates = append(gates, circuit.Gate{
			Name:   t.Name,
			Qubits: qubits,
			Params: params,
			Dagger: t.Dagger,
		})
	}
	return gates, nil
}
