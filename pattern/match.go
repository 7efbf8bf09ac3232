package pattern

import (
	"qcompile/circuit"
)

// Binding is the result of a successful match: the assignment of local
// slots to circuit qubits, the values bound to free variables, and the
// matched gate handles in template order.
type Binding struct {
	Qubits  map[int]int
	Vars    map[string]float64
	Handles []circuit.Handle
}

func (b *Binding) clone() *Binding {
	c := &Binding{
		Qubits:  make(map[int]int, len(b.Qubits)),
		Vars:    make(map[string]float64, len(b.Vars)),
		Handles: append([]circuit.Handle(nil), b.Handles...),
	}
	for k, v := range b.Qubits {
		c.Qubits[k] = v
	}
	for k, v := range b.Vars {
		c.Vars[k] = v
	}
	return c
}

// value resolves a variable occurrence against the binding. The second
// result is false when the variable is still unbound.
func (b *Binding) value(a Arg) (float64, bool) {
	var v float64
	switch {
	case a.Variable == nil:
		return a.Value, true
	case a.Variable.Fixed != nil:
		v = *a.Variable.Fixed
	default:
		bound, ok := b.Vars[a.Variable.Name]
		if !ok {
			return 0, false
		}
		v = bound
	}
	if a.Transform != nil {
		v = a.Transform(v)
	}
	return v, true
}

// FindOne scans the circuit in topological order and returns the first
// structurally- and value-consistent match of the pattern, where
// "first" means the earliest position of the pattern's first template.
// Inconsistent candidates are rejected silently and the scan continues;
// absence of a match is the normal false return, never an error.
func FindOne(g *circuit.Graph, p *Pattern) (*Binding, bool) {
	b, _, ok := findFrom(g, p, 0, nil)
	return b, ok
}

// Count returns the number of non-overlapping matches, scanning
// greedily in circuit order. Callers use it to test pattern existence
// without mutating.
func Count(g *circuit.Graph, p *Pattern) int {
	used := make(map[circuit.Handle]bool)
	n := 0
	start := 0
	for {
		b, anchor, ok := findFrom(g, p, start, used)
		if !ok {
			return n
		}
		n++
		for _, h := range b.Handles {
			used[h] = true
		}
		start = anchor + 1
	}
}

// FindAll returns every non-overlapping match in scan order. The
// optimizer uses it to pick a random occurrence instead of always the
// first.
func FindAll(g *circuit.Graph, p *Pattern) []*Binding {
	used := make(map[circuit.Handle]bool)
	var out []*Binding
	start := 0
	for {
		b, anchor, ok := findFrom(g, p, start, used)
		if !ok {
			return out
		}
		out = append(out, b)
		for _, h := range b.Handles {
			used[h] = true
		}
		start = anchor + 1
	}
}

// findFrom finds the first match whose anchor position is >= start and
// whose gates avoid the used set.
func findFrom(g *circuit.Graph, p *Pattern, start int, used map[circuit.Handle]bool) (*Binding, int, bool) {
	if len(p.Templates) == 0 {
		return nil, 0, false
	}
	order := g.TopologicalOrder()
	t0 := p.Templates[0]
	for i := start; i < len(order); i++ {
		h := order[i]
		if used[h] {
			continue
		}
		gate, _ := g.Gate(h)
		if !nameMatches(t0, gate) {
			continue
		}
		for _, orient := range orientations(t0, gate) {
			b := &Binding{Qubits: make(map[int]int), Vars: make(map[string]float64)}
			frontier := make(map[int]circuit.Handle)
			if !bindTemplate(b, frontier, t0, gate, h, orient) {
				continue
			}
			if full, ok := matchRest(g, p, 1, b, frontier, used); ok {
				return full, i, true
			}
		}
	}
	return nil, 0, false
}

// matchRest extends a partial match template by template. Each
// template after the first must be the immediate wire successor of the
// matched region on every shared wire; anything in between breaks the
// candidate.
func matchRest(g *circuit.Graph, p *Pattern, k int, b *Binding, frontier map[int]circuit.Handle, used map[circuit.Handle]bool) (*Binding, bool) {
	if k == len(p.Templates) {
		return b, true
	}
	t := p.Templates[k]

	// Locate the candidate gate: the forward wire neighbor of the
	// frontier, identical across every already-bound shared wire.
	var cand circuit.Handle
	found := false
	for _, s := range t.Slots {
		q, bound := b.Qubits[s]
		if !bound {
			continue
		}
		next, ok := g.NeighborOnWire(frontier[q], q, circuit.Forward)
		if !ok {
			return nil, false
		}
		if found && next != cand {
			return nil, false
		}
		cand = next
		found = true
	}
	if !found || used[cand] {
		return nil, false
	}
	gate, ok := g.Gate(cand)
	if !ok || !nameMatches(t, gate) {
		return nil, false
	}

	for _, orient := range orientations(t, gate) {
		nb := b.clone()
		nf := make(map[int]circuit.Handle, len(frontier))
		for q, h := range frontier {
			nf[q] = h
		}
		if !bindTemplate(nb, nf, t, gate, cand, orient) {
			continue
		}
		if full, ok := matchRest(g, p, k+1, nb, nf, used); ok {
			return full, true
		}
	}
	return nil, false
}

// bindTemplate records the slot and variable assignments a gate
// induces under the given operand order, rejecting inconsistencies.
func bindTemplate(b *Binding, frontier map[int]circuit.Handle, t Template, gate circuit.Gate, h circuit.Handle, qubits []int) bool {
	// Slot assignment must stay a bijection.
	for j, s := range t.Slots {
		q := qubits[j]
		if bound, ok := b.Qubits[s]; ok {
			if bound != q {
				return false
			}
			continue
		}
		for _, other := range b.Qubits {
			if other == q {
				return false
			}
		}
		b.Qubits[s] = q
	}

	if len(gate.Params) != len(t.Args) {
		return false
	}
	for j, a := range t.Args {
		got := gate.Params[j]
		want, resolved := b.value(a)
		if resolved {
			if !circuit.ParamsEqual(got, want) {
				return false
			}
			continue
		}
		// First occurrence of a free variable binds it, unless the
		// value is forbidden.
		if a.Variable.forbids(got) {
			return false
		}
		b.Vars[a.Variable.Name] = got
	}

	for _, q := range qubits {
		frontier[q] = h
	}
	b.Handles = append(b.Handles, h)
	return true
}

// nameMatches checks name, operand count and dagger flag. Gates outside
// the catalogue are compared structurally the same way.
func nameMatches(t Template, gate circuit.Gate) bool {
	return gate.Name == t.Name && len(gate.Qubits) == len(t.Slots) && gate.Dagger == t.Dagger
}

// orientations lists the operand orders to try: one for directed
// templates, both (lower qubit pair first) for undirected ones.
func orientations(t Template, gate circuit.Gate) [][]int {
	direct := append([]int(nil), gate.Qubits...)
	if !t.Undirected {
		return [][]int{direct}
	}
	flipped := []int{gate.Qubits[1], gate.Qubits[0]}
	if gate.Qubits[0] <= gate.Qubits[1] {
		return [][]int{direct, flipped}
	}
	return [][]int{flipped, direct}
}
