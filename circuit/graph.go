package circuit

import (
	"fmt"

	"github.com/pkg/errors"
)

// Handle identifies a gate node inside a Graph. Handles are stable
// across unrelated edits and never reused within one Graph.
type Handle int

// InvalidEditError reports a structural edit that would change wire
// topology. It always indicates a programming error in a pattern
// library and is never retried.
type InvalidEditError struct {
	Reason string
}

func (e *InvalidEditError) Error() string {
	return "invalid edit: " + e.Reason
}

// Direction selects which wire neighbor to walk to.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Graph is an editable circuit intermediate representation: an ordered
// gate sequence plus, per qubit, the totally ordered list of gates
// touching that qubit. The per-qubit orderings always agree with the
// sequence order, which is itself a valid topological order of the
// circuit DAG. Every edit re-establishes this invariant before
// returning.
//
// A Graph is single-writer: it must not be mutated concurrently.
// Clone is cheap enough that parallel search trials each take a
// private copy.
type Graph struct {
	NumQubits int

	nodes map[Handle]Gate
	seq   []Handle   // circuit order, a valid topological order
	wires [][]Handle // wires[q] lists handles touching qubit q, in order
	next  Handle

	scopes []int // stack of sequence positions, see PushScope
}

// New creates an empty circuit over the given number of qubits.
func New(numQubits int) *Graph {
	return &Graph{
		NumQubits: numQubits,
		nodes:     make(map[Handle]Gate),
		wires:     make([][]Handle, numQubits),
	}
}

// Len returns the number of gates in the circuit.
func (g *Graph) Len() int {
	return len(g.seq)
}

// Gate returns the gate stored under a handle.
func (g *Graph) Gate(h Handle) (Gate, bool) {
	gt, ok := g.nodes[h]
	return gt, ok
}

// touchedWires returns the qubit wires a gate occupies. A barrier-class
// gate with no operands spans every wire, so nothing matches or moves
// across it.
func (g *Graph) touchedWires(gate Gate) []int {
	if len(gate.Qubits) == 0 && IsOpaque(gate.Name) {
		all := make([]int, g.NumQubits)
		for q := range all {
			all[q] = q
		}
		return all
	}
	return gate.Qubits
}

// Insert appends a gate at the end of the circuit and returns its
// handle. Qubit indices outside the register grow the register.
func (g *Graph) Insert(gate Gate) Handle {
	for _, q := range gate.Qubits {
		for q >= g.NumQubits {
			g.NumQubits++
			g.wires = append(g.wires, nil)
		}
	}
	h := g.next
	g.next++
	g.nodes[h] = gate
	g.seq = append(g.seq, h)
	for _, q := range g.touchedWires(gate) {
		g.wires[q] = append(g.wires[q], h)
	}
	return h
}

// Remove deletes a single gate. The wire stitches through: the former
// predecessor and successor on every touched qubit become neighbors.
func (g *Graph) Remove(h Handle) error {
	gate, ok := g.nodes[h]
	if !ok {
		return errors.Wrap(&InvalidEditError{Reason: fmt.Sprintf("unknown handle %d", h)}, "remove")
	}
	delete(g.nodes, h)
	g.seq = deleteHandle(g.seq, h)
	for _, q := range g.touchedWires(gate) {
		g.wires[q] = deleteHandle(g.wires[q], h)
	}
	return nil
}

// Replace substitutes a span of gates with new gates, splicing the new
// gates in at the position of the removed span. This is the sole edit
// primitive used by rewriting.
//
// The edit fails with InvalidEditError unless, on every touched wire,
// the span is contiguous (no foreign gate interleaves) and the new
// gates touch exactly the same qubit set as the span. An empty
// replacement is always structurally legal: the touched wires stitch
// through. No unitary-equivalence check happens here; that is the
// pattern author's contract.
func (g *Graph) Replace(span []Handle, gates []Gate) ([]Handle, error) {
	if len(span) == 0 {
		return nil, errors.Wrap(&InvalidEditError{Reason: "empty span"}, "replace")
	}
	inSpan := make(map[Handle]bool, len(span))
	oldQubits := make(map[int]bool)
	for _, h := range span {
		gate, ok := g.nodes[h]
		if !ok {
			return nil, errors.Wrap(&InvalidEditError{Reason: fmt.Sprintf("unknown handle %d", h)}, "replace")
		}
		if inSpan[h] {
			return nil, errors.Wrap(&InvalidEditError{Reason: fmt.Sprintf("duplicate handle %d", h)}, "replace")
		}
		inSpan[h] = true
		for _, q := range g.touchedWires(gate) {
			oldQubits[q] = true
		}
	}

	// The span must occupy a contiguous run on every touched wire.
	for q := range oldQubits {
		first, last := -1, -1
		for i, h := range g.wires[q] {
			if inSpan[h] {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		for i := first; i <= last; i++ {
			if !inSpan[g.wires[q][i]] {
				return nil, errors.Wrap(&InvalidEditError{
					Reason: fmt.Sprintf("span not contiguous on qubit %d", q),
				}, "replace")
			}
		}
	}

	// Non-empty replacements must touch exactly the removed wires:
	// anything else silently drops or grows a wire.
	if len(gates) > 0 {
		newQubits := make(map[int]bool)
		for _, gate := range gates {
			for _, q := range gate.Qubits {
				newQubits[q] = true
			}
		}
		if len(newQubits) != len(oldQubits) {
			return nil, errors.Wrap(&InvalidEditError{Reason: "replacement touches different wires"}, "replace")
		}
		for q := range newQubits {
			if !oldQubits[q] {
				return nil, errors.Wrap(&InvalidEditError{
					Reason: fmt.Sprintf("replacement touches qubit %d outside span", q),
				}, "replace")
			}
		}
	}

	// Splice point: the earliest sequence position of the span.
	at := -1
	for i, h := range g.seq {
		if inSpan[h] {
			at = i
			break
		}
	}

	newHandles := make([]Handle, len(gates))
	for i, gate := range gates {
		h := g.next
		g.next++
		g.nodes[h] = gate
		newHandles[i] = h
	}

	// Rebuild the sequence with the span removed and the new handles
	// spliced in at the span start.
	seq := make([]Handle, 0, len(g.seq)-len(span)+len(gates))
	for i, h := range g.seq {
		if i == at {
			seq = append(seq, newHandles...)
		}
		if !inSpan[h] {
			seq = append(seq, h)
		}
	}
	if at == len(g.seq) {
		seq = append(seq, newHandles...)
	}
	g.seq = seq

	// Rebuild each touched wire: the contiguous run is replaced by the
	// new handles in replacement order.
	for q := range oldQubits {
		wire := make([]Handle, 0, len(g.wires[q]))
		spliced := false
		for _, h := range g.wires[q] {
			if inSpan[h] {
				if !spliced {
					for i, nh := range newHandles {
						if gates[i].References(q) {
							wire = append(wire, nh)
						}
					}
					spliced = true
				}
				continue
			}
			wire = append(wire, h)
		}
		g.wires[q] = wire
	}

	for _, h := range span {
		delete(g.nodes, h)
	}
	return newHandles, nil
}

// NeighborOnWire returns the next gate touching the given qubit, walking
// forward or backward from h. The boolean is false at the wire end or
// when h does not touch the qubit.
func (g *Graph) NeighborOnWire(h Handle, qubit int, dir Direction) (Handle, bool) {
	if qubit < 0 || qubit >= g.NumQubits {
		return 0, false
	}
	wire := g.wires[qubit]
	for i, wh := range wire {
		if wh != h {
			continue
		}
		if dir == Forward {
			if i+1 < len(wire) {
				return wire[i+1], true
			}
		} else if i > 0 {
			return wire[i-1], true
		}
		return 0, false
	}
	return 0, false
}

// TopologicalOrder returns the handles in circuit order. The returned
// slice is a copy; edits invalidate previously returned orders.
func (g *Graph) TopologicalOrder() []Handle {
	return append([]Handle(nil), g.seq...)
}

// Gates returns the gates in circuit order.
func (g *Graph) Gates() []Gate {
	out := make([]Gate, len(g.seq))
	for i, h := range g.seq {
		out[i] = g.nodes[h]
	}
	return out
}

// Index returns the position of a handle in circuit order, or -1.
func (g *Graph) Index(h Handle) int {
	for i, sh := range g.seq {
		if sh == h {
			return i
		}
	}
	return -1
}

// WireGates returns the handles touching a qubit in temporal order.
func (g *Graph) WireGates(qubit int) []Handle {
	if qubit < 0 || qubit >= g.NumQubits {
		return nil
	}
	return append([]Handle(nil), g.wires[qubit]...)
}

// Clone creates a deep copy sharing nothing with the original. Parallel
// search trials operate on clones.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		NumQubits: g.NumQubits,
		nodes:     make(map[Handle]Gate, len(g.nodes)),
		seq:       append([]Handle(nil), g.seq...),
		wires:     make([][]Handle, len(g.wires)),
		next:      g.next,
		scopes:    append([]int(nil), g.scopes...),
	}
	for h, gate := range g.nodes {
		gate.Qubits = append([]int(nil), gate.Qubits...)
		gate.Params = append([]float64(nil), gate.Params...)
		c.nodes[h] = gate
	}
	for q, wire := range g.wires {
		c.wires[q] = append([]Handle(nil), wire...)
	}
	return c
}

// PushScope marks the current end of the circuit. Gates inserted
// afterwards belong to the scope until Uncompute pops it. Scopes only
// make sense during circuit construction, before any rewriting edits
// the marked span.
func (g *Graph) PushScope() {
	g.scopes = append(g.scopes, len(g.seq))
}

// Uncompute pops the innermost scope and appends the adjoint of its
// gates in reverse order, undoing the scoped computation.
func (g *Graph) Uncompute() error {
	if len(g.scopes) == 0 {
		return errors.New("uncompute: no open scope")
	}
	start := g.scopes[len(g.scopes)-1]
	g.scopes = g.scopes[:len(g.scopes)-1]
	if start > len(g.seq) {
		return errors.New("uncompute: scope span was edited")
	}
	span := append([]Handle(nil), g.seq[start:]...)
	for i := len(span) - 1; i >= 0; i-- {
		g.Insert(g.nodes[span[i]].Adjoint())
	}
	return nil
}

// checkConsistent verifies the ordering invariant; used by tests.
func (g *Graph) checkConsistent() error {
	pos := make(map[Handle]int, len(g.seq))
	for i, h := range g.seq {
		if _, ok := g.nodes[h]; !ok {
			return fmt.Errorf("seq references unknown handle %d", h)
		}
		pos[h] = i
	}
	if len(pos) != len(g.nodes) {
		return fmt.Errorf("seq holds %d handles, nodes holds %d", len(pos), len(g.nodes))
	}
	for q, wire := range g.wires {
		last := -1
		for _, h := range wire {
			p, ok := pos[h]
			if !ok {
				return fmt.Errorf("wire %d references unknown handle %d", q, h)
			}
			if p <= last {
				return fmt.Errorf("wire %d order disagrees with sequence order", q)
			}
			last = p
		}
	}
	return nil
}

func deleteHandle(s []Handle, h Handle) []Handle {
	out := s[:0]
	for _, v := range s {
		if v != h {
			out = append(out, v)
		}
	}
	return out
}
