// Package synth maintains compact algebraic summaries of tractable
// gate runs (CNOT-only linear operators, phase polynomials, Clifford
// tableaus) and synthesizes them back into primitive gates on demand.
// Deferring synthesis until a non-tractable gate forces a flush is
// what lets whole sub-circuits collapse into a few gates.
package synth

import (
	"math/bits"

	"github.com/pkg/errors"

	"qcompile/circuit"
)

// maxQubits bounds the accumulator width; rows are single machine
// words.
const maxQubits = 64

// LinearTable is an invertible n x n bit matrix over GF(2),
// representing a product of CNOT and SWAP gates: out = M * in. Row t
// lists which inputs XOR into output t.
type LinearTable struct {
	n    int
	rows []uint64
}

// NewLinearTable returns the identity over n qubits.
func NewLinearTable(n int) (*LinearTable, error) {
	if n > maxQubits {
		return nil, errors.Errorf("linear table supports at most %d qubits, got %d", maxQubits, n)
	}
	m := &LinearTable{n: n, rows: make([]uint64, n)}
	for i := 0; i < n; i++ {
		m.rows[i] = 1 << uint(i)
	}
	return m, nil
}

// Size returns the table dimension.
func (m *LinearTable) Size() int {
	return m.n
}

// Row returns row t as a bitmask of input qubits.
func (m *LinearTable) Row(t int) uint64 {
	return m.rows[t]
}

// ApplyCNOT composes a CNOT(control, target) after the accumulated
// operator.
func (m *LinearTable) ApplyCNOT(control, target int) {
	m.rows[target] ^= m.rows[control]
}

// ApplySWAP composes a SWAP after the accumulated operator.
func (m *LinearTable) ApplySWAP(a, b int) {
	m.rows[a], m.rows[b] = m.rows[b], m.rows[a]
}

// IsIdentity reports whether the table is the identity operator.
func (m *LinearTable) IsIdentity() bool {
	for i, r := range m.rows {
		if r != 1<<uint(i) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (m *LinearTable) Clone() *LinearTable {
	return &LinearTable{n: m.n, rows: append([]uint64(nil), m.rows...)}
}

// weight counts ones in the whole table; the greedy backend descends
// on it.
func (m *LinearTable) weight() int {
	w := 0
	for _, r := range m.rows {
		w += bits.OnesCount64(r)
	}
	return w
}

// rowOp records one elimination step: rows[target] ^= rows[control],
// which corresponds to a CNOT(control, target).
type rowOp struct {
	control, target int
}

// SynthesizeGauss reduces the table to identity by Gaussian
// elimination and returns the CNOT sequence realizing the operator:
// the recorded eliminations reversed, since CNOT is self-inverse. The
// identity synthesizes to the empty sequence.
func (m *LinearTable) SynthesizeGauss() []circuit.Gate {
	work := m.Clone()
	var ops []rowOp

	apply := func(c, t int) {
		work.rows[t] ^= work.rows[c]
		ops = append(ops, rowOp{control: c, target: t})
	}

	for col := 0; col < work.n; col++ {
		bit := uint64(1) << uint(col)
		if work.rows[col]&bit == 0 {
			// Pull a pivot up from below.
			for r := col + 1; r < work.n; r++ {
				if work.rows[r]&bit != 0 {
					apply(r, col)
					break
				}
			}
		}
		for r := 0; r < work.n; r++ {
			if r != col && work.rows[r]&bit != 0 {
				apply(col, r)
			}
		}
	}

	return opsToGates(ops)
}

// SynthesizeGreedy reduces the table by repeatedly taking the row
// operation that shrinks the total bit count the most, exploring the
// best `depth` candidates one level deep when depth > 1. It falls back
// to Gaussian elimination when no operation makes progress, so
// termination does not depend on the heuristic.
func (m *LinearTable) SynthesizeGreedy(depth int) []circuit.Gate {
	if depth < 1 {
		depth = 1
	}
	work := m.Clone()
	var ops []rowOp

	for !work.IsIdentity() {
		op, gain := bestOp(work, depth)
		if gain <= 0 {
			// No strictly improving op; let Gauss finish the rest.
			// The residual is the right factor of the accumulated
			// operator, so its gates come first in circuit order.
			rest := work.SynthesizeGauss()
			return append(rest, opsToGates(ops)...)
		}
		work.rows[op.target] ^= work.rows[op.control]
		ops = append(ops, op)
	}
	return opsToGates(ops)
}

// scoredOp is a candidate row operation with its immediate weight
// reduction.
type scoredOp struct {
	op   rowOp
	gain int
}

// bestOp scores every row operation by immediate weight reduction,
// breaking ties by a one-level lookahead over the top depth candidates.
func bestOp(m *LinearTable, depth int) (rowOp, int) {
	base := m.weight()
	var cands []scoredOp
	for c := 0; c < m.n; c++ {
		for t := 0; t < m.n; t++ {
			if c == t {
				continue
			}
			after := base - bits.OnesCount64(m.rows[t]) + bits.OnesCount64(m.rows[t]^m.rows[c])
			cands = append(cands, scoredOp{op: rowOp{c, t}, gain: base - after})
		}
	}
	best := 0
	for i := range cands {
		if cands[i].gain > cands[best].gain {
			best = i
		}
	}
	if depth <= 1 || cands[best].gain <= 0 {
		return cands[best].op, cands[best].gain
	}

	// Depth two: among the best few first moves, pick the one whose
	// best follow-up gains the most in total.
	for i := 0; i < depth && i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			if cands[j].gain > cands[i].gain {
				cands[i], cands[j] = cands[j], cands[i]
			}
		}
	}
	top := depth
	if top > len(cands) {
		top = len(cands)
	}
	choice := cands[0]
	bestTotal := -1 << 30
	for _, c := range cands[:top] {
		trial := m.Clone()
		trial.rows[c.op.target] ^= trial.rows[c.op.control]
		_, g2 := bestOp(trial, 1)
		if c.gain+g2 > bestTotal {
			bestTotal = c.gain + g2
			choice = c
		}
	}
	return choice.op, choice.gain
}

// opsToGates converts recorded eliminations into the realizing CNOT
// circuit: reversed order, same gates.
func opsToGates(ops []rowOp) []circuit.Gate {
	gates := make([]circuit.Gate, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		gates = append(gates, circuit.MustGate("CX", []int{ops[i].control, ops[i].target}))
	}
	return gates
}
