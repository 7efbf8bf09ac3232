package synth

import (
	"math"
	"math/bits"
	"sort"

	"github.com/pkg/errors"

	"qcompile/circuit"
)

// PhasePolynomial summarizes a run of CNOT and diagonal gates as a set
// of (parity, angle) terms followed by a residual linear operator.
// Each term applies a Z rotation by its angle on the XOR of the input
// qubits in its parity mask, evaluated in circuit order against the
// linear state at absorption time.
type PhasePolynomial struct {
	n      int
	terms  map[uint64]float64
	linear *LinearTable
}

// NewPhasePolynomial returns the empty polynomial over n qubits.
func NewPhasePolynomial(n int) (*PhasePolynomial, error) {
	lin, err := NewLinearTable(n)
	if err != nil {
		return nil, err
	}
	return &PhasePolynomial{n: n, terms: make(map[uint64]float64), linear: lin}, nil
}

// fromLinear upgrades an existing linear accumulator in place.
func fromLinear(lin *LinearTable) *PhasePolynomial {
	return &PhasePolynomial{n: lin.n, terms: make(map[uint64]float64), linear: lin}
}

// Terms returns the number of live phase terms; angles that cancelled
// back to zero are dropped on absorption.
func (p *PhasePolynomial) Terms() int {
	return len(p.terms)
}

// Linear exposes the trailing linear operator.
func (p *PhasePolynomial) Linear() *LinearTable {
	return p.linear
}

// addTerm accumulates an angle on a parity, dropping the term when the
// total cancels.
func (p *PhasePolynomial) addTerm(parity uint64, angle float64) {
	if parity == 0 {
		return // global phase, irrelevant to the compiled circuit
	}
	total := p.terms[parity] + angle
	if math.Abs(math.Mod(total, 2*math.Pi)) < 1e-12 {
		delete(p.terms, parity)
		return
	}
	p.terms[parity] = total
}

// Absorb folds one gate into the polynomial. The gate must be in the
// diagonal-plus-linear class (see classify).
func (p *PhasePolynomial) Absorb(g circuit.Gate) error {
	switch g.Name {
	case "CX":
		p.linear.ApplyCNOT(g.Qubits[0], g.Qubits[1])
	case "SWAP":
		p.linear.ApplySWAP(g.Qubits[0], g.Qubits[1])
	case "RZ", "PH":
		angle := g.Params[0]
		if g.Dagger {
			angle = -angle
		}
		p.addTerm(p.linear.Row(g.Qubits[0]), angle)
	case "Z":
		p.addTerm(p.linear.Row(g.Qubits[0]), math.Pi)
	case "S":
		angle := math.Pi / 2
		if g.Dagger {
			angle = -angle
		}
		p.addTerm(p.linear.Row(g.Qubits[0]), angle)
	case "T":
		angle := math.Pi / 4
		if g.Dagger {
			angle = -angle
		}
		p.addTerm(p.linear.Row(g.Qubits[0]), angle)
	case "CZ", "CP":
		angle := math.Pi
		if g.Name == "CP" {
			angle = g.Params[0]
		}
		if g.Dagger {
			angle = -angle
		}
		a := p.linear.Row(g.Qubits[0])
		b := p.linear.Row(g.Qubits[1])
		p.addTerm(a, angle/2)
		p.addTerm(b, angle/2)
		p.addTerm(a^b, -angle/2)
	default:
		return errors.Errorf("gate %s is not diagonal-plus-linear", g.Name)
	}
	return nil
}

// Synthesize emits a primitive circuit realizing the polynomial: a
// parity network of CNOTs with one RZ per term, then the trailing
// linear operator through the given backend. A polynomial with no
// terms and an identity linear part synthesizes to nothing.
func (p *PhasePolynomial) Synthesize(backend Backend, depth int) []circuit.Gate {
	var out []circuit.Gate

	// Deterministic term order: by parity mask.
	parities := make([]uint64, 0, len(p.terms))
	for k := range p.terms {
		parities = append(parities, k)
	}
	sort.Slice(parities, func(i, j int) bool { return parities[i] < parities[j] })

	for _, parity := range parities {
		target := bits.TrailingZeros64(parity)
		var stairs []circuit.Gate
		for q := target + 1; q < p.n; q++ {
			if parity&(1<<uint(q)) != 0 {
				stairs = append(stairs, circuit.MustGate("CX", []int{q, target}))
			}
		}
		out = append(out, stairs...)
		out = append(out, circuit.MustGate("RZ", []int{target}, p.terms[parity]))
		for i := len(stairs) - 1; i >= 0; i-- {
			out = append(out, stairs[i])
		}
	}

	switch backend {
	case BackendGreedy:
		out = append(out, p.linear.SynthesizeGreedy(depth)...)
	default:
		out = append(out, p.linear.SynthesizeGauss()...)
	}
	return out
}
