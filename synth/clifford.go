package synth

import (
	"github.com/pkg/errors"

	"qcompile/circuit"
)

// pauli is a signed Pauli string: sign times the tensor product of the
// per-qubit operators encoded by the x and z bitmasks, with (1,1)
// meaning a literal Y.
type pauli struct {
	x, z uint64
	sign int8
}

func (p pauli) bit(mask uint64, k int) bool {
	return mask&(1<<uint(k)) != 0
}

// CliffordTableau tracks a Clifford operator C by the images of the
// generators: xImg[j] = C X_j C', zImg[j] = C Z_j C'. Absorbing a gate
// conjugates every image by it.
type CliffordTableau struct {
	n    int
	xImg []pauli
	zImg []pauli
}

// NewCliffordTableau returns the identity tableau over n qubits.
func NewCliffordTableau(n int) (*CliffordTableau, error) {
	if n > maxQubits {
		return nil, errors.Errorf("clifford tableau supports at most %d qubits, got %d", maxQubits, n)
	}
	t := &CliffordTableau{n: n, xImg: make([]pauli, n), zImg: make([]pauli, n)}
	for j := 0; j < n; j++ {
		t.xImg[j] = pauli{x: 1 << uint(j), sign: 1}
		t.zImg[j] = pauli{z: 1 << uint(j), sign: 1}
	}
	return t, nil
}

// Size returns the tableau dimension.
func (t *CliffordTableau) Size() int {
	return t.n
}

// Clone returns an independent copy.
func (t *CliffordTableau) Clone() *CliffordTableau {
	return &CliffordTableau{
		n:    t.n,
		xImg: append([]pauli(nil), t.xImg...),
		zImg: append([]pauli(nil), t.zImg...),
	}
}

// IsIdentity reports whether every generator maps to itself with a
// positive sign.
func (t *CliffordTableau) IsIdentity() bool {
	for j := 0; j < t.n; j++ {
		if t.xImg[j] != (pauli{x: 1 << uint(j), sign: 1}) {
			return false
		}
		if t.zImg[j] != (pauli{z: 1 << uint(j), sign: 1}) {
			return false
		}
	}
	return true
}

// Per-generator conjugation rules. Signs follow from the literal-Y
// encoding; the CX rule is the Aaronson-Gottesman update.

func conjH(p *pauli, k int) {
	xb, zb := p.bit(p.x, k), p.bit(p.z, k)
	if xb && zb {
		p.sign = -p.sign
	}
	if xb != zb {
		p.x ^= 1 << uint(k)
		p.z ^= 1 << uint(k)
	}
}

func conjS(p *pauli, k int) {
	if p.bit(p.x, k) {
		if p.bit(p.z, k) {
			p.sign = -p.sign
		}
		p.z ^= 1 << uint(k)
	}
}

func conjSdg(p *pauli, k int) {
	if p.bit(p.x, k) {
		if !p.bit(p.z, k) {
			p.sign = -p.sign
		}
		p.z ^= 1 << uint(k)
	}
}

func conjSX(p *pauli, k int) {
	if p.bit(p.z, k) {
		if !p.bit(p.x, k) {
			p.sign = -p.sign
		}
		p.x ^= 1 << uint(k)
	}
}

func conjSXdg(p *pauli, k int) {
	if p.bit(p.z, k) {
		if p.bit(p.x, k) {
			p.sign = -p.sign
		}
		p.x ^= 1 << uint(k)
	}
}

func conjX(p *pauli, k int) {
	if p.bit(p.z, k) {
		p.sign = -p.sign
	}
}

func conjY(p *pauli, k int) {
	if p.bit(p.x, k) != p.bit(p.z, k) {
		p.sign = -p.sign
	}
}

func conjZ(p *pauli, k int) {
	if p.bit(p.x, k) {
		p.sign = -p.sign
	}
}

func conjCX(p *pauli, c, t int) {
	xc, zc := p.bit(p.x, c), p.bit(p.z, c)
	xt, zt := p.bit(p.x, t), p.bit(p.z, t)
	if xc && zt && xt == zc {
		p.sign = -p.sign
	}
	if xc {
		p.x ^= 1 << uint(t)
	}
	if zt {
		p.z ^= 1 << uint(c)
	}
}

func conjSWAP(p *pauli, a, b int) {
	ab, bb := p.bit(p.x, a), p.bit(p.x, b)
	if ab != bb {
		p.x ^= 1<<uint(a) | 1<<uint(b)
	}
	ab, bb = p.bit(p.z, a), p.bit(p.z, b)
	if ab != bb {
		p.z ^= 1<<uint(a) | 1<<uint(b)
	}
}

// conjGate applies one catalogue gate's conjugation to a Pauli.
func conjGate(p *pauli, g circuit.Gate) error {
	switch g.Name {
	case "H":
		conjH(p, g.Qubits[0])
	case "S":
		if g.Dagger {
			conjSdg(p, g.Qubits[0])
		} else {
			conjS(p, g.Qubits[0])
		}
	case "SX":
		if g.Dagger {
			conjSXdg(p, g.Qubits[0])
		} else {
			conjSX(p, g.Qubits[0])
		}
	case "X":
		conjX(p, g.Qubits[0])
	case "Y":
		conjY(p, g.Qubits[0])
	case "Z":
		conjZ(p, g.Qubits[0])
	case "CX":
		conjCX(p, g.Qubits[0], g.Qubits[1])
	case "CZ":
		conjH(p, g.Qubits[1])
		conjCX(p, g.Qubits[0], g.Qubits[1])
		conjH(p, g.Qubits[1])
	case "SWAP":
		conjSWAP(p, g.Qubits[0], g.Qubits[1])
	default:
		return errors.Errorf("gate %s is not clifford", g.Name)
	}
	return nil
}

// Absorb composes one gate after the accumulated operator.
func (t *CliffordTableau) Absorb(g circuit.Gate) error {
	for j := 0; j < t.n; j++ {
		if err := conjGate(&t.xImg[j], g); err != nil {
			return err
		}
		if err := conjGate(&t.zImg[j], g); err != nil {
			return err
		}
	}
	return nil
}

// Synthesize emits a primitive circuit realizing the operator, up to
// global phase. It reduces a working copy to the identity one qubit at
// a time, recording the reduction gates, and returns their adjoints in
// reverse order. The identity tableau synthesizes to nothing.
func (t *CliffordTableau) Synthesize() []circuit.Gate {
	work := t.Clone()
	var recorded []circuit.Gate

	apply := func(g circuit.Gate) {
		_ = work.Absorb(g)
		recorded = append(recorded, g)
	}
	oneQubit := func(name string, k int, dagger bool) {
		g := circuit.MustGate(name, []int{k})
		g.Dagger = dagger
		apply(g)
	}

	for j := 0; j < t.n; j++ {
		// Turn the X_j image into pure X components everywhere.
		p := work.xImg[j]
		for k := j; k < t.n; k++ {
			xb, zb := p.bit(p.x, k), p.bit(p.z, k)
			switch {
			case xb && zb:
				oneQubit("S", k, true) // Y -> X
			case zb:
				oneQubit("H", k, false) // Z -> X
			}
			p = work.xImg[j]
		}

		// Concentrate the support on qubit j.
		if !p.bit(p.x, j) {
			for k := j + 1; k < t.n; k++ {
				if p.bit(p.x, k) {
					apply(circuit.MustGate("SWAP", []int{j, k}))
					break
				}
			}
			p = work.xImg[j]
		}
		for k := j + 1; k < t.n; k++ {
			if p.bit(p.x, k) {
				apply(circuit.MustGate("CX", []int{j, k}))
				p = work.xImg[j]
			}
		}
		if p.sign < 0 {
			oneQubit("Z", j, false)
		}

		// Now the Z_j image: reduce it to Z_j without disturbing X_j.
		q := work.zImg[j]
		for k := j + 1; k < t.n; k++ {
			xb, zb := q.bit(q.x, k), q.bit(q.z, k)
			switch {
			case xb && zb:
				oneQubit("S", k, false)
				oneQubit("H", k, false) // Y -> -Z
			case xb:
				oneQubit("H", k, false) // X -> Z
			}
			q = work.zImg[j]
		}
		for k := j + 1; k < t.n; k++ {
			if q.bit(q.z, k) {
				apply(circuit.MustGate("CX", []int{k, j}))
				q = work.zImg[j]
			}
		}
		if q.bit(q.x, j) {
			oneQubit("SX", j, false) // Y -> Z
			q = work.zImg[j]
		}
		if q.sign < 0 {
			oneQubit("X", j, false)
		}
	}

	out := make([]circuit.Gate, 0, len(recorded))
	for i := len(recorded) - 1; i >= 0; i-- {
		out = append(out, recorded[i].Adjoint())
	}
	return out
}
