package synth

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"qcompile/circuit"
)

func absorbPhase(t *testing.T, n int, gates []circuit.Gate) *PhasePolynomial {
	t.Helper()
	p, err := NewPhasePolynomial(n)
	require.NoError(t, err)
	for _, g := range gates {
		require.NoError(t, p.Absorb(g))
	}
	return p
}

func TestCancelledRotationsFlushToNothing(t *testing.T) {
	s := circuit.MustGate("S", []int{0})
	sdg := circuit.MustGate("S", []int{0})
	sdg.Dagger = true

	p := absorbPhase(t, 2, []circuit.Gate{s, sdg})
	require.Equal(t, 0, p.Terms())
	require.True(t, p.Linear().IsIdentity())
	require.Empty(t, p.Synthesize(BackendGauss, 0))
}

func TestRepeatedTAccumulates(t *testing.T) {
	tg := circuit.MustGate("T", []int{0})
	p := absorbPhase(t, 1, []circuit.Gate{tg, tg})
	require.Equal(t, 1, p.Terms())

	out := p.Synthesize(BackendGauss, 0)
	require.Len(t, out, 1)
	require.Equal(t, "RZ", out[0].Name)
	require.InDelta(t, math.Pi/2, out[0].Params[0], 1e-10)
}

func TestRotationAfterCNOTBindsParity(t *testing.T) {
	p := absorbPhase(t, 2, []circuit.Gate{
		circuit.MustGate("CX", []int{0, 1}),
		circuit.MustGate("RZ", []int{1}, 0.5),
	})
	require.Equal(t, 1, p.Terms())

	// The rotation acts on the parity q0 xor q1, so the synthesized
	// circuit rebuilds that parity before rotating.
	out := p.Synthesize(BackendGauss, 0)
	names := make([]string, len(out))
	for i, g := range out {
		names[i] = g.Name
	}
	require.Contains(t, names, "RZ")

	back := absorbPhase(t, 2, out)
	require.Equal(t, p.terms, back.terms)
	require.Equal(t, p.linear.rows, back.linear.rows)
}

func TestCPDecomposesIntoThreeParities(t *testing.T) {
	p := absorbPhase(t, 2, []circuit.Gate{
		circuit.MustGate("CP", []int{0, 1}, math.Pi/2),
	})
	require.Equal(t, 3, p.Terms())
}

func TestPhaseSynthesisRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	diag := []string{"CX", "RZ", "S", "T", "CZ", "SWAP"}
	for trial := 0; trial < 15; trial++ {
		n := 4
		var gates []circuit.Gate
		for j := 0; j < 12; j++ {
			switch name := diag[rng.Intn(len(diag))]; name {
			case "CX", "CZ", "SWAP":
				a := rng.Intn(n)
				b := rng.Intn(n - 1)
				if b >= a {
					b++
				}
				gates = append(gates, circuit.MustGate(name, []int{a, b}))
			case "RZ":
				gates = append(gates, circuit.MustGate("RZ", []int{rng.Intn(n)}, rng.Float64()))
			default:
				gates = append(gates, circuit.MustGate(name, []int{rng.Intn(n)}))
			}
		}
		p := absorbPhase(t, n, gates)
		back := absorbPhase(t, n, p.Synthesize(BackendGreedy, 2))

		require.Equal(t, p.linear.rows, back.linear.rows, "trial %d", trial)
		require.Equal(t, len(p.terms), len(back.terms), "trial %d", trial)
		for k, v := range p.terms {
			require.InDelta(t, v, back.terms[k], 1e-9, "trial %d parity %b", trial, k)
		}
	}
}

func TestGlobalPhaseIsDropped(t *testing.T) {
	p, err := NewPhasePolynomial(1)
	require.NoError(t, err)
	p.addTerm(0, math.Pi/4)
	require.Equal(t, 0, p.Terms())
}

func TestNonDiagonalGateRejected(t *testing.T) {
	p, err := NewPhasePolynomial(2)
	require.NoError(t, err)
	require.Error(t, p.Absorb(circuit.MustGate("H", []int{0})))
}
