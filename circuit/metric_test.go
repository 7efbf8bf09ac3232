package circuit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ghz(n int) *Graph {
	g := New(n)
	g.Insert(MustGate("H", []int{0}))
	for q := 1; q < n; q++ {
		g.Insert(MustGate("CX", []int{q - 1, q}))
	}
	return g
}

func TestGateCount(t *testing.T) {
	g := ghz(4)
	require.Equal(t, -4.0, GateCount(g))
}

func TestTwoQubitCount(t *testing.T) {
	g := ghz(4)
	g.Insert(MustGate("RZ", []int{0}, 0.5))
	require.Equal(t, -3.0, TwoQubitCount(g))
}

func TestDepthSchedulesDisjointGatesTogether(t *testing.T) {
	g := New(4)
	g.Insert(MustGate("H", []int{0}))
	g.Insert(MustGate("H", []int{1}))
	g.Insert(MustGate("H", []int{2}))
	g.Insert(MustGate("CX", []int{0, 1}))
	require.Equal(t, -2.0, Depth(g))
}

func TestDepthBarrierStallsEveryWire(t *testing.T) {
	g := New(3)
	g.Insert(MustGate("H", []int{0}))
	g.Insert(Gate{Name: "BARRIER"})
	g.Insert(MustGate("H", []int{2}))
	// H, then the barrier layer, then H: qubit 2 could not slide left.
	require.Equal(t, -3.0, Depth(g))
}

func TestDurationMetric(t *testing.T) {
	g := New(2)
	g.Insert(MustGate("H", []int{0}))
	g.Insert(MustGate("CX", []int{0, 1}))
	g.Insert(MustGate("H", []int{1}))

	m := DurationMetric(map[string]float64{"H": 10, "CX": 100})
	require.Equal(t, -120.0, m(g))

	// Gates missing from the table are free.
	m2 := DurationMetric(map[string]float64{"CX": 100})
	require.Equal(t, -100.0, m2(g))
}
