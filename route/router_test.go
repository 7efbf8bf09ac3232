package route

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"qcompile/circuit"
	"qcompile/hardware"
)

// requireCompliant asserts every two-qubit gate in the routed circuit
// spans a native edge.
func requireCompliant(t *testing.T, topo *hardware.Topology, g *circuit.Graph) {
	t.Helper()
	for _, gate := range g.Gates() {
		if gate.TwoQubit() {
			require.True(t, topo.NativeOrientation(gate.Qubits[0], gate.Qubits[1]),
				"gate %s not native", gate.String())
		}
	}
}

func endToEndCX(n int) *circuit.Graph {
	g := circuit.New(n)
	g.Insert(circuit.MustGate("CX", []int{0, n - 1}))
	return g
}

func TestLocalRoutingLineOfFive(t *testing.T) {
	topo := hardware.Line(5)
	r, err := NewRouter(topo, Options{Method: MethodLocal, Seed: 1})
	require.NoError(t, err)

	res, err := r.Route(context.Background(), endToEndCX(5))
	require.NoError(t, err)

	// Distance 4 pair: three swaps bring the operands together.
	require.Equal(t, 3, res.Swaps)
	requireCompliant(t, topo, res.Graph)
}

func TestAllMethodsProduceCompliantCircuits(t *testing.T) {
	topo := hardware.Grid(2, 3)
	g := circuit.New(6)
	g.Insert(circuit.MustGate("H", []int{0}))
	g.Insert(circuit.MustGate("CX", []int{0, 5}))
	g.Insert(circuit.MustGate("CX", []int{1, 4}))
	g.Insert(circuit.MustGate("CZ", []int{2, 3}))
	g.Insert(circuit.MustGate("CX", []int{0, 5}))

	for _, method := range []Method{MethodLocal, MethodWindow, MethodExact} {
		r, err := NewRouter(topo, Options{Method: method, Seed: 3})
		require.NoError(t, err)
		res, err := r.Route(context.Background(), g)
		require.NoError(t, err, "method %s", method)
		requireCompliant(t, topo, res.Graph)

		// One- and two-qubit gate multiset is preserved up to swaps.
		cx := 0
		for _, gate := range res.Graph.Gates() {
			if gate.Name == "CX" {
				cx++
			}
		}
		require.Equal(t, 3, cx, "method %s", method)
	}
}

func TestAdjacentGateNeedsNoSwaps(t *testing.T) {
	topo := hardware.Line(3)
	g := circuit.New(3)
	g.Insert(circuit.MustGate("CX", []int{1, 2}))

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	res, err := r.Route(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, 0, res.Swaps)
	require.Equal(t, 1, res.Graph.Len())
}

func TestUnroutableDisconnectedPair(t *testing.T) {
	topo, err := hardware.Custom(4, [][2]int{{0, 1}, {2, 3}}, false)
	require.NoError(t, err)

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	g := circuit.New(4)
	g.Insert(circuit.MustGate("CX", []int{0, 3}))

	_, err = r.Route(context.Background(), g)
	require.Error(t, err)
	var ue *UnroutableError
	require.True(t, errors.As(err, &ue))
}

func TestDirectedRequiresBidirectionalForReversedCX(t *testing.T) {
	topo, err := hardware.Custom(2, [][2]int{{0, 1}}, true)
	require.NoError(t, err)

	g := circuit.New(2)
	g.Insert(circuit.MustGate("CX", []int{1, 0}))

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	_, err = r.Route(context.Background(), g)
	require.Error(t, err)

	r, err = NewRouter(topo, Options{Seed: 1, Bidirectional: true})
	require.NoError(t, err)
	res, err := r.Route(context.Background(), g)
	require.NoError(t, err)
	requireCompliant(t, topo, res.Graph)
	// H-conjugated reversal: four H gates around a native CX.
	require.Equal(t, 5, res.Graph.Len())
}

func TestDirectedSymmetricGateFlips(t *testing.T) {
	topo, err := hardware.Custom(2, [][2]int{{0, 1}}, true)
	require.NoError(t, err)

	g := circuit.New(2)
	g.Insert(circuit.MustGate("CZ", []int{1, 0}))

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	res, err := r.Route(context.Background(), g)
	require.NoError(t, err)
	require.Equal(t, 1, res.Graph.Len())
	require.Equal(t, []int{0, 1}, res.Graph.Gates()[0].Qubits)
}

func TestRejectsWideGates(t *testing.T) {
	topo := hardware.Line(3)
	g := circuit.New(3)
	g.Insert(circuit.MustGate("CCX", []int{0, 1, 2}))

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	_, err = r.Route(context.Background(), g)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decomposed")
}

func TestInitialMappingStrategies(t *testing.T) {
	topo := hardware.Line(4)
	g := circuit.New(4)
	g.Insert(circuit.MustGate("CX", []int{0, 3}))
	g.Insert(circuit.MustGate("CX", []int{0, 3}))
	g.Insert(circuit.MustGate("CX", []int{1, 2}))

	for _, im := range []InitialMapping{InitialNone, InitialAnnealing, InitialReverse} {
		r, err := NewRouter(topo, Options{Seed: 11, UpdateInitialMapping: im})
		require.NoError(t, err)
		res, err := r.Route(context.Background(), g)
		require.NoError(t, err, "initial %s", im)
		requireCompliant(t, topo, res.Graph)
		require.NotNil(t, res.Initial)
		require.NotNil(t, res.Final)
	}

	// Annealing should place the hot (0,3) pair adjacent and beat the
	// identity mapping's swap count.
	rId, err := NewRouter(topo, Options{Seed: 11})
	require.NoError(t, err)
	resId, err := rId.Route(context.Background(), g)
	require.NoError(t, err)

	rAnn, err := NewRouter(topo, Options{Seed: 11, UpdateInitialMapping: InitialAnnealing})
	require.NoError(t, err)
	resAnn, err := rAnn.Route(context.Background(), g)
	require.NoError(t, err)
	require.Less(t, resAnn.Swaps, resId.Swaps)
}

func TestRouterValidatesOptions(t *testing.T) {
	topo := hardware.Line(2)
	_, err := NewRouter(topo, Options{Method: "banana"})
	require.Error(t, err)
	_, err = NewRouter(topo, Options{UpdateInitialMapping: "banana"})
	require.Error(t, err)

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	_, err = r.Route(context.Background(), circuit.New(5))
	require.Error(t, err)
}

func TestMappingsRelateInputToOutput(t *testing.T) {
	topo := hardware.Line(3)
	g := circuit.New(3)
	g.Insert(circuit.MustGate("RZ", []int{2}, 0.5))
	g.Insert(circuit.MustGate("CX", []int{0, 2}))

	r, err := NewRouter(topo, Options{Seed: 1})
	require.NoError(t, err)
	res, err := r.Route(context.Background(), g)
	require.NoError(t, err)

	// The single-qubit gate lands on the physical wire its logical
	// qubit occupied at that point.
	first := res.Graph.Gates()[0]
	require.Equal(t, "RZ", first.Name)
	require.Equal(t, res.Initial.Physical(2), first.Qubits[0])

	// Final tells where each logical qubit ended up.
	require.Equal(t, 3, res.Final.Size())
}
