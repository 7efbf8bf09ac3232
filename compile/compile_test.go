package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"qcompile/circuit"
	"qcompile/hardware"
	"qcompile/optim"
	"qcompile/route"
	"qcompile/synth"
)

func ghz(n int) *circuit.Graph {
	g := circuit.New(n)
	g.Insert(circuit.MustGate("H", []int{0}))
	for q := 1; q < n; q++ {
		g.Insert(circuit.MustGate("CX", []int{q - 1, q}))
	}
	return g
}

func requireCompliant(t *testing.T, topo *hardware.Topology, g *circuit.Graph) {
	t.Helper()
	for _, gate := range g.Gates() {
		if gate.TwoQubit() {
			require.True(t, topo.NativeOrientation(gate.Qubits[0], gate.Qubits[1]))
		}
	}
}

func TestCompileLogicalOnly(t *testing.T) {
	g := ghz(3)
	g.Insert(circuit.MustGate("H", []int{2}))
	g.Insert(circuit.MustGate("H", []int{2}))

	res, err := Compile(context.Background(), g, nil, Options{
		Optimizer: optim.Options{Seed: 1},
	})
	require.NoError(t, err)
	require.Nil(t, res.Initial)

	// Cleanup cancels the H pair; the result is never worse than the
	// input under the chosen metric.
	require.GreaterOrEqual(t, res.MetricOut, res.MetricIn)
	require.Equal(t, 3, res.Graph.Len())

	// Input untouched.
	require.Equal(t, 5, g.Len())
}

func TestCompileRoutedOnLine(t *testing.T) {
	topo := hardware.Line(4)
	g := ghz(4)
	g.Insert(circuit.MustGate("CX", []int{0, 3}))

	res, err := Compile(context.Background(), g, topo, Options{
		Optimizer: optim.Options{Seed: 2},
		Router:    route.Options{Seed: 2},
	})
	require.NoError(t, err)
	requireCompliant(t, topo, res.Graph)
	require.NotNil(t, res.Initial)
	require.NotNil(t, res.Final)
	require.Greater(t, res.Swaps, 0)
}

func TestCompileDecomposesToffoliForHardware(t *testing.T) {
	topo := hardware.Line(3)
	g := circuit.New(3)
	g.Insert(circuit.MustGate("CCX", []int{0, 1, 2}))

	res, err := Compile(context.Background(), g, topo, Options{
		Optimizer: optim.Options{Seed: 3},
		Router:    route.Options{Seed: 3},
	})
	require.NoError(t, err)
	requireCompliant(t, topo, res.Graph)
	for _, gate := range res.Graph.Gates() {
		require.LessOrEqual(t, len(gate.Qubits), 2)
	}
}

func TestCompileWithSynthesis(t *testing.T) {
	g := circuit.New(2)
	g.Insert(circuit.MustGate("CX", []int{0, 1}))
	g.Insert(circuit.MustGate("CX", []int{0, 1}))
	g.Insert(circuit.MustGate("T", []int{0}))

	res, err := Compile(context.Background(), g, nil, Options{
		SkipCleanup: true,
		Synth:       &synth.Options{Backend: synth.BackendGauss},
		Optimizer:   optim.Options{Seed: 4},
	})
	require.NoError(t, err)
	// The CNOT pair is algebraically the identity.
	require.Equal(t, 1, res.Graph.Len())
}

func TestCompileTrialsAreDeterministicForFixedSeed(t *testing.T) {
	g := ghz(4)
	g.Insert(circuit.MustGate("SWAP", []int{0, 1}))

	run := func() string {
		res, err := Compile(context.Background(), g, nil, Options{
			Trials:    3,
			Optimizer: optim.Options{Seed: 99, Iterations: 64},
		})
		require.NoError(t, err)
		return circuit.ToQASM(res.Graph)
	}
	require.Equal(t, run(), run())
}

func TestCompileJobRelabelsMeasuredQubits(t *testing.T) {
	topo := hardware.Line(3)
	g := circuit.New(3)
	g.Insert(circuit.MustGate("CX", []int{0, 2}))

	job := NewJob(g, 100, []int{2, 0})
	require.Equal(t, 100, job.Shots)

	cj, err := CompileJob(context.Background(), job, topo, Options{
		Optimizer: optim.Options{Seed: 5},
		Router:    route.Options{Seed: 5},
	})
	require.NoError(t, err)
	for _, q := range cj.Measured {
		require.GreaterOrEqual(t, q, 0)
		require.Less(t, q, 3)
	}
	// Entry i still feeds classical bit i after relabeling.
	want := []int{cj.Result.Final.Physical(2), cj.Result.Final.Physical(0)}
	require.Equal(t, want, cj.Measured)
}

func TestCompileJobKeepsMeasuredOrderWithoutSwaps(t *testing.T) {
	topo := hardware.Line(3)
	g := circuit.New(3)
	g.Insert(circuit.MustGate("CX", []int{0, 1}))

	job := NewJob(g, 1, []int{2, 0})
	cj, err := CompileJob(context.Background(), job, topo, Options{
		Optimizer: optim.Options{Seed: 7},
		Router:    route.Options{Seed: 7},
	})
	require.NoError(t, err)
	require.Zero(t, cj.Result.Swaps)
	require.Equal(t, []int{2, 0}, cj.Measured)
}

func TestNewJobDefaults(t *testing.T) {
	g := circuit.New(2)
	job := NewJob(g, 0, nil)
	require.Equal(t, 1, job.Shots)
	require.Equal(t, []int{0, 1}, job.Measured)
	require.NotEqual(t, job.ID, NewJob(g, 1, nil).ID)
}

func TestCompileBatch(t *testing.T) {
	topo := hardware.Line(2)
	batch := NewBatch(
		NewJob(ghz(2), 10, nil),
		NewJob(ghz(2), 20, nil),
	)

	out, err := CompileBatch(context.Background(), batch, topo, Options{
		Optimizer: optim.Options{Seed: 6},
		Router:    route.Options{Seed: 6},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, cj := range out {
		requireCompliant(t, topo, cj.Result.Graph)
	}
}
