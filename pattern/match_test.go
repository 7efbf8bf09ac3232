package pattern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"qcompile/circuit"
)

func cnotLadder(g *circuit.Graph, a, b int) {
	g.Insert(circuit.MustGate("CX", []int{a, b}))
	g.Insert(circuit.MustGate("CX", []int{b, a}))
	g.Insert(circuit.MustGate("CX", []int{a, b}))
}

func TestFindOneSwapLadder(t *testing.T) {
	g := circuit.New(3)
	g.Insert(circuit.MustGate("H", []int{0}))
	cnotLadder(g, 1, 2)

	b, ok := FindOne(g, SwapAsCNOTs())
	require.True(t, ok)
	require.Equal(t, 1, b.Qubits[0])
	require.Equal(t, 2, b.Qubits[1])
	require.Len(t, b.Handles, 3)
}

func TestFindOneReturnsEarliestAnchor(t *testing.T) {
	g := circuit.New(4)
	cnotLadder(g, 2, 3)
	cnotLadder(g, 0, 1)

	b, ok := FindOne(g, SwapAsCNOTs())
	require.True(t, ok)
	// The first ladder in circuit order wins even though it uses the
	// higher qubit pair.
	require.Equal(t, 2, b.Qubits[0])
}

func TestMatchRequiresImmediateSuccessor(t *testing.T) {
	g := circuit.New(2)
	g.Insert(circuit.MustGate("H", []int{0}))
	g.Insert(circuit.MustGate("X", []int{0}))
	g.Insert(circuit.MustGate("H", []int{0}))

	_, ok := FindOne(g, DoubleH())
	require.False(t, ok)
}

func TestBarrierBlocksMatch(t *testing.T) {
	g := circuit.New(2)
	g.Insert(circuit.MustGate("H", []int{0}))
	g.Insert(circuit.Gate{Name: "BARRIER"})
	g.Insert(circuit.MustGate("H", []int{0}))

	_, ok := FindOne(g, DoubleH())
	require.False(t, ok)
}

func TestUndirectedMatchesBothOrientations(t *testing.T) {
	g := circuit.New(2)
	g.Insert(circuit.MustGate("SWAP", []int{1, 0}))

	b, ok := FindOne(g, SwapGate())
	require.True(t, ok)
	// Lower qubit binds slot 0 when both orientations are viable.
	require.Equal(t, 0, b.Qubits[0])
	require.Equal(t, 1, b.Qubits[1])
}

func TestDirectedDoesNotMatchReversed(t *testing.T) {
	g := circuit.New(2)
	g.Insert(circuit.MustGate("CX", []int{1, 0}))

	_, ok := FindOne(g, Must(T("CX", 0, 1), T("CX", 0, 1)))
	require.False(t, ok)

	// A single reversed template does match, with slots bound flipped.
	b, ok := FindOne(g, ReversedCNOT())
	require.True(t, ok)
	require.Equal(t, 1, b.Qubits[1])
	require.Equal(t, 0, b.Qubits[0])
}

func TestSlotBindingIsBijective(t *testing.T) {
	g := circuit.New(3)
	g.Insert(circuit.MustGate("CX", []int{0, 1}))
	g.Insert(circuit.MustGate("CX", []int{0, 2}))

	// Slots 1 and 2 must bind distinct qubits; the same gate cannot
	// serve both templates.
	p := Must(T("CX", 0, 1), T("CX", 0, 2))
	b, ok := FindOne(g, p)
	require.True(t, ok)
	require.Equal(t, 1, b.Qubits[1])
	require.Equal(t, 2, b.Qubits[2])
}

func TestVariableBindingAndReuse(t *testing.T) {
	a := Var("a")
	p := Must(
		T("RZ", 0).WithArgs(Ref(a)),
		T("RZ", 0).WithArgs(Ref(a)),
	)

	g := circuit.New(1)
	g.Insert(circuit.MustGate("RZ", []int{0}, 0.3))
	g.Insert(circuit.MustGate("RZ", []int{0}, 0.3))
	b, ok := FindOne(g, p)
	require.True(t, ok)
	require.InDelta(t, 0.3, b.Vars["a"], 1e-10)

	g2 := circuit.New(1)
	g2.Insert(circuit.MustGate("RZ", []int{0}, 0.3))
	g2.Insert(circuit.MustGate("RZ", []int{0}, 0.4))
	_, ok = FindOne(g2, p)
	require.False(t, ok)
}

func TestVariableTransformOnLaterOccurrence(t *testing.T) {
	a := Var("a")
	p := Must(
		T("RZ", 0).WithArgs(Ref(a)),
		T("RZ", 0).WithArgs(RefT(a, func(v float64) float64 { return -v })),
	)

	g := circuit.New(1)
	g.Insert(circuit.MustGate("RZ", []int{0}, 0.7))
	g.Insert(circuit.MustGate("RZ", []int{0}, -0.7))
	_, ok := FindOne(g, p)
	require.True(t, ok)
}

func TestFixedAndForbiddenValues(t *testing.T) {
	fixed := Must(T("RZ", 0).WithArgs(Ref(Fixed("half", math.Pi/2))))

	g := circuit.New(1)
	g.Insert(circuit.MustGate("RZ", []int{0}, math.Pi/2))
	_, ok := FindOne(g, fixed)
	require.True(t, ok)

	g2 := circuit.New(1)
	g2.Insert(circuit.MustGate("RZ", []int{0}, math.Pi/4))
	_, ok = FindOne(g2, fixed)
	require.False(t, ok)

	notZero := Must(T("RZ", 0).WithArgs(Ref(Var("a").Excluding(0))))
	g3 := circuit.New(1)
	g3.Insert(circuit.MustGate("RZ", []int{0}, 0))
	_, ok = FindOne(g3, notZero)
	require.False(t, ok)
}

func TestDaggerDiscriminates(t *testing.T) {
	g := circuit.New(1)
	s := circuit.MustGate("S", []int{0})
	s.Dagger = true
	g.Insert(s)

	_, ok := FindOne(g, Must(T("S", 0)))
	require.False(t, ok)
	_, ok = FindOne(g, Must(T("S", 0).Adj()))
	require.True(t, ok)
}

func TestCountNonOverlapping(t *testing.T) {
	g := circuit.New(1)
	for i := 0; i < 5; i++ {
		g.Insert(circuit.MustGate("H", []int{0}))
	}
	// Five H gates hold two disjoint H-H pairs.
	require.Equal(t, 2, Count(g, DoubleH()))
}

func TestFindAllMatchesCount(t *testing.T) {
	g := circuit.New(4)
	cnotLadder(g, 0, 1)
	cnotLadder(g, 2, 3)

	all := FindAll(g, SwapAsCNOTs())
	require.Len(t, all, 2)
	require.Equal(t, len(all), Count(g, SwapAsCNOTs()))
}

func TestValidateRejectsBadPatterns(t *testing.T) {
	// Wrong arity for a catalogue gate.
	_, err := New(T("CX", 0))
	require.Error(t, err)

	// Undirected templates must be two-qubit.
	bad := Template{Name: "CCX", Slots: []int{0, 1, 2}, Undirected: true}
	_, err = New(bad)
	require.Error(t, err)

	// Repeated slot inside one template.
	_, err = New(T("CX", 0, 0))
	require.Error(t, err)

	// Disconnected template: slot 2 shares nothing with the first.
	_, err = New(T("H", 0), T("H", 2))
	require.Error(t, err)

	var ipe *InvalidPatternError
	require.ErrorAs(t, err, &ipe)
}
