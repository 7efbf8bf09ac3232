package pattern

import (
	"qcompile/circuit"
)

// Standard patterns used by the compile pipeline. Each pair below is a
// circuit identity; the optimizer walks a pair in both directions when
// it is registered as a group.

// SwapAsCNOTs matches the three-CNOT ladder realizing a SWAP.
func SwapAsCNOTs() *Pattern {
	return Must(
		T("CX", 0, 1),
		T("CX", 1, 0),
		T("CX", 0, 1),
	)
}

// SwapGate matches a single SWAP gate.
func SwapGate() *Pattern {
	return Must(U("SWAP", 0, 1))
}

// DoubleH matches two adjacent Hadamards on the same wire.
func DoubleH() *Pattern {
	return Must(T("H", 0), T("H", 0))
}

// DoubleCNOT matches two adjacent CNOTs with the same orientation.
func DoubleCNOT() *Pattern {
	return Must(T("CX", 0, 1), T("CX", 0, 1))
}

// DoubleCZ matches two adjacent CZ gates on the same pair.
func DoubleCZ() *Pattern {
	return Must(U("CZ", 0, 1), U("CZ", 0, 1))
}

// HCXHConjugation matches a CX conjugated by Hadamards on its target,
// the expanded form of a CZ on the same pair.
func HCXHConjugation() *Pattern {
	return Must(
		T("H", 1),
		T("CX", 0, 1),
		T("H", 1),
	)
}

// ReversedCNOT matches a CX with control and target exchanged.
func ReversedCNOT() *Pattern {
	return Must(T("CX", 1, 0))
}

// CCXGate matches a single Toffoli.
func CCXGate() *Pattern {
	return Must(T("CCX", 0, 1, 2))
}

// CCXNetwork is the standard six-CNOT Toffoli decomposition over T and
// H gates. Routing only accepts one- and two-qubit gates, so this
// rewrite runs before placement.
func CCXNetwork() *Pattern {
	return Must(
		T("H", 2),
		T("CX", 1, 2),
		T("T", 2).Adj(),
		T("CX", 0, 2),
		T("T", 2),
		T("CX", 1, 2),
		T("T", 2).Adj(),
		T("CX", 0, 2),
		T("T", 1),
		T("T", 2),
		T("CX", 0, 1),
		T("H", 2),
		T("T", 0),
		T("T", 1).Adj(),
		T("CX", 0, 1),
	)
}

// CancelPairs lists adjacent self-inverse pairs worth removing
// outright. The empty replacement is never worth walking backwards, so
// these are plain rewrites rather than optimizer groups.
func CancelPairs() []*Pattern {
	return []*Pattern{DoubleH(), DoubleCNOT(), DoubleCZ()}
}

// MergeRotations collapses every adjacent pair of Z rotations on a
// wire into a single rotation of the summed angle. It repeats until no
// pair remains, so runs longer than two also collapse. Returns the
// number of merges performed.
func MergeRotations(g *circuit.Graph) (int, error) {
	a := Var("a")
	b := Var("b")
	old := Must(
		T("RZ", 0).WithArgs(Ref(a)),
		T("RZ", 0).WithArgs(Ref(b)),
	)
	merges := 0
	for {
		binding, ok := FindOne(g, old)
		if !ok {
			break
		}
		sum := binding.Vars["a"] + binding.Vars["b"]
		repl := Must(T("RZ", 0).WithArgs(Lit(sum)))
		if err := Apply(g, old, repl, binding); err != nil {
			return merges, err
		}
		merges++
	}
	return merges, nil
}
