package hardware

import "math/rand"

// Mapping is a bijection from logical to physical qubit indices. Only
// the router mutates it; everything else treats it as read-only.
type Mapping struct {
	toPhysical []int
	toLogical  []int
}

// Identity returns the identity mapping over n qubits.
func Identity(n int) *Mapping {
	m := &Mapping{toPhysical: make([]int, n), toLogical: make([]int, n)}
	for i := 0; i < n; i++ {
		m.toPhysical[i] = i
		m.toLogical[i] = i
	}
	return m
}

// FromPermutation builds a mapping from an explicit logical-to-physical
// permutation. The slice is copied.
func FromPermutation(perm []int) *Mapping {
	m := &Mapping{
		toPhysical: append([]int(nil), perm...),
		toLogical:  make([]int, len(perm)),
	}
	for l, p := range perm {
		m.toLogical[p] = l
	}
	return m
}

// Random returns a uniformly random mapping drawn from rng.
func Random(n int, rng *rand.Rand) *Mapping {
	return FromPermutation(rng.Perm(n))
}

// Size returns the number of qubits mapped.
func (m *Mapping) Size() int {
	return len(m.toPhysical)
}

// Physical returns the physical qubit assigned to a logical qubit.
func (m *Mapping) Physical(logical int) int {
	return m.toPhysical[logical]
}

// Logical returns the logical qubit living on a physical qubit.
func (m *Mapping) Logical(physical int) int {
	return m.toLogical[physical]
}

// SwapPhysical records a SWAP on two physical qubits: the logical
// qubits living there exchange homes.
func (m *Mapping) SwapPhysical(p1, p2 int) {
	l1, l2 := m.toLogical[p1], m.toLogical[p2]
	m.toLogical[p1], m.toLogical[p2] = l2, l1
	m.toPhysical[l1], m.toPhysical[l2] = p2, p1
}

// Clone returns an independent copy.
func (m *Mapping) Clone() *Mapping {
	return &Mapping{
		toPhysical: append([]int(nil), m.toPhysical...),
		toLogical:  append([]int(nil), m.toLogical...),
	}
}

// Permutation returns a copy of the logical-to-physical table.
func (m *Mapping) Permutation() []int {
	return append([]int(nil), m.toPhysical...)
}
