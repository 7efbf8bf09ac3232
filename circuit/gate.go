package circuit

import "fmt"

// GateInfo describes one entry of the gate catalogue: its qubit arity,
// parameter count, and the structural properties the compiler relies on.
type GateInfo struct {
	Name      string
	Arity     int  // number of qubit operands
	NumParams int  // number of scalar parameters
	Hermitian bool // gate is its own dagger
	Symmetric bool // invariant under permutation of its qubit operands
	Opaque    bool // barrier-class: never rewritten or reordered
}

// catalogue is the closed set of gate kinds the compiler understands.
// Gates outside the catalogue are treated structurally: name plus qubit
// count must match, nothing else is assumed.
var catalogue = map[string]GateInfo{
	"X":       {Name: "X", Arity: 1, Hermitian: true},
	"Y":       {Name: "Y", Arity: 1, Hermitian: true},
	"Z":       {Name: "Z", Arity: 1, Hermitian: true},
	"H":       {Name: "H", Arity: 1, Hermitian: true},
	"S":       {Name: "S", Arity: 1},
	"T":       {Name: "T", Arity: 1},
	"SX":      {Name: "SX", Arity: 1},
	"RX":      {Name: "RX", Arity: 1, NumParams: 1},
	"RY":      {Name: "RY", Arity: 1, NumParams: 1},
	"RZ":      {Name: "RZ", Arity: 1, NumParams: 1},
	"PH":      {Name: "PH", Arity: 1, NumParams: 1},
	"CX":      {Name: "CX", Arity: 2},
	"CZ":      {Name: "CZ", Arity: 2, Hermitian: true, Symmetric: true},
	"CH":      {Name: "CH", Arity: 2},
	"SWAP":    {Name: "SWAP", Arity: 2, Hermitian: true, Symmetric: true},
	"ISWAP":   {Name: "ISWAP", Arity: 2, Symmetric: true},
	"CRX":     {Name: "CRX", Arity: 2, NumParams: 1},
	"CRY":     {Name: "CRY", Arity: 2, NumParams: 1},
	"CRZ":     {Name: "CRZ", Arity: 2, NumParams: 1},
	"CP":      {Name: "CP", Arity: 2, NumParams: 1, Symmetric: true},
	"XX":      {Name: "XX", Arity: 2, NumParams: 1, Symmetric: true},
	"CCX":     {Name: "CCX", Arity: 3},
	"MEASURE": {Name: "MEASURE", Arity: 1, Opaque: true},
	"RESET":   {Name: "RESET", Arity: 1, Opaque: true},
	"BARRIER": {Name: "BARRIER", Arity: 0, Opaque: true},
}

// Lookup returns the catalogue entry for a gate name. The second result
// is false for unknown gates, which the compiler handles structurally.
func Lookup(name string) (GateInfo, bool) {
	info, ok := catalogue[name]
	return info, ok
}

// IsSymmetric reports whether a gate name denotes a qubit-permutation
// invariant gate. Unknown gates are conservatively asymmetric.
func IsSymmetric(name string) bool {
	info, ok := catalogue[name]
	return ok && info.Symmetric
}

// IsOpaque reports whether a gate name denotes a barrier-class operation
// that rewriting and routing must not move across.
func IsOpaque(name string) bool {
	info, ok := catalogue[name]
	return ok && info.Opaque
}

// Gate is an immutable record of one operation in a circuit. Qubits are
// ordered operands; for controlled gates the controls come first and the
// target last, matching QASM argument order.
type Gate struct {
	Name   string
	Qubits []int
	Params []float64
	Dagger bool
}

// NewGate builds a gate after validating operand and parameter shapes
// against the catalogue. Unknown names are accepted with any shape.
func NewGate(name string, qubits []int, params ...float64) (Gate, error) {
	if info, ok := catalogue[name]; ok && name != "BARRIER" {
		if len(qubits) != info.Arity {
			return Gate{}, fmt.Errorf("gate %s: want %d qubits, got %d", name, info.Arity, len(qubits))
		}
		if len(params) != info.NumParams {
			return Gate{}, fmt.Errorf("gate %s: want %d params, got %d", name, info.NumParams, len(params))
		}
	}
	for _, q := range qubits {
		if q < 0 {
			return Gate{}, fmt.Errorf("gate %s: negative qubit index %d", name, q)
		}
	}
	return Gate{Name: name, Qubits: append([]int(nil), qubits...), Params: append([]float64(nil), params...)}, nil
}

// MustGate is NewGate for statically-known gates; it panics on invalid
// shapes. Used by pattern libraries and tests.
func MustGate(name string, qubits []int, params ...float64) Gate {
	g, err := NewGate(name, qubits, params...)
	if err != nil {
		panic(err)
	}
	return g
}

// Adjoint returns the dagger of the gate. Hermitian gates are returned
// unchanged; rotation gates negate their angle; everything else toggles
// the dagger flag.
func (g Gate) Adjoint() Gate {
	info, ok := catalogue[g.Name]
	if ok && info.Hermitian {
		return g
	}
	out := Gate{Name: g.Name, Qubits: append([]int(nil), g.Qubits...), Dagger: g.Dagger}
	if ok && info.NumParams > 0 && len(g.Params) > 0 {
		out.Params = make([]float64, len(g.Params))
		for i, p := range g.Params {
			out.Params[i] = -p
		}
		return out
	}
	out.Params = append([]float64(nil), g.Params...)
	out.Dagger = !g.Dagger
	return out
}

// TwoQubit reports whether the gate acts on exactly two qubits.
func (g Gate) TwoQubit() bool {
	return len(g.Qubits) == 2
}

// References reports whether the gate touches the given qubit.
func (g Gate) References(qubit int) bool {
	for _, q := range g.Qubits {
		if q == qubit {
			return true
		}
	}
	return false
}

// Relabel returns a copy of the gate with qubit operands mapped through
// the given function. Used when applying a logical-to-physical mapping.
func (g Gate) Relabel(f func(int) int) Gate {
	out := g
	out.Qubits = make([]int, len(g.Qubits))
	for i, q := range g.Qubits {
		out.Qubits[i] = f(q)
	}
	out.Params = append([]float64(nil), g.Params...)
	return out
}

// String renders the gate in a compact debug form, e.g. "CX q1,q0" or
// "RZ(pi/2) q3".
func (g Gate) String() string {
	name := g.Name
	if g.Dagger {
		name += "dg"
	}
	s := name
	if len(g.Params) > 0 {
		s += "("
		for i, p := range g.Params {
			if i > 0 {
				s += ", "
			}
			s += FormatParam(p)
		}
		s += ")"
	}
	for i, q := range g.Qubits {
		if i == 0 {
			s += " "
		} else {
			s += ","
		}
		s += fmt.Sprintf("q%d", q)
	}
	return s
}
