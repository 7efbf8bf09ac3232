package synth

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qcompile/circuit"
	"qcompile/hardware"
)

// Backend selects the synthesis routine used when an accumulator is
// flushed.
type Backend int

const (
	// BackendGauss reduces linear tables by Gaussian elimination.
	BackendGauss Backend = iota
	// BackendGreedy descends on total table weight, with a bounded
	// lookahead, falling back to elimination when stuck.
	BackendGreedy
)

// accKind orders accumulator classes from most to least specific. A
// linear accumulator upgrades in place to a phase polynomial or a
// Clifford tableau when a gate demands it; anything else forces a
// flush.
type accKind int

const (
	accNone accKind = iota
	accLinear
	accPhase
	accClifford
)

// Options configures a Synthesizer.
type Options struct {
	Backend Backend
	// Depth bounds the greedy backend's lookahead. It is the main
	// quality/time tradeoff.
	Depth int
	// Topo, when set, makes every emitted two-qubit gate span an edge
	// of the topology by shuttling operands with SWAP chains.
	Topo   *hardware.Topology
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Depth <= 0 {
		o.Depth = 4
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Synthesizer rewrites a circuit by accumulating maximal runs of
// tractable gates into algebraic summaries and re-emitting each run
// from its summary. Gates outside every tractable class pass through
// unchanged and cut the run.
type Synthesizer struct {
	opts Options
}

// NewSynthesizer returns a synthesizer with the given options.
func NewSynthesizer(opts Options) *Synthesizer {
	return &Synthesizer{opts: opts.withDefaults()}
}

// gateClass returns the most specific accumulator class the gate fits,
// or accNone for pass-through gates.
func gateClass(g circuit.Gate) accKind {
	switch g.Name {
	case "CX", "SWAP":
		return accLinear
	case "RZ", "PH", "T", "CP":
		return accPhase
	case "Z", "S", "CZ":
		// Diagonal and Clifford; phase wins as the more compressible
		// summary unless a Clifford run is already open.
		return accPhase
	case "H", "SX", "X", "Y":
		return accClifford
	}
	return accNone
}

// fits reports whether a gate of class c can be absorbed into an open
// accumulator of class k.
func fits(k accKind, g circuit.Gate) bool {
	switch k {
	case accLinear:
		return gateClass(g) == accLinear
	case accPhase:
		switch g.Name {
		case "CX", "SWAP", "RZ", "PH", "T", "CP", "Z", "S", "CZ":
			return true
		}
	case accClifford:
		switch g.Name {
		case "CX", "SWAP", "Z", "S", "CZ", "H", "SX", "X", "Y":
			return true
		}
	}
	return false
}

// Run synthesizes the circuit and returns the rewritten graph.
func (s *Synthesizer) Run(g *circuit.Graph) (*circuit.Graph, error) {
	out := circuit.New(g.NumQubits)

	var (
		kind  = accNone
		lin   *LinearTable
		phase *PhasePolynomial
		cliff *CliffordTableau
		runs  int
	)

	flush := func() error {
		var gates []circuit.Gate
		switch kind {
		case accLinear:
			gates = s.synthLinear(lin)
		case accPhase:
			gates = phase.Synthesize(s.opts.Backend, s.opts.Depth)
		case accClifford:
			gates = cliff.Synthesize()
		default:
			return nil
		}
		if s.opts.Topo != nil {
			var err error
			gates, err = s.makeCompliant(gates)
			if err != nil {
				return err
			}
		}
		for _, gate := range gates {
			out.Insert(gate)
		}
		kind, lin, phase, cliff = accNone, nil, nil, nil
		runs++
		return nil
	}

	open := func(k accKind) error {
		var err error
		switch k {
		case accLinear:
			lin, err = NewLinearTable(g.NumQubits)
		case accPhase:
			phase, err = NewPhasePolynomial(g.NumQubits)
		case accClifford:
			cliff, err = NewCliffordTableau(g.NumQubits)
		}
		if err != nil {
			return err
		}
		kind = k
		return nil
	}

	absorb := func(gate circuit.Gate) error {
		switch kind {
		case accLinear:
			switch gate.Name {
			case "CX":
				lin.ApplyCNOT(gate.Qubits[0], gate.Qubits[1])
			case "SWAP":
				lin.ApplySWAP(gate.Qubits[0], gate.Qubits[1])
			}
			return nil
		case accPhase:
			return phase.Absorb(gate)
		case accClifford:
			return cliff.Absorb(gate)
		}
		return errors.New("no open accumulator")
	}

	for _, gate := range g.Gates() {
		if circuit.IsOpaque(gate.Name) || gateClass(gate) == accNone {
			if err := flush(); err != nil {
				return nil, err
			}
			out.Insert(gate)
			continue
		}
		if kind != accNone && fits(kind, gate) {
			if err := absorb(gate); err != nil {
				return nil, err
			}
			continue
		}
		// Upgrade an open linear run instead of cutting it.
		if kind == accLinear {
			if fits(accPhase, gate) {
				phase = fromLinear(lin)
				kind, lin = accPhase, nil
				if err := absorb(gate); err != nil {
					return nil, err
				}
				continue
			}
			if fits(accClifford, gate) {
				cliff, _ = NewCliffordTableau(g.NumQubits)
				if err := s.replayLinear(cliff, lin); err != nil {
					return nil, err
				}
				kind, lin = accClifford, nil
				if err := absorb(gate); err != nil {
					return nil, err
				}
				continue
			}
		}
		if err := flush(); err != nil {
			return nil, err
		}
		if err := open(gateClass(gate)); err != nil {
			return nil, err
		}
		if err := absorb(gate); err != nil {
			return nil, err
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	s.opts.Logger.Debug("lazy synthesis done",
		zap.Int("in_gates", g.Len()),
		zap.Int("out_gates", out.Len()),
		zap.Int("runs", runs))
	return out, nil
}

func (s *Synthesizer) synthLinear(lin *LinearTable) []circuit.Gate {
	if s.opts.Backend == BackendGreedy {
		return lin.SynthesizeGreedy(s.opts.Depth)
	}
	return lin.SynthesizeGauss()
}

// replayLinear folds a linear table into a fresh Clifford tableau by
// replaying its synthesis.
func (s *Synthesizer) replayLinear(cliff *CliffordTableau, lin *LinearTable) error {
	for _, gate := range lin.SynthesizeGauss() {
		if err := cliff.Absorb(gate); err != nil {
			return err
		}
	}
	return nil
}

// makeCompliant rewrites non-adjacent two-qubit gates into SWAP chains
// along a shortest path, applying the gate at the meeting edge and
// shuttling the operand back. Adjacent gates pass through.
func (s *Synthesizer) makeCompliant(gates []circuit.Gate) ([]circuit.Gate, error) {
	topo := s.opts.Topo
	var out []circuit.Gate
	for _, gate := range gates {
		if !gate.TwoQubit() {
			out = append(out, gate)
			continue
		}
		a, b := gate.Qubits[0], gate.Qubits[1]
		if topo.Adjacent(a, b) {
			out = append(out, gate)
			continue
		}
		path := topo.ShortestPath(a, b)
		if path == nil {
			return nil, errors.Errorf("qubits %d and %d are disconnected in the topology", a, b)
		}
		// Walk a up next to b, apply, walk back.
		for i := 0; i+2 < len(path); i++ {
			out = append(out, circuit.MustGate("SWAP", []int{path[i], path[i+1]}))
		}
		moved := gate
		moved.Qubits = append([]int(nil), gate.Qubits...)
		moved.Qubits[0] = path[len(path)-2]
		out = append(out, moved)
		for i := len(path) - 3; i >= 0; i-- {
			out = append(out, circuit.MustGate("SWAP", []int{path[i], path[i+1]}))
		}
	}
	return out, nil
}
