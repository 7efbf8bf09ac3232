// Package route makes a circuit comply with a hardware connectivity
// graph: single-qubit gates pass through relabeled, and every
// two-qubit gate ends up on topology-adjacent physical qubits, with
// SWAP gates inserted along the way. Several interchangeable backends
// decide where the SWAPs go; all satisfy the same post-condition.
package route

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qcompile/circuit"
	"qcompile/hardware"
)

// UnroutableError reports two qubits that must interact but live in
// different connected components of the topology. Fatal, never
// retried.
type UnroutableError struct {
	Q1, Q2 int // physical qubits
}

func (e *UnroutableError) Error() string {
	return fmt.Sprintf("unroutable: physical qubits %d and %d are in disconnected components", e.Q1, e.Q2)
}

// Method selects the SWAP-insertion backend.
type Method string

const (
	// MethodLocal walks one shortest path per blocked gate, a strict
	// nearest-neighbor distance reduction.
	MethodLocal Method = "local"
	// MethodWindow scores candidate SWAPs by their effect on a bounded
	// look-ahead window of upcoming two-qubit gates.
	MethodWindow Method = "window"
	// MethodExact searches swap sequences by bounded branch-and-bound;
	// small instances only, falls back to local on the depth bound or
	// deadline.
	MethodExact Method = "exact"
)

// InitialMapping selects how the starting logical-to-physical
// assignment is chosen.
type InitialMapping string

const (
	InitialNone      InitialMapping = "none"
	InitialAnnealing InitialMapping = "annealing"
	InitialReverse   InitialMapping = "reverse-traversal"
)

// Scorer ranks a candidate SWAP for the windowed backend: lower is
// better. front is the blocked gate's physical pair; window holds the
// physical pairs of upcoming two-qubit gates under the mapping that
// would result from taking the swap. Supplying a custom Scorer changes
// the strategy without touching the router's control flow.
type Scorer func(front [2]int, window [][2]int, dist [][]int, swap [2]int) float64

// Options configures a routing run.
type Options struct {
	Method               Method
	UpdateInitialMapping InitialMapping
	Depth                int           // look-ahead window / backtracking bound; 0 means 8
	Timeout              time.Duration // search budget; the forward scan always completes
	Bidirectional        bool          // allow reversed gate orientation on directed topologies
	Seed                 int64
	Metric               circuit.Metric // tie-break for equal-length paths; 0 swaps means GateCount
	Scorer               Scorer
	Logger               *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = MethodLocal
	}
	if o.UpdateInitialMapping == "" {
		o.UpdateInitialMapping = InitialNone
	}
	if o.Depth <= 0 {
		o.Depth = 8
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Metric == nil {
		o.Metric = circuit.GateCount
	}
	if o.Scorer == nil {
		o.Scorer = SabreScore(0.7)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result is a routed circuit plus the mappings that produced it. The
// output graph is expressed over physical qubits; Final tells the
// caller where each logical qubit ended up, so measured-qubit lists
// can be relabeled.
type Result struct {
	Graph   *circuit.Graph
	Initial *hardware.Mapping
	Final   *hardware.Mapping
	Swaps   int
}

// Router routes circuits against one topology. Construct once per
// compiled job; the router itself holds no per-circuit state.
type Router struct {
	topo *hardware.Topology
	dist [][]int
	opts Options
}

// NewRouter validates the options and precomputes distances.
func NewRouter(topo *hardware.Topology, opts Options) (*Router, error) {
	opts = opts.withDefaults()
	switch opts.Method {
	case MethodLocal, MethodWindow, MethodExact:
	default:
		return nil, errors.Errorf("unknown routing method %q", opts.Method)
	}
	switch opts.UpdateInitialMapping {
	case InitialNone, InitialAnnealing, InitialReverse:
	default:
		return nil, errors.Errorf("unknown initial mapping strategy %q", opts.UpdateInitialMapping)
	}
	return &Router{topo: topo, dist: topo.Distances(), opts: opts}, nil
}

// Route produces a topology-compliant circuit. The input graph is not
// mutated. Exceeding the timeout degrades the search (initial-mapping
// optimization and the exact backend stop early); it never yields a
// partially routed circuit.
func (r *Router) Route(ctx context.Context, g *circuit.Graph) (*Result, error) {
	if g.NumQubits > r.topo.NbQubits {
		return nil, errors.Errorf("circuit uses %d qubits, hardware has %d", g.NumQubits, r.topo.NbQubits)
	}

	deadline := time.Time{}
	if r.opts.Timeout > 0 {
		deadline = time.Now().Add(r.opts.Timeout)
	}

	initial := hardware.Identity(r.topo.NbQubits)
	switch r.opts.UpdateInitialMapping {
	case InitialAnnealing:
		initial = r.annealInitial(ctx, g, deadline)
	case InitialReverse:
		var err error
		initial, err = r.reverseTraversal(ctx, g, deadline)
		if err != nil {
			return nil, err
		}
	}

	return r.forward(ctx, g, initial, deadline)
}

// forward is the scan shared by every backend: walk gates in
// topological order, relabel through the mapping, and let the backend
// close the distance for blocked two-qubit gates. Cancellation is
// honored between gates, never mid-insertion.
func (r *Router) forward(ctx context.Context, g *circuit.Graph, initial *hardware.Mapping, deadline time.Time) (*Result, error) {
	m := initial.Clone()
	out := circuit.New(r.topo.NbQubits)
	res := &Result{Initial: initial.Clone()}

	gates := g.Gates()
	for i, gate := range gates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "route")
		}
		switch {
		case len(gate.Qubits) == 0:
			out.Insert(gate)
		case len(gate.Qubits) == 1:
			out.Insert(gate.Relabel(m.Physical))
		case len(gate.Qubits) == 2:
			if err := r.routeTwoQubit(out, m, gate, upcomingPairs(gates[i+1:], r.opts.Depth), deadline, res); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("route: %d-qubit gate %s must be decomposed first", len(gate.Qubits), gate.Name)
		}
	}

	res.Graph = out
	res.Final = m
	r.opts.Logger.Debug("routing complete",
		zap.String("method", string(r.opts.Method)),
		zap.Int("swaps", res.Swaps),
		zap.Int("gates", out.Len()))
	return res, nil
}

// routeTwoQubit inserts SWAPs until the gate's mapped operands are
// adjacent, then emits the gate in a native orientation.
func (r *Router) routeTwoQubit(out *circuit.Graph, m *hardware.Mapping, gate circuit.Gate, window [][2]int, deadline time.Time, res *Result) error {
	p1 := m.Physical(gate.Qubits[0])
	p2 := m.Physical(gate.Qubits[1])
	if r.dist[p1][p2] < 0 {
		return errors.Wrap(&UnroutableError{Q1: p1, Q2: p2}, "route")
	}

	prev := [2]int{-1, -1}
	steps := 0
	for !r.topo.Adjacent(p1, p2) {
		steps++
		var swaps [][2]int
		switch {
		case steps > 4*r.topo.NbQubits:
			// The heuristic is cycling; finish the pair along a plain
			// shortest path.
			swaps = r.localSwaps(out, p1, p2)
		case r.opts.Method == MethodLocal:
			swaps = r.localSwaps(out, p1, p2)
		case r.opts.Method == MethodWindow:
			swaps = [][2]int{r.windowSwap(p1, p2, window, m, prev)}
		case r.opts.Method == MethodExact:
			swaps = r.exactSwaps(p1, p2, window, m, deadline)
		}
		if len(swaps) == 0 {
			// Backends always make progress while the pair is apart;
			// an empty plan means a bug, fail loudly.
			return errors.Errorf("route: %s backend made no progress for pair (%d,%d)", r.opts.Method, p1, p2)
		}
		for _, sw := range swaps {
			out.Insert(circuit.MustGate("SWAP", []int{sw[0], sw[1]}))
			m.SwapPhysical(sw[0], sw[1])
			res.Swaps++
			prev = sw
		}
		p1 = m.Physical(gate.Qubits[0])
		p2 = m.Physical(gate.Qubits[1])
	}

	return r.emitNative(out, gate.Relabel(m.Physical))
}

// emitNative inserts a two-qubit gate so its orientation is native to
// the topology. On undirected hardware every orientation is native.
// On directed hardware a wrong-way gate is flipped when it is
// symmetric, conjugated by H when it is a CX and Bidirectional allows
// it, and rejected otherwise.
func (r *Router) emitNative(out *circuit.Graph, gate circuit.Gate) error {
	a, b := gate.Qubits[0], gate.Qubits[1]
	if r.topo.NativeOrientation(a, b) {
		out.Insert(gate)
		return nil
	}
	if circuit.IsSymmetric(gate.Name) {
		out.Insert(circuit.Gate{Name: gate.Name, Qubits: []int{b, a}, Params: gate.Params, Dagger: gate.Dagger})
		return nil
	}
	if r.opts.Bidirectional && gate.Name == "CX" {
		out.Insert(circuit.MustGate("H", []int{a}))
		out.Insert(circuit.MustGate("H", []int{b}))
		out.Insert(circuit.MustGate("CX", []int{b, a}))
		out.Insert(circuit.MustGate("H", []int{a}))
		out.Insert(circuit.MustGate("H", []int{b}))
		return nil
	}
	return errors.Errorf("route: gate %s needs reversed edge (%d,%d); enable bidirectional routing", gate.Name, a, b)
}

// upcomingPairs collects the logical operand pairs of the next
// two-qubit gates, bounded by the look-ahead depth.
func upcomingPairs(gates []circuit.Gate, depth int) [][2]int {
	var out [][2]int
	for _, g := range gates {
		if len(g.Qubits) == 2 {
			out = append(out, [2]int{g.Qubits[0], g.Qubits[1]})
			if len(out) >= depth {
				break
			}
		}
	}
	return out
}
