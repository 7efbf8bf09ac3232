package circuit

// Metric scores a circuit. By convention the optimizer maximizes, so
// cost-like metrics return negated values: one search direction
// suffices for both minimization and maximization.
type Metric func(*Graph) float64

// GateCount is the negated total gate count.
func GateCount(g *Graph) float64 {
	return -float64(g.Len())
}

// TwoQubitCount is the negated count of entangling (two-qubit) gates.
func TwoQubitCount(g *Graph) float64 {
	n := 0
	for _, gate := range g.Gates() {
		if gate.TwoQubit() {
			n++
		}
	}
	return -float64(n)
}

// Depth is the negated schedule depth: gates on disjoint qubits share a
// layer, multi-qubit gates impose a barrier on all their operands, and
// barrier-class gates stall every wire.
func Depth(g *Graph) float64 {
	return -float64(g.depthBy(func(Gate) float64 { return 1 }))
}

// DurationMetric builds a metric from a per-gate-name duration table.
// Gates missing from the table cost zero; multi-qubit gates impose a
// barrier on all their qubits, so the result is the length of the
// critical path through the schedule, negated for maximization.
func DurationMetric(durations map[string]float64) Metric {
	return func(g *Graph) float64 {
		return -g.depthBy(func(gate Gate) float64 {
			return durations[gate.Name]
		})
	}
}

// depthBy computes the critical-path length with a per-gate weight.
func (g *Graph) depthBy(weight func(Gate) float64) float64 {
	ready := make([]float64, g.NumQubits)
	total := 0.0
	for _, h := range g.seq {
		gate := g.nodes[h]
		w := weight(gate)
		if IsOpaque(gate.Name) && len(gate.Qubits) == 0 {
			// Full barrier: every wire advances to the global frontier.
			frontier := 0.0
			for _, r := range ready {
				if r > frontier {
					frontier = r
				}
			}
			for q := range ready {
				ready[q] = frontier + w
			}
			if frontier+w > total {
				total = frontier + w
			}
			continue
		}
		start := 0.0
		for _, q := range gate.Qubits {
			if q < len(ready) && ready[q] > start {
				start = ready[q]
			}
		}
		end := start + w
		for _, q := range gate.Qubits {
			if q < len(ready) {
				ready[q] = end
			}
		}
		if end > total {
			total = end
		}
	}
	return total
}
