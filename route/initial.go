package route

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"qcompile/circuit"
	"qcompile/hardware"
)

// annealInitial searches the space of logical-to-physical permutations
// by simulated annealing, minimizing the total mapped distance of the
// circuit's two-qubit gates. Deadline and cancellation are honored
// between proposals; the best permutation found so far always comes
// back.
func (r *Router) annealInitial(ctx context.Context, g *circuit.Graph, deadline time.Time) *hardware.Mapping {
	pairs := twoQubitPairs(g)
	if len(pairs) == 0 {
		return hardware.Identity(r.topo.NbQubits)
	}

	cost := func(m *hardware.Mapping) float64 {
		total := 0.0
		for _, pr := range pairs {
			d := r.dist[m.Physical(pr[0])][m.Physical(pr[1])]
			if d < 0 {
				// Disconnected pairs dominate everything else; the
				// forward pass reports them properly later.
				return math.Inf(1)
			}
			total += float64(d)
		}
		return total
	}

	rng := rand.New(rand.NewSource(r.opts.Seed))
	cur := hardware.Identity(r.topo.NbQubits)
	curCost := cost(cur)
	best := cur.Clone()
	bestCost := curCost

	iters := 200 * r.topo.NbQubits
	temp := 2.0
	for i := 0; i < iters; i++ {
		if i%32 == 0 {
			if ctx.Err() != nil {
				break
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				break
			}
		}
		temp *= 0.995

		p1 := rng.Intn(r.topo.NbQubits)
		p2 := rng.Intn(r.topo.NbQubits)
		if p1 == p2 {
			continue
		}
		cand := cur.Clone()
		cand.SwapPhysical(p1, p2)
		candCost := cost(cand)
		delta := candCost - curCost
		if delta <= 0 || (temp > 0 && rng.Float64() < math.Exp(-delta/temp)) {
			cur = cand
			curCost = candCost
			if curCost < bestCost {
				best = cur.Clone()
				bestCost = curCost
			}
		}
	}

	r.opts.Logger.Debug("annealed initial mapping",
		zap.Float64("cost", bestCost),
		zap.Int("pairs", len(pairs)))
	return best
}

// reverseTraversal runs the forward router, routes the reversed
// circuit starting from the mapping the forward pass ended with, and
// adopts the mapping that run ends with as the new initial mapping.
// Three rounds; the process converges quickly and later rounds churn.
func (r *Router) reverseTraversal(ctx context.Context, g *circuit.Graph, deadline time.Time) (*hardware.Mapping, error) {
	const rounds = 3
	initial := hardware.Identity(r.topo.NbQubits)
	reversed := reverseCircuit(g)

	for i := 0; i < rounds; i++ {
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			break
		}
		fwd, err := r.forward(ctx, g, initial, deadline)
		if err != nil {
			return nil, err
		}
		back, err := r.forward(ctx, reversed, fwd.Final, deadline)
		if err != nil {
			return nil, err
		}
		initial = back.Final
	}
	return initial, nil
}

// reverseCircuit builds the adjoint circuit: gates in reverse order,
// each replaced by its dagger.
func reverseCircuit(g *circuit.Graph) *circuit.Graph {
	out := circuit.New(g.NumQubits)
	gates := g.Gates()
	for i := len(gates) - 1; i >= 0; i-- {
		out.Insert(gates[i].Adjoint())
	}
	return out
}

func twoQubitPairs(g *circuit.Graph) [][2]int {
	var out [][2]int
	for _, gate := range g.Gates() {
		if len(gate.Qubits) == 2 {
			out = append(out, [2]int{gate.Qubits[0], gate.Qubits[1]})
		}
	}
	return out
}
