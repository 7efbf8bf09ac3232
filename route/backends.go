package route

import (
	"math"
	"time"

	"qcompile/circuit"
	"qcompile/hardware"
)

// localSwaps walks one shortest path between the blocked pair,
// emitting the swaps that carry the first operand next to the second.
// When several equal-length paths exist they are scored by the
// configured metric on the output built so far, not by discovery
// order.
func (r *Router) localSwaps(out *circuit.Graph, p1, p2 int) [][2]int {
	paths := r.topo.AllShortestPaths(p1, p2)
	if len(paths) == 0 {
		return nil
	}
	// Cap the enumeration; dense topologies have combinatorially many
	// shortest paths and the later ones rarely differ in metric.
	if len(paths) > 16 {
		paths = paths[:16]
	}

	best := pathSwaps(paths[0])
	if len(paths) > 1 {
		bestScore := math.Inf(-1)
		for _, path := range paths {
			swaps := pathSwaps(path)
			cand := out.Clone()
			for _, sw := range swaps {
				cand.Insert(circuit.MustGate("SWAP", []int{sw[0], sw[1]}))
			}
			if score := r.opts.Metric(cand); score > bestScore {
				bestScore = score
				best = swaps
			}
		}
	}
	return best
}

// pathSwaps converts a path [p1 ... p2] into the swap edges that make
// the endpoints adjacent: every edge except the final one.
func pathSwaps(path []int) [][2]int {
	var swaps [][2]int
	for i := 0; i+2 < len(path); i++ {
		swaps = append(swaps, [2]int{path[i], path[i+1]})
	}
	return swaps
}

// windowSwap picks the single best-scoring swap among edges incident
// to the blocked pair, judged over the look-ahead window. The swap
// just taken is excluded so the search cannot immediately undo itself.
func (r *Router) windowSwap(p1, p2 int, window [][2]int, m *hardware.Mapping, prev [2]int) [2]int {
	bestScore := math.Inf(1)
	var best [2]int
	haveBest := false

	consider := func(edge [2]int) {
		if edge == prev || (edge[0] == prev[1] && edge[1] == prev[0]) {
			return
		}
		after := func(p int) int {
			switch p {
			case edge[0]:
				return edge[1]
			case edge[1]:
				return edge[0]
			}
			return p
		}
		f1, f2 := after(p1), after(p2)
		phys := make([][2]int, len(window))
		for i, pr := range window {
			phys[i] = [2]int{after(m.Physical(pr[0])), after(m.Physical(pr[1]))}
		}
		score := r.opts.Scorer([2]int{f1, f2}, phys, r.dist, edge)
		if score < bestScore || (score == bestScore && haveBest && lessEdge(edge, best)) {
			bestScore = score
			best = edge
			haveBest = true
		}
	}

	for _, n := range r.topo.Neighbors(p1) {
		consider(orderEdge(p1, n))
	}
	for _, n := range r.topo.Neighbors(p2) {
		consider(orderEdge(p2, n))
	}
	if !haveBest {
		// Every incident edge was the previous swap; take the
		// shortest-path step instead.
		path := r.topo.ShortestPath(p1, p2)
		return [2]int{path[0], path[1]}
	}
	return best
}

func orderEdge(a, b int) [2]int {
	if a > b {
		return [2]int{b, a}
	}
	return [2]int{a, b}
}

func lessEdge(a, b [2]int) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// SabreScore builds the default windowed scorer: the distance of the
// blocked pair after the swap, plus a decayed sum of the distances of
// the look-ahead pairs. Smaller decay values make the router greedier
// about the front gate.
func SabreScore(decay float64) Scorer {
	return func(front [2]int, window [][2]int, dist [][]int, swap [2]int) float64 {
		score := float64(dist[front[0]][front[1]])
		w := decay
		for _, pr := range window {
			score += 0.5 * w * float64(dist[pr[0]][pr[1]])
			w *= decay
		}
		return score
	}
}

// exactSwaps enumerates all swap sequences of exactly the minimal
// length (pair distance minus one) and keeps the one with the best
// look-ahead score: a branch-and-bound restricted to optimal-length
// plans. Hitting the deadline or the node cap degrades to the plain
// shortest-path plan.
func (r *Router) exactSwaps(p1, p2 int, window [][2]int, m *hardware.Mapping, deadline time.Time) [][2]int {
	need := r.dist[p1][p2] - 1
	fallback := pathSwaps(r.topo.ShortestPath(p1, p2))
	if need <= 0 {
		return fallback
	}
	if need > r.opts.Depth {
		return fallback
	}

	physWindow := make([][2]int, len(window))
	for i, pr := range window {
		physWindow[i] = [2]int{m.Physical(pr[0]), m.Physical(pr[1])}
	}

	bestScore := math.Inf(1)
	var best [][2]int
	nodes := 0
	const nodeCap = 200000

	var search func(f1, f2 int, seq [][2]int, remap map[int]int)
	search = func(f1, f2 int, seq [][2]int, remap map[int]int) {
		nodes++
		if nodes > nodeCap {
			return
		}
		if nodes%1024 == 0 && !deadline.IsZero() && time.Now().After(deadline) {
			return
		}
		if len(seq) == need {
			if !r.topo.Adjacent(f1, f2) {
				return
			}
			phys := make([][2]int, len(physWindow))
			for i, pr := range physWindow {
				a, b := pr[0], pr[1]
				if ra, ok := remap[a]; ok {
					a = ra
				}
				if rb, ok := remap[b]; ok {
					b = rb
				}
				phys[i] = [2]int{a, b}
			}
			score := r.opts.Scorer([2]int{f1, f2}, phys, r.dist, seq[len(seq)-1])
			if score < bestScore {
				bestScore = score
				best = append([][2]int(nil), seq...)
			}
			return
		}
		// Bound: the remaining budget must cover the remaining
		// distance.
		if r.dist[f1][f2]-1 > need-len(seq) {
			return
		}
		for _, e := range r.topo.Edges() {
			nf1, nf2 := f1, f2
			if e[0] == f1 {
				nf1 = e[1]
			} else if e[1] == f1 {
				nf1 = e[0]
			}
			if e[0] == f2 {
				nf2 = e[1]
			} else if e[1] == f2 {
				nf2 = e[0]
			}
			if nf1 == f1 && nf2 == f2 {
				continue // swap moves neither operand, never optimal here
			}
			nr := make(map[int]int, len(remap)+2)
			for k, v := range remap {
				nr[k] = v
			}
			swapRemap(nr, e[0], e[1])
			nseq := append(append([][2]int(nil), seq...), e)
			search(nf1, nf2, nseq, nr)
		}
	}
	search(p1, p2, nil, map[int]int{})

	if best == nil {
		return fallback
	}
	return best
}

// swapRemap composes one physical swap into a sparse relocation map.
func swapRemap(remap map[int]int, a, b int) {
	// Find which keys currently map onto a and b.
	ka, kb := a, b
	for k, v := range remap {
		if v == a {
			ka = k
		}
		if v == b {
			kb = k
		}
	}
	remap[ka] = b
	remap[kb] = a
}
