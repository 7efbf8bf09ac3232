// Package optim drives repeated rewrite choices over a circuit graph,
// guided by a scalar metric. Two strategies share one proposal
// mechanism: local (gradient) descent, which only takes non-worsening
// moves, and simulated annealing, which takes worsening moves with
// probability exp(delta/T) under a cooling schedule.
package optim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qcompile/circuit"
	"qcompile/pattern"
)

// Group is a closed equivalence class of interchangeable patterns: the
// author asserts every member rewrites into every other without
// changing the represented unitary. The engine does not verify the
// assertion.
type Group struct {
	Name     string
	Patterns []*pattern.Pattern
}

// Strategy selects the search rule.
type Strategy int

const (
	Gradient Strategy = iota
	Annealing
)

// Options configures a run. The zero value is a usable gradient search
// with a small iteration budget.
type Options struct {
	Strategy    Strategy
	Iterations  int           // proposal budget; 0 means 256
	Seed        int64         // rng seed; 0 means time-based
	InitialTemp float64       // annealing start temperature; 0 means 1.0
	Cooling     float64       // geometric cooling factor in (0,1); 0 means 0.98
	Timeout     time.Duration // wall-clock budget; 0 means none
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = 256
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.InitialTemp <= 0 {
		o.InitialTemp = 1.0
	}
	if o.Cooling <= 0 || o.Cooling >= 1 {
		o.Cooling = 0.98
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result carries the best circuit observed, the metric trace (one
// entry per accepted move), and the number of accepted moves.
type Result struct {
	Graph    *circuit.Graph
	Trace    []float64
	Accepted int
}

// Run searches for a higher-metric circuit. The input graph is never
// mutated; the returned graph is the best clone observed, which for
// annealing is not necessarily the final one. Hitting the timeout or a
// cancelled context is not an error: the best result so far is
// returned. Run returns a worse-than-input result never.
func Run(ctx context.Context, g *circuit.Graph, metric circuit.Metric, groups []Group, opts Options) (*Result, error) {
	if metric == nil {
		return nil, errors.New("optimize: nil metric")
	}
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	cur := g.Clone()
	curScore := metric(cur)
	best := cur.Clone()
	bestScore := curScore

	res := &Result{}
	deadline := time.Time{}
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.Timeout)
	}

	// A full pass without any accepted move across every group means
	// the search is stuck; stop early.
	staleLimit := 0
	for _, grp := range groups {
		staleLimit += len(grp.Patterns) * len(grp.Patterns)
	}
	if staleLimit < 16 {
		staleLimit = 16
	}
	stale := 0

	temp := opts.InitialTemp
	for iter := 0; iter < opts.Iterations; iter++ {
		// Budget checks happen only at proposal boundaries, never
		// mid-mutation.
		if ctx.Err() != nil {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			opts.Logger.Debug("optimizer timeout, returning best so far",
				zap.Int("iteration", iter), zap.Float64("best", bestScore))
			break
		}
		if stale >= staleLimit {
			break
		}
		if opts.Strategy == Annealing {
			temp *= opts.Cooling
		}

		cand, candScore, ok, err := propose(cur, metric, groups, rng, opts.Strategy == Gradient)
		if err != nil {
			return nil, err
		}
		if !ok {
			stale++
			continue
		}

		delta := candScore - curScore
		accept := delta >= 0
		if !accept && opts.Strategy == Annealing && temp > 0 {
			accept = rng.Float64() < math.Exp(delta/temp)
		}
		if !accept {
			stale++
			continue
		}

		cur = cand
		curScore = candScore
		res.Trace = append(res.Trace, curScore)
		res.Accepted++
		stale = 0
		opts.Logger.Debug("accepted rewrite",
			zap.Int("iteration", iter),
			zap.Float64("metric", curScore),
			zap.Float64("delta", delta))
		if curScore > bestScore {
			best = cur.Clone()
			bestScore = curScore
		}
	}

	res.Graph = best
	return res, nil
}

// propose picks a random group, a random present member, and a random
// occurrence of it, then rewrites the occurrence into another member
// of the group on a clone. The gradient strategy tries every other
// member and keeps the best-scoring result; annealing takes a random
// one so worsening neighbors stay reachable. ok is false when nothing
// in the chosen group applies.
func propose(cur *circuit.Graph, metric circuit.Metric, groups []Group, rng *rand.Rand, pickBest bool) (*circuit.Graph, float64, bool, error) {
	if len(groups) == 0 {
		return nil, 0, false, nil
	}
	grp := groups[rng.Intn(len(groups))]
	if len(grp.Patterns) < 2 {
		return nil, 0, false, nil
	}

	for _, si := range rng.Perm(len(grp.Patterns)) {
		src := grp.Patterns[si]
		matches := pattern.FindAll(cur, src)
		if len(matches) == 0 {
			continue
		}
		b := matches[rng.Intn(len(matches))]

		if !pickBest {
			ti := rng.Intn(len(grp.Patterns) - 1)
			if ti >= si {
				ti++
			}
			cand := cur.Clone()
			if err := pattern.Apply(cand, src, grp.Patterns[ti], b); err != nil {
				return nil, 0, false, errors.Wrap(err, "propose")
			}
			return cand, metric(cand), true, nil
		}

		var best *circuit.Graph
		bestScore := 0.0
		for ti, dst := range grp.Patterns {
			if ti == si {
				continue
			}
			cand := cur.Clone()
			if err := pattern.Apply(cand, src, dst, b); err != nil {
				return nil, 0, false, errors.Wrap(err, "propose")
			}
			if score := metric(cand); best == nil || score > bestScore {
				best = cand
				bestScore = score
			}
		}
		return best, bestScore, true, nil
	}
	return nil, 0, false, nil
}
