// Package compile drives the full pipeline: cleanup rewrites,
// metric-guided optimization over parallel trials, optional lazy
// algebraic synthesis, and hardware routing.
package compile

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"qcompile/circuit"
	"qcompile/hardware"
	"qcompile/optim"
	"qcompile/pattern"
	"qcompile/route"
	"qcompile/synth"
)

// Options configures one compilation.
type Options struct {
	// Metric is maximized by the optimizer and used to pick the best
	// trial. Nil means the negated gate count.
	Metric circuit.Metric
	// Groups are the interchangeable-pattern groups the optimizer
	// explores. Nil means StandardGroups.
	Groups []optim.Group
	// Trials is the number of independent optimizer runs raced in
	// parallel over clones; 0 means 4. Seeds derive from
	// Optimizer.Seed so a fixed seed makes the whole race
	// reproducible.
	Trials    int
	Optimizer optim.Options
	Router    route.Options
	// Synth, when set, inserts a lazy synthesis pass between
	// optimization and routing.
	Synth *synth.Options
	// SkipCleanup disables the deterministic cancellation and
	// rotation-merge rewrites that run before optimization.
	SkipCleanup bool
	Timeout     time.Duration
	Logger      *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Metric == nil {
		o.Metric = circuit.GateCount
	}
	if o.Groups == nil {
		o.Groups = StandardGroups()
	}
	if o.Trials <= 0 {
		o.Trials = 4
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result is a compiled circuit with the provenance a caller needs to
// interpret it: the mappings chosen by routing and the optimizer's
// accepted-metric trace from the winning trial.
type Result struct {
	Graph     *circuit.Graph
	Initial   *hardware.Mapping
	Final     *hardware.Mapping
	Swaps     int
	Trace     []float64
	MetricIn  float64
	MetricOut float64
}

// StandardGroups returns the default interchangeable-pattern groups.
func StandardGroups() []optim.Group {
	return []optim.Group{
		{
			// Group members double as replacements, so the SWAP side
			// is directed here.
			Name:     "swap-decomposition",
			Patterns: []*pattern.Pattern{pattern.Must(pattern.T("SWAP", 0, 1)), pattern.SwapAsCNOTs()},
		},
		{
			Name:     "cz-conjugation",
			Patterns: []*pattern.Pattern{pattern.Must(pattern.T("CZ", 0, 1)), pattern.HCXHConjugation()},
		},
	}
}

// Compile runs the pipeline against one topology. A nil topology skips
// routing and returns the optimized circuit over logical qubits.
func Compile(ctx context.Context, g *circuit.Graph, topo *hardware.Topology, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	res := &Result{MetricIn: opts.Metric(g)}
	cur := g.Clone()

	if !opts.SkipCleanup {
		if err := cleanup(cur); err != nil {
			return nil, errors.Wrap(err, "cleanup")
		}
	}

	// Routing refuses gates wider than two qubits.
	if topo != nil {
		if _, err := pattern.ReplaceAll(cur, pattern.CCXGate(), pattern.CCXNetwork(), 0); err != nil {
			return nil, errors.Wrap(err, "decompose toffoli")
		}
	}

	best, trace, err := raceTrials(ctx, cur, opts)
	if err != nil {
		return nil, err
	}
	cur = best
	res.Trace = trace

	// Synthesis summaries hold one machine word per qubit row; wider
	// registers skip the pass.
	if opts.Synth != nil && cur.NumQubits <= 64 {
		sopts := *opts.Synth
		if sopts.Topo == nil {
			sopts.Topo = topo
		}
		synthesized, err := synth.NewSynthesizer(sopts).Run(cur)
		if err != nil {
			return nil, errors.Wrap(err, "synthesis")
		}
		// Synthesis optimizes structure, not the metric; keep it only
		// when it does not hurt.
		if opts.Metric(synthesized) >= opts.Metric(cur) {
			cur = synthesized
		}
	}

	if topo != nil {
		router, err := route.NewRouter(topo, opts.Router)
		if err != nil {
			return nil, errors.Wrap(err, "router")
		}
		routed, err := router.Route(ctx, cur)
		if err != nil {
			return nil, errors.Wrap(err, "routing")
		}
		cur = routed.Graph
		res.Initial = routed.Initial
		res.Final = routed.Final
		res.Swaps = routed.Swaps
	}

	res.Graph = cur
	res.MetricOut = opts.Metric(cur)
	log.Info("compiled",
		zap.Float64("metric_in", res.MetricIn),
		zap.Float64("metric_out", res.MetricOut),
		zap.Int("swaps", res.Swaps),
		zap.Int("gates", cur.Len()))
	return res, nil
}

// cleanup applies the deterministic rewrites that are always wins:
// cancelling self-inverse pairs and merging adjacent rotations, to a
// fixed point.
func cleanup(g *circuit.Graph) error {
	for {
		changed := false
		for _, p := range pattern.CancelPairs() {
			removed, err := pattern.RemoveOne(g, p)
			if err != nil {
				return err
			}
			changed = changed || removed
		}
		merged, err := pattern.MergeRotations(g)
		if err != nil {
			return err
		}
		if !changed && merged == 0 {
			return nil
		}
	}
}

// raceTrials runs independent optimizer trials over clones and returns
// the best graph by metric. Ties go to the lowest trial index so the
// outcome is deterministic for a fixed seed.
func raceTrials(ctx context.Context, g *circuit.Graph, opts Options) (*circuit.Graph, []float64, error) {
	type outcome struct {
		res *optim.Result
		err error
	}
	outcomes := make([]outcome, opts.Trials)

	baseSeed := opts.Optimizer.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	for t := 0; t < opts.Trials; t++ {
		t := t
		eg.Go(func() error {
			o := opts.Optimizer
			o.Seed = baseSeed + int64(t)
			r, err := optim.Run(ctx, g.Clone(), opts.Metric, opts.Groups, o)
			mu.Lock()
			outcomes[t] = outcome{res: r, err: err}
			mu.Unlock()
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, errors.Wrap(err, "optimizer trial")
	}

	best := -1
	for t, o := range outcomes {
		if o.res == nil {
			continue
		}
		if best < 0 || opts.Metric(o.res.Graph) > opts.Metric(outcomes[best].res.Graph) {
			best = t
		}
	}
	if best < 0 {
		return g, nil, nil
	}
	return outcomes[best].res.Graph, outcomes[best].res.Trace, nil
}
