package compile

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qcompile/circuit"
	"qcompile/hardware"
)

// Job is one circuit submitted for compilation. Measured lists the
// logical qubits read out at the end; compilation relabels them to the
// physical qubits holding those wires after routing.
type Job struct {
	ID       uuid.UUID
	Circuit  *circuit.Graph
	Shots    int
	Measured []int
}

// NewJob wraps a circuit. Shots below one are bumped to one. A nil
// measured list means every qubit.
func NewJob(g *circuit.Graph, shots int, measured []int) *Job {
	if shots < 1 {
		shots = 1
	}
	if measured == nil {
		measured = make([]int, g.NumQubits)
		for q := range measured {
			measured[q] = q
		}
	}
	return &Job{ID: uuid.New(), Circuit: g, Shots: shots, Measured: measured}
}

// CompiledJob pairs a job with its compilation result. Measured is
// already expressed over physical qubits.
type CompiledJob struct {
	Job      *Job
	Result   *Result
	Measured []int
}

// CompileJob compiles one job and relabels its measured qubits through
// the final mapping.
func CompileJob(ctx context.Context, job *Job, topo *hardware.Topology, opts Options) (*CompiledJob, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With(zap.String("job", job.ID.String()))
	opts.Logger = log

	res, err := Compile(ctx, job.Circuit, topo, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "job %s", job.ID)
	}

	// Entry i of the measured list feeds classical bit i, so relabeling
	// must keep the order the job gave.
	measured := append([]int(nil), job.Measured...)
	if res.Final != nil {
		for i, q := range measured {
			measured[i] = res.Final.Physical(q)
		}
	}
	return &CompiledJob{Job: job, Result: res, Measured: measured}, nil
}

// Batch is an ordered set of jobs compiled against one topology.
type Batch struct {
	ID   uuid.UUID
	Jobs []*Job
}

// NewBatch groups jobs under one batch identifier.
func NewBatch(jobs ...*Job) *Batch {
	return &Batch{ID: uuid.New(), Jobs: jobs}
}

// CompileBatch compiles every job in order. Jobs are independent, but
// a batch is compiled sequentially so per-job optimizer trials keep
// the parallelism budget to themselves.
func CompileBatch(ctx context.Context, batch *Batch, topo *hardware.Topology, opts Options) ([]*CompiledJob, error) {
	out := make([]*CompiledJob, 0, len(batch.Jobs))
	for _, job := range batch.Jobs {
		cj, err := CompileJob(ctx, job, topo, opts)
		if err != nil {
			return out, err
		}
		out = append(out, cj)
	}
	return out, nil
}
