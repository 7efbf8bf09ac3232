package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"qcompile/circuit"
	"qcompile/compile"
	"qcompile/optim"
	"qcompile/route"
	"qcompile/synth"
)

var compileCmd = &cobra.Command{
	Use:   "compile [circuit.qasm]",
	Short: "Compile a QASM circuit, optionally against a hardware topology",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		g, err := loadCircuit(path)
		if err != nil {
			return err
		}
		topo, err := loadTopology()
		if err != nil {
			return err
		}
		opts, err := buildOptions()
		if err != nil {
			return err
		}

		res, err := compile.Compile(context.Background(), g, topo, opts)
		if err != nil {
			return err
		}

		qasm := circuit.ToQASM(res.Graph)
		if flagOut == "-" {
			fmt.Print(qasm)
			return nil
		}
		return errors.Wrap(os.WriteFile(flagOut, []byte(qasm), 0o644), "write output")
	},
}

func buildOptions() (compile.Options, error) {
	log, err := newLogger()
	if err != nil {
		return compile.Options{}, err
	}

	var strategy optim.Strategy
	switch flagStrategy {
	case "gradient":
		strategy = optim.Gradient
	case "annealing":
		strategy = optim.Annealing
	default:
		return compile.Options{}, errors.Errorf("unknown strategy %q", flagStrategy)
	}

	opts := compile.Options{
		Trials:  flagTrials,
		Timeout: flagTimeout,
		Logger:  log,
		Optimizer: optim.Options{
			Strategy:   strategy,
			Iterations: flagIterations,
			Seed:       flagSeed,
			Logger:     log,
		},
		Router: route.Options{
			Method:               route.Method(flagMethod),
			UpdateInitialMapping: route.InitialMapping(flagInitial),
			Depth:                flagDepth,
			Bidirectional:        flagBidirectional,
			Seed:                 flagSeed,
			Logger:               log,
		},
	}

	switch flagSynth {
	case "":
	case "gauss":
		opts.Synth = &synth.Options{Backend: synth.BackendGauss, Depth: flagDepth, Logger: log}
	case "greedy":
		opts.Synth = &synth.Options{Backend: synth.BackendGreedy, Depth: flagDepth, Logger: log}
	default:
		return compile.Options{}, errors.Errorf("unknown synthesis backend %q", flagSynth)
	}
	return opts, nil
}
