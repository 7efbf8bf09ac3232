package main

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qcompile/circuit"
	"qcompile/hardware"
)

var (
	flagHardware      string
	flagOut           string
	flagMethod        string
	flagStrategy      string
	flagIterations    int
	flagTrials        int
	flagSeed          int64
	flagTimeout       time.Duration
	flagSynth         string
	flagDepth         int
	flagBidirectional bool
	flagInitial       string
	flagVerbose       bool
)

var rootCmd = &cobra.Command{
	Use:          "qcompile",
	Short:        "Rewrite, optimize and route quantum circuits",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHardware, "hardware", "", "hardware topology spec (YAML); empty keeps circuits logical")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline progress to stderr")

	cf := compileCmd.Flags()
	cf.StringVarP(&flagOut, "out", "o", "-", "output file; - for stdout")
	cf.StringVar(&flagMethod, "method", "local", "routing method: local, window or exact")
	cf.StringVar(&flagInitial, "initial", "none", "initial mapping: none, annealing or reverse-traversal")
	cf.StringVar(&flagStrategy, "strategy", "gradient", "optimizer strategy: gradient or annealing")
	cf.IntVar(&flagIterations, "iterations", 0, "optimizer proposal budget per trial")
	cf.IntVar(&flagTrials, "trials", 0, "parallel optimizer trials")
	cf.Int64Var(&flagSeed, "seed", 0, "base random seed; 0 draws from the clock")
	cf.DurationVar(&flagTimeout, "timeout", 0, "overall compilation budget")
	cf.StringVar(&flagSynth, "synth", "", "lazy synthesis backend: gauss or greedy; empty disables")
	cf.IntVar(&flagDepth, "depth", 0, "search depth for window routing and greedy synthesis")
	cf.BoolVar(&flagBidirectional, "bidirectional", false, "allow reversed CX orientation on directed couplers")

	rootCmd.AddCommand(compileCmd, statsCmd)
}

func newLogger() (*zap.Logger, error) {
	if !flagVerbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func loadCircuit(path string) (*circuit.Graph, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = readStdin()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read circuit")
	}
	g, err := circuit.ParseQASM(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return g, nil
}

func loadTopology() (*hardware.Topology, error) {
	if flagHardware == "" {
		return nil, nil
	}
	data, err := os.ReadFile(flagHardware)
	if err != nil {
		return nil, errors.Wrap(err, "read hardware spec")
	}
	spec, err := hardware.LoadSpec(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", flagHardware)
	}
	return spec.Build()
}

func readStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, errors.New("no circuit on stdin")
	}
	return io.ReadAll(os.Stdin)
}
