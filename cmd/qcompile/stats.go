package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"qcompile/circuit"
	"qcompile/compile"
)

var (
	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(0, 1)

	statsTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	statsValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#73daca"))

	statsDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))
)

var statsCmd = &cobra.Command{
	Use:   "stats [circuit.qasm]",
	Short: "Show circuit metrics, and the compiled metrics when a hardware spec is given",
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

		fmt.Println(renderStats("input", path, g, -1))

		if topo != nil {
			log, err := newLogger()
			if err != nil {
				return err
			}
			res, err := compile.Compile(context.Background(), g, topo, compile.Options{Logger: log})
			if err != nil {
				return err
			}
			fmt.Println(renderStats("compiled", flagHardware, res.Graph, res.Swaps))
		}
		return nil
	},
}

func renderStats(title, source string, g *circuit.Graph, swaps int) string {
	var b strings.Builder
	b.WriteString(statsTitleStyle.Render(title))
	b.WriteString(statsDimStyle.Render("  " + source))
	b.WriteString("\n")

	row := func(label string, value int) {
		b.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render(fmt.Sprintf("%-10s", label)),
			statsValueStyle.Render(fmt.Sprintf("%d", value))))
	}
	row("qubits", g.NumQubits)
	row("gates", g.Len())
	row("two-qubit", int(-circuit.TwoQubitCount(g)))
	row("depth", int(-circuit.Depth(g)))
	if swaps >= 0 {
		row("swaps", swaps)
	}
	return statsBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
