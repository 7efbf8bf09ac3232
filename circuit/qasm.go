package circuit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pre-compiled regexps for QASM parsing.
var (
	singleGateRegex      = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\];?$`)
	singleGateParamRegex = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `(?:\s*,\s*` + paramPattern + `)*)\s*\)\s+q\[(\d+)\];?$`)
	twoQubitRegex        = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	twoQubitParamRegex   = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `)\s*\)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	threeQubitRegex      = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\],\s*q\[(\d+)\],\s*q\[(\d+)\];?$`)
	measureRegex         = regexp.MustCompile(`^measure\s+q\[(\d+)\]\s*->\s*(\w+)\[(\d+)\];?$`)
	resetRegex           = regexp.MustCompile(`^reset\s+q\[(\d+)\];?$`)
	qregRegex            = regexp.MustCompile(`qreg\s+(\w+)\[(\d+)\]`)
	barrierRegex         = regexp.MustCompile(`^barrier\s+`)
)

// ParseQASM parses QASM 2.0 text into a fresh Graph. Lines the grammar
// does not cover (classical control, custom gate bodies) are rejected,
// since a compiler must not silently drop operations it cannot
// represent.
func ParseQASM(qasm string) (*Graph, error) {
	g := New(0)

	for lineNum, raw := range strings.Split(qasm, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "OPENQASM") || strings.HasPrefix(line, "include") {
			continue
		}
		if strings.HasPrefix(line, "qreg") {
			if matches := qregRegex.FindStringSubmatch(line); len(matches) > 2 {
				n, _ := strconv.Atoi(matches[2])
				for g.NumQubits < n {
					g.NumQubits++
					g.wires = append(g.wires, nil)
				}
			}
			continue
		}
		if strings.HasPrefix(line, "creg") {
			continue
		}
		if barrierRegex.MatchString(line) {
			g.Insert(Gate{Name: "BARRIER"})
			continue
		}

		if matches := measureRegex.FindStringSubmatch(line); matches != nil {
			q, _ := strconv.Atoi(matches[1])
			g.Insert(MustGate("MEASURE", []int{q}))
			continue
		}

		if matches := resetRegex.FindStringSubmatch(line); matches != nil {
			q, _ := strconv.Atoi(matches[1])
			g.Insert(MustGate("RESET", []int{q}))
			continue
		}

		if matches := threeQubitRegex.FindStringSubmatch(line); matches != nil {
			name := qasmName(matches[1])
			q1, _ := strconv.Atoi(matches[2])
			q2, _ := strconv.Atoi(matches[3])
			q3, _ := strconv.Atoi(matches[4])
			if name == "TOFFOLI" {
				name = "CCX"
			}
			g.Insert(Gate{Name: name, Qubits: []int{q1, q2, q3}})
			continue
		}

		if matches := twoQubitParamRegex.FindStringSubmatch(line); matches != nil {
			name := qasmName(matches[1])
			p, ok := ParseParam(matches[2])
			if !ok {
				return nil, errors.Errorf("line %d: bad parameter %q", lineNum+1, matches[2])
			}
			q1, _ := strconv.Atoi(matches[3])
			q2, _ := strconv.Atoi(matches[4])
			if name == "CU1" {
				name = "CP"
			}
			g.Insert(Gate{Name: name, Qubits: []int{q1, q2}, Params: []float64{p}})
			continue
		}

		if matches := twoQubitRegex.FindStringSubmatch(line); matches != nil {
			name := qasmName(matches[1])
			q1, _ := strconv.Atoi(matches[2])
			q2, _ := strconv.Atoi(matches[3])
			g.Insert(Gate{Name: name, Qubits: []int{q1, q2}})
			continue
		}

		if matches := singleGateParamRegex.FindStringSubmatch(line); matches != nil {
			name := qasmName(matches[1])
			target, _ := strconv.Atoi(matches[3])
			var params []float64
			for _, pStr := range strings.Split(matches[2], ",") {
				p, ok := ParseParam(strings.TrimSpace(pStr))
				if !ok {
					return nil, errors.Errorf("line %d: bad parameter %q", lineNum+1, pStr)
				}
				params = append(params, p)
			}
			if name == "U1" || name == "P" {
				name = "PH"
			}
			g.Insert(Gate{Name: name, Qubits: []int{target}, Params: params})
			continue
		}

		if matches := singleGateRegex.FindStringSubmatch(line); matches != nil {
			name := qasmName(matches[1])
			target, _ := strconv.Atoi(matches[2])
			dagger := false
			if strings.HasSuffix(name, "DG") {
				dagger = true
				name = strings.TrimSuffix(name, "DG")
			}
			g.Insert(Gate{Name: name, Qubits: []int{target}, Dagger: dagger})
			continue
		}

		return nil, errors.Errorf("line %d: unsupported statement %q", lineNum+1, line)
	}

	return g, nil
}

// ToQASM renders the circuit as QASM 2.0 text. Measurements target the
// classical bit with the same index as the measured qubit.
func ToQASM(g *Graph) string {
	numQubits := g.NumQubits
	if numQubits < 1 {
		numQubits = 1
	}
	numCbits := 1
	for _, gate := range g.Gates() {
		if gate.Name == "MEASURE" && gate.Qubits[0]+1 > numCbits {
			numCbits = gate.Qubits[0] + 1
		}
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n", numQubits)
	fmt.Fprintf(&sb, "creg c[%d];\n\n", numCbits)

	for _, gate := range g.Gates() {
		writeGateQASM(&sb, gate, numQubits)
	}
	return sb.String()
}

func writeGateQASM(sb *strings.Builder, gate Gate, numQubits int) {
	switch gate.Name {
	case "BARRIER":
		qubits := make([]string, numQubits)
		for q := 0; q < numQubits; q++ {
			qubits[q] = fmt.Sprintf("q[%d]", q)
		}
		fmt.Fprintf(sb, "barrier %s;\n", strings.Join(qubits, ", "))
		return
	case "MEASURE":
		fmt.Fprintf(sb, "measure q[%d] -> c[%d];\n", gate.Qubits[0], gate.Qubits[0])
		return
	case "RESET":
		fmt.Fprintf(sb, "reset q[%d];\n", gate.Qubits[0])
		return
	}

	name := strings.ToLower(gate.Name)
	switch gate.Name {
	case "PH":
		name = "u1"
	case "CP":
		name = "cu1"
	}
	if gate.Dagger {
		name += "dg"
	}

	sb.WriteString(name)
	if len(gate.Params) > 0 {
		sb.WriteString("(")
		for i, p := range gate.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(FormatParam(p))
		}
		sb.WriteString(")")
	}
	for i, q := range gate.Qubits {
		if i == 0 {
			sb.WriteString(" ")
		} else {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "q[%d]", q)
	}
	sb.WriteString(";\n")
}

func qasmName(s string) string {
	return strings.ToUpper(s)
}
