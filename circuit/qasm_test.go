package circuit

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQASMBasic(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c[3];

h q[0];
cx q[0], q[1];
rz(pi/4) q[2];
tdg q[1];
measure q[0] -> c[0];`

	g, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, 3, g.NumQubits)

	gates := g.Gates()
	require.Len(t, gates, 5)
	require.Equal(t, "H", gates[0].Name)
	require.Equal(t, "CX", gates[1].Name)
	require.Equal(t, []int{0, 1}, gates[1].Qubits)
	require.InDelta(t, math.Pi/4, gates[2].Params[0], 1e-10)
	require.Equal(t, "T", gates[3].Name)
	require.True(t, gates[3].Dagger)
	require.Equal(t, "MEASURE", gates[4].Name)
}

func TestParseQASMNameMapping(t *testing.T) {
	qasm := `qreg q[3];
u1(pi/2) q[0];
cu1(pi/4) q[0], q[1];
toffoli q[0], q[1], q[2];`

	g, err := ParseQASM(qasm)
	require.NoError(t, err)

	gates := g.Gates()
	require.Equal(t, "PH", gates[0].Name)
	require.Equal(t, "CP", gates[1].Name)
	require.Equal(t, "CCX", gates[2].Name)
}

func TestParseQASMRejectsUnsupported(t *testing.T) {
	qasm := `qreg q[2];
h q[0];
if (c==1) x q[1];`

	_, err := ParseQASM(qasm)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported statement")
}

func TestQASMRoundTrip(t *testing.T) {
	g := New(3)
	g.Insert(MustGate("H", []int{0}))
	g.Insert(MustGate("CX", []int{0, 1}))
	g.Insert(MustGate("RZ", []int{2}, 3*math.Pi/4))
	s := MustGate("S", []int{1})
	s.Dagger = true
	g.Insert(s)
	g.Insert(Gate{Name: "BARRIER"})
	g.Insert(MustGate("MEASURE", []int{0}))

	qasm := ToQASM(g)
	require.Contains(t, qasm, "rz(3*pi/4) q[2];")
	require.Contains(t, qasm, "sdg q[1];")
	require.Contains(t, qasm, "barrier q[0], q[1], q[2];")

	g2, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, g.NumQubits, g2.NumQubits)
	require.Equal(t, g.Len(), g2.Len())

	a, b := g.Gates(), g2.Gates()
	for i := range a {
		require.Equal(t, a[i].Name, b[i].Name, "gate %d", i)
		require.Equal(t, a[i].Dagger, b[i].Dagger, "gate %d", i)
		if a[i].Name != "BARRIER" {
			require.Equal(t, a[i].Qubits, b[i].Qubits, "gate %d", i)
		}
		for j := range a[i].Params {
			require.InDelta(t, a[i].Params[j], b[i].Params[j], 1e-10)
		}
	}
}

func TestQASMPhaseAliases(t *testing.T) {
	g := New(2)
	g.Insert(MustGate("PH", []int{0}, math.Pi/8))
	g.Insert(MustGate("CP", []int{0, 1}, math.Pi/2))

	qasm := ToQASM(g)
	require.Contains(t, qasm, "u1(pi/8) q[0];")
	require.Contains(t, qasm, "cu1(pi/2) q[0], q[1];")

	g2, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, "PH", g2.Gates()[0].Name)
	require.Equal(t, "CP", g2.Gates()[1].Name)
}

func TestParamFormatting(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{3 * math.Pi / 4, "3*pi/4"},
		{-math.Pi / 2, "-pi/2"},
		{2 * math.Pi, "2*pi"},
		{1.5, "1.5"},
		{0, "0"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatParam(tt.input), "FormatParam(%g)", tt.input)
	}
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"1.5707", 1.5707, true},
		{"pi", math.Pi, true},
		{"pi/2", math.Pi / 2, true},
		{"3*pi/4", 3 * math.Pi / 4, true},
		{"2pi", 2 * math.Pi, true},
		{"-pi/2", -math.Pi / 2, true},
		{"", 0, false},
		{"abc", 0, false},
		{"pi/0", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseParam(tt.input)
		require.Equal(t, tt.ok, ok, "ParseParam(%q)", tt.input)
		if ok {
			require.InDelta(t, tt.want, got, 1e-10, "ParseParam(%q)", tt.input)
		}
	}
}

func TestPiFormsRoundTrip(t *testing.T) {
	// Every value in the shared table must parse back to itself from
	// its formatted form, in both signs.
	for _, pf := range piForms {
		got, ok := ParseParam(FormatParam(pf.value))
		require.True(t, ok, pf.display)
		require.InDelta(t, pf.value, got, 1e-10, pf.display)

		got, ok = ParseParam(FormatParam(-pf.value))
		require.True(t, ok, "-"+pf.display)
		require.InDelta(t, -pf.value, got, 1e-10, "-"+pf.display)
	}
}

func TestParamsEqualTolerance(t *testing.T) {
	require.True(t, ParamsEqual(math.Pi, math.Pi+1e-12))
	require.False(t, ParamsEqual(math.Pi, math.Pi+1e-6))
}

func TestToQASMLowercasesNames(t *testing.T) {
	g := New(2)
	g.Insert(MustGate("ISWAP", []int{0, 1}))
	require.True(t, strings.Contains(ToQASM(g), "iswap q[0], q[1];"))
}
