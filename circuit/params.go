package circuit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// paramPattern matches a single parameter value: numbers, pi expressions,
// or combinations. Examples: "1.5707", "pi", "pi/2", "3*pi/4", "-pi",
// "-2*pi/3", "3.14e-2"
const paramPattern = `-?(?:\d*\.?\d*\*?pi(?:/\d+\.?\d*)?|\d+\.?\d*(?:[eE][+\-]?\d+)?)`

// piExprRegex matches expressions like: pi, 2pi, 2*pi, pi/2, 3pi/4, -pi/2
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// piForms lists the angle fractions rendered in pi notation, the
// hardware-native set. FormatParam scans it for display; ParseParam
// consults it before the general expression grammar, so every emitted
// form parses back to the exact value it was formatted from.
var piForms = []struct {
	value   float64
	display string
}{
	{2 * math.Pi, "2*pi"},
	{math.Pi, "pi"},
	{math.Pi / 2, "pi/2"},
	{math.Pi / 3, "pi/3"},
	{math.Pi / 4, "pi/4"},
	{math.Pi / 6, "pi/6"},
	{math.Pi / 8, "pi/8"},
	{3 * math.Pi / 4, "3*pi/4"},
	{3 * math.Pi / 2, "3*pi/2"},
	{2 * math.Pi / 3, "2*pi/3"},
}

// ParseParam parses a single parameter expression, supporting plain
// numbers and pi expressions. Returns the parsed value and true on
// success, or 0 and false on failure.
func ParseParam(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}

	s = strings.ToLower(s)
	for _, pf := range piForms {
		switch s {
		case pf.display:
			return pf.value, true
		case "-" + pf.display:
			return -pf.value, true
		}
	}

	m := piExprRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	coeff := 1.0
	if m[2] != "" {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, false
		}
		coeff = v
	}
	val := coeff * math.Pi
	if m[3] != "" {
		denom, err := strconv.ParseFloat(m[3], 64)
		if err != nil || denom == 0 {
			return 0, false
		}
		val /= denom
	}
	if m[1] == "-" {
		val = -val
	}
	return val, true
}

// FormatParam formats a parameter value, using pi notation for the
// common hardware-native fractions.
func FormatParam(val float64) string {
	for _, pf := range piForms {
		switch {
		case ParamsEqual(val, pf.value):
			return pf.display
		case ParamsEqual(val, -pf.value):
			return "-" + pf.display
		}
	}
	return fmt.Sprintf("%g", val)
}

// ParamsEqual compares two parameter values under the tolerance used
// throughout matching. Variable bindings use this, not ==, so that pi
// expressions surviving a parse/format round trip still unify.
func ParamsEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-10
}
