// Package hardware models the target device: its qubit count, its
// two-qubit connectivity graph, and the logical-to-physical qubit
// mapping the router maintains.
package hardware

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Topology is the connectivity graph over physical qubits. Edges are
// unordered pairs unless Directed is set, in which case a two-qubit
// gate is native only in the stored orientation.
type Topology struct {
	NbQubits int
	Directed bool
	edges    map[[2]int]bool
}

func newTopology(n int, directed bool) *Topology {
	return &Topology{NbQubits: n, Directed: directed, edges: make(map[[2]int]bool)}
}

// AllToAll builds a fully connected topology.
func AllToAll(n int) *Topology {
	t := newTopology(n, false)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			t.addEdge(a, b)
		}
	}
	return t
}

// Line builds a linear nearest-neighbor topology: edges (i, i+1).
func Line(n int) *Topology {
	t := newTopology(n, false)
	for i := 0; i+1 < n; i++ {
		t.addEdge(i, i+1)
	}
	return t
}

// Grid builds a rows x cols lattice with nearest-neighbor edges.
func Grid(rows, cols int) *Topology {
	t := newTopology(rows*cols, false)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			q := r*cols + c
			if c+1 < cols {
				t.addEdge(q, q+1)
			}
			if r+1 < rows {
				t.addEdge(q, q+cols)
			}
		}
	}
	return t
}

// Custom builds a topology from an explicit edge list.
func Custom(n int, edges [][2]int, directed bool) (*Topology, error) {
	t := newTopology(n, directed)
	for _, e := range edges {
		if e[0] < 0 || e[1] < 0 || e[0] >= n || e[1] >= n {
			return nil, errors.Errorf("edge (%d,%d) references qubit outside register of %d", e[0], e[1], n)
		}
		if e[0] == e[1] {
			return nil, errors.Errorf("self edge on qubit %d", e[0])
		}
		t.addEdge(e[0], e[1])
	}
	return t, nil
}

func (t *Topology) addEdge(a, b int) {
	if !t.Directed && a > b {
		a, b = b, a
	}
	t.edges[[2]int{a, b}] = true
}

// Adjacent reports whether two qubits share an edge, in either
// orientation.
func (t *Topology) Adjacent(a, b int) bool {
	if t.edges[[2]int{a, b}] || t.edges[[2]int{b, a}] {
		return true
	}
	if !t.Directed && a > b {
		return t.edges[[2]int{b, a}]
	}
	return false
}

// NativeOrientation reports whether the ordered pair (a, b) is a
// stored edge. For undirected topologies this is the same as Adjacent.
func (t *Topology) NativeOrientation(a, b int) bool {
	if t.Directed {
		return t.edges[[2]int{a, b}]
	}
	return t.Adjacent(a, b)
}

// Neighbors returns the qubits adjacent to q, ascending.
func (t *Topology) Neighbors(q int) []int {
	var out []int
	for n := 0; n < t.NbQubits; n++ {
		if n != q && t.Adjacent(q, n) {
			out = append(out, n)
		}
	}
	return out
}

// Edges returns the edge list. Undirected edges appear once with the
// lower qubit first.
func (t *Topology) Edges() [][2]int {
	out := make([][2]int, 0, len(t.edges))
	for e := range t.edges {
		out = append(out, e)
	}
	return out
}

// Distances returns the all-pairs shortest-path matrix by BFS,
// ignoring edge orientation. Unreachable pairs hold -1.
func (t *Topology) Distances() [][]int {
	d := make([][]int, t.NbQubits)
	for src := 0; src < t.NbQubits; src++ {
		d[src] = t.bfs(src)
	}
	return d
}

func (t *Topology) bfs(src int) []int {
	dist := make([]int, t.NbQubits)
	for i := range dist {
		dist[i] = -1
	}
	dist[src] = 0
	queue := []int{src}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, n := range t.Neighbors(q) {
			if dist[n] < 0 {
				dist[n] = dist[q] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}

// ShortestPath returns one shortest path from a to b inclusive, or nil
// when b is unreachable from a.
func (t *Topology) ShortestPath(a, b int) []int {
	if a == b {
		return []int{a}
	}
	prev := make([]int, t.NbQubits)
	for i := range prev {
		prev[i] = -1
	}
	prev[a] = a
	queue := []int{a}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, n := range t.Neighbors(q) {
			if prev[n] >= 0 {
				continue
			}
			prev[n] = q
			if n == b {
				path := []int{b}
				for c := b; c != a; c = prev[c] {
					path = append([]int{prev[c]}, path...)
				}
				return path
			}
			queue = append(queue, n)
		}
	}
	return nil
}

// AllShortestPaths enumerates every shortest path from a to b. The
// router's post-pass scores these against the metric instead of taking
// the first one discovered.
func (t *Topology) AllShortestPaths(a, b int) [][]int {
	dist := t.bfs(a)
	if dist[b] < 0 {
		return nil
	}
	var paths [][]int
	var walk func(q int, acc []int)
	walk = func(q int, acc []int) {
		acc = append(acc, q)
		if q == b {
			paths = append(paths, append([]int(nil), acc...))
			return
		}
		for _, n := range t.Neighbors(q) {
			if dist[n] == dist[q]+1 {
				walk(n, acc)
			}
		}
	}
	walk(a, nil)
	return paths
}

// Connected reports whether b is reachable from a.
func (t *Topology) Connected(a, b int) bool {
	return t.bfs(a)[b] >= 0
}

// Spec is the YAML hardware description supplied alongside a circuit
// batch.
type Spec struct {
	Qubits   int      `yaml:"qubits"`
	Shape    string   `yaml:"shape"` // all, line, grid, custom
	Rows     int      `yaml:"rows"`
	Cols     int      `yaml:"cols"`
	Directed bool     `yaml:"directed"`
	Edges    [][2]int `yaml:"edges"`
}

// LoadSpec parses a YAML hardware spec.
func LoadSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "load hardware spec")
	}
	return &s, nil
}

// Build materializes the topology a spec describes.
func (s *Spec) Build() (*Topology, error) {
	switch s.Shape {
	case "", "all":
		return AllToAll(s.Qubits), nil
	case "line", "lnn":
		return Line(s.Qubits), nil
	case "grid":
		if s.Rows*s.Cols != s.Qubits {
			return nil, errors.Errorf("grid %dx%d does not hold %d qubits", s.Rows, s.Cols, s.Qubits)
		}
		return Grid(s.Rows, s.Cols), nil
	case "custom":
		return Custom(s.Qubits, s.Edges, s.Directed)
	}
	return nil, errors.Errorf("unknown topology shape %q", s.Shape)
}
