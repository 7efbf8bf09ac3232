package hardware

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineDistances(t *testing.T) {
	topo := Line(5)
	dist := topo.Distances()
	require.Equal(t, 4, dist[0][4])
	require.Equal(t, 1, dist[2][3])
	require.Equal(t, 0, dist[1][1])
	require.True(t, topo.Adjacent(1, 2))
	require.True(t, topo.Adjacent(2, 1))
	require.False(t, topo.Adjacent(0, 2))
}

func TestGridDistances(t *testing.T) {
	topo := Grid(2, 3)
	require.Equal(t, 6, topo.NbQubits)
	// Corner to corner of a 2x3 grid.
	require.Equal(t, 3, topo.Distances()[0][5])
	require.True(t, topo.Adjacent(0, 3))
	require.False(t, topo.Adjacent(0, 4))
}

func TestAllToAll(t *testing.T) {
	topo := AllToAll(4)
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			if a != b {
				require.True(t, topo.Adjacent(a, b))
			}
		}
	}
}

func TestDirectedCustomTopology(t *testing.T) {
	topo, err := Custom(3, [][2]int{{0, 1}, {1, 2}}, true)
	require.NoError(t, err)

	require.True(t, topo.Adjacent(0, 1))
	require.True(t, topo.Adjacent(1, 0)) // adjacency ignores direction
	require.True(t, topo.NativeOrientation(0, 1))
	require.False(t, topo.NativeOrientation(1, 0))
}

func TestDisconnectedComponents(t *testing.T) {
	topo, err := Custom(4, [][2]int{{0, 1}, {2, 3}}, false)
	require.NoError(t, err)

	require.False(t, topo.Connected(0, 2))
	require.True(t, topo.Connected(0, 1))
	require.Equal(t, -1, topo.Distances()[0][3])
	require.Nil(t, topo.ShortestPath(1, 2))
}

func TestAllShortestPaths(t *testing.T) {
	topo := Grid(2, 2)
	paths := topo.AllShortestPaths(0, 3)
	require.Len(t, paths, 2)
	for _, p := range paths {
		require.Len(t, p, 3)
		require.Equal(t, 0, p[0])
		require.Equal(t, 3, p[2])
	}
}

func TestSpecYAML(t *testing.T) {
	spec, err := LoadSpec([]byte(`
qubits: 5
shape: line
`))
	require.NoError(t, err)
	topo, err := spec.Build()
	require.NoError(t, err)
	require.Equal(t, 5, topo.NbQubits)
	require.True(t, topo.Adjacent(0, 1))
	require.False(t, topo.Adjacent(0, 2))

	spec, err = LoadSpec([]byte(`
qubits: 3
shape: custom
directed: true
edges:
  - [0, 1]
  - [1, 2]
`))
	require.NoError(t, err)
	topo, err = spec.Build()
	require.NoError(t, err)
	require.True(t, topo.Directed)
	require.True(t, topo.NativeOrientation(1, 2))

	_, err = LoadSpec([]byte(`shape: [broken`))
	require.Error(t, err)
}

func TestMappingRoundTrip(t *testing.T) {
	m := FromPermutation([]int{2, 0, 1})
	require.Equal(t, 2, m.Physical(0))
	require.Equal(t, 0, m.Logical(2))

	m.SwapPhysical(2, 1)
	require.Equal(t, 1, m.Physical(0))
	require.Equal(t, 0, m.Logical(1))

	c := m.Clone()
	c.SwapPhysical(0, 1)
	require.NotEqual(t, m.Permutation(), c.Permutation())
}

func TestRandomMappingIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := Random(6, rng)
	seen := make(map[int]bool)
	for q := 0; q < 6; q++ {
		p := m.Physical(q)
		require.False(t, seen[p])
		seen[p] = true
		require.Equal(t, q, m.Logical(p))
	}
}
