package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays fixed draws and counts how many were taken
type scriptedSource struct {
	ints   []int
	floats []float64
	calls  int
}

func (s *scriptedSource) Intn(n int) int {
	s.calls++
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedSource) Float64() float64 {
	s.calls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func TestSpawner_PicksEmptyCellThenValue(t *testing.T) {
	g := mustGrid(t, [][]int{
		{2, 0},
		{0, 4},
	})
	src := &scriptedSource{ints: []int{1}, floats: []float64{0.95}}

	tile, ok := NewSpawner(src, 0.1).Spawn(g)
	require.True(t, ok)
	assert.Equal(t, Tile{Row: 1, Col: 0, Value: 4}, tile)
	assert.Equal(t, [][]int{{2, 0}, {4, 4}}, g.Rows())
	assert.Equal(t, 2, src.calls)

	tile, ok = NewSpawner(&scriptedSource{floats: []float64{0.5}}, 0.1).Spawn(g)
	require.True(t, ok)
	assert.Equal(t, Tile{Row: 0, Col: 1, Value: 2}, tile)
}

func TestSpawner_FullGridDrawsNothing(t *testing.T) {
	g := mustGrid(t, [][]int{
		{2, 4},
		{4, 2},
	})
	src := &scriptedSource{}

	_, ok := NewSpawner(src, 0.1).Spawn(g)
	assert.False(t, ok)
	assert.Equal(t, 0, src.calls)
	assert.Equal(t, [][]int{{2, 4}, {4, 2}}, g.Rows())
}

func TestSpawner_ProbabilityBounds(t *testing.T) {
	g, err := NewGrid(4)
	require.NoError(t, err)

	onlyTwos := NewSpawner(NewRandomSource(1), 0)
	onlyFours := NewSpawner(NewRandomSource(1), 1)
	for i := 0; i < 200; i++ {
		g.Reset()
		tile, ok := onlyTwos.Spawn(g)
		require.True(t, ok)
		assert.Equal(t, 2, tile.Value)

		g.Reset()
		tile, ok = onlyFours.Spawn(g)
		require.True(t, ok)
		assert.Equal(t, 4, tile.Value)
	}
}

func TestSpawner_Distribution(t *testing.T) {
	const samples = 20000
	g, err := NewGrid(4)
	require.NoError(t, err)
	spawner := NewSpawner(NewRandomSource(2048), DefaultFourProbability)

	fours := 0
	cells := make(map[Position]int)
	for i := 0; i < samples; i++ {
		g.Reset()
		tile, ok := spawner.Spawn(g)
		require.True(t, ok)
		if tile.Value == 4 {
			fours++
		}
		cells[Position{Row: tile.Row, Col: tile.Col}]++
	}

	assert.InDelta(t, 0.1, float64(fours)/samples, 0.015)
	assert.Len(t, cells, 16)
	for pos, n := range cells {
		assert.InDelta(t, 1.0/16, float64(n)/samples, 0.015, "cell %v", pos)
	}
}

func TestSpawner_SeededSourceIsReproducible(t *testing.T) {
	a, err := NewGrid(4)
	require.NoError(t, err)
	b := a.Clone()

	sa := NewSpawner(NewRandomSource(99), 0.1)
	sb := NewSpawner(NewRandomSource(99), 0.1)
	for i := 0; i < 16; i++ {
		ta, okA := sa.Spawn(a)
		tb, okB := sb.Spawn(b)
		assert.Equal(t, okA, okB)
		assert.Equal(t, ta, tb)
	}
	assert.True(t, a.Equal(b))
	assert.Equal(t, 16, a.TileCount())
}
