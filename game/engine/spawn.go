package engine

import (
	"time"

	"golang.org/x/exp/rand"
)

// RandomSource supplies the randomness used to place new tiles
type RandomSource interface {
	// Intn returns a value in [0, n)
	Intn(n int) int
	// Float64 returns a value in [0.0, 1.0)
	Float64() float64
}

// NewRandomSource returns a RandomSource seeded with seed
func NewRandomSource(seed uint64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSeededSource returns a RandomSource seeded from the clock
func NewTimeSeededSource() RandomSource {
	return NewRandomSource(uint64(time.Now().UnixNano()))
}

// Spawner places a 2 or 4 tile on a random empty cell
type Spawner struct {
	rng             RandomSource
	fourProbability float64
}

// NewSpawner creates a spawner that places a 4 with probability fourProbability
func NewSpawner(rng RandomSource, fourProbability float64) *Spawner {
	if rng == nil {
		rng = NewTimeSeededSource()
	}
	return &Spawner{rng: rng, fourProbability: fourProbability}
}

// Spawn picks an empty cell uniformly, then a value. It returns false without
// drawing any random number when the grid is full.
func (s *Spawner) Spawn(g *Grid) (Tile, bool) {
	empty := g.EmptyCells()
	if len(empty) == 0 {
		return Tile{}, false
	}

	pos := empty[s.rng.Intn(len(empty))]
	value := 2
	if s.rng.Float64() >= 1-s.fourProbability {
		value = 4
	}

	g.cells[pos.Row*g.size+pos.Col] = value
	return Tile{Row: pos.Row, Col: pos.Col, Value: value}, true
}
