package engine

import (
	"encoding/json"
	"fmt"
)

// Grid is the square board: cell values in row-major order plus the score
// earned on it. A cell holds 0 (empty) or a power of two >= 2.
type Grid struct {
	size  int
	cells []int
	score int
}

// NewGrid creates an empty size x size grid
func NewGrid(size int) (*Grid, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: grid size must be positive, got %d", ErrInvalidArgument, size)
	}
	return &Grid{
		size:  size,
		cells: make([]int, size*size),
	}, nil
}

// NewGridFromRows creates a grid holding a copy of rows
func NewGridFromRows(rows [][]int) (*Grid, error) {
	g, err := NewGrid(len(rows))
	if err != nil {
		return nil, err
	}
	if err := g.Replace(rows); err != nil {
		return nil, err
	}
	return g, nil
}

// Size returns the grid dimension N
func (g *Grid) Size() int {
	return g.size
}

// Score returns the score accumulated on this grid
func (g *Grid) Score() int {
	return g.score
}

// At returns the value at (row, col)
func (g *Grid) At(row, col int) (int, error) {
	if !g.InBounds(row, col) {
		return 0, fmt.Errorf("%w: cell (%d,%d) on a %dx%d grid", ErrOutOfBounds, row, col, g.size, g.size)
	}
	return g.cells[row*g.size+col], nil
}

// Set writes value at (row, col)
func (g *Grid) Set(row, col, value int) error {
	if !g.InBounds(row, col) {
		return fmt.Errorf("%w: cell (%d,%d) on a %dx%d grid", ErrOutOfBounds, row, col, g.size, g.size)
	}
	if !IsTileValue(value) {
		return fmt.Errorf("%w: %d is not a tile value", ErrInvalidArgument, value)
	}
	g.cells[row*g.size+col] = value
	return nil
}

// InBounds reports whether (row, col) addresses a cell
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.size && col >= 0 && col < g.size
}

// Replace overwrites every cell with rows. The grid is left untouched on error.
func (g *Grid) Replace(rows [][]int) error {
	if len(rows) != g.size {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidArgument, g.size, len(rows))
	}
	next := make([]int, 0, g.size*g.size)
	for r, row := range rows {
		if len(row) != g.size {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidArgument, r, len(row), g.size)
		}
		for c, v := range row {
			if !IsTileValue(v) {
				return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvalidArgument, r, c, v)
			}
		}
		next = append(next, row...)
	}
	g.cells = next
	return nil
}

// SetScore overwrites the score, used when restoring a saved game
func (g *Grid) SetScore(score int) error {
	if score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrInvalidArgument, score)
	}
	g.score = score
	return nil
}

// Reset empties every cell and zeroes the score
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i] = 0
	}
	g.score = 0
}

// Rows returns a copy of the cells as a slice of rows
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.size)
	for r := range rows {
		rows[r] = make([]int, g.size)
		copy(rows[r], g.cells[r*g.size:(r+1)*g.size])
	}
	return rows
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	cells := make([]int, len(g.cells))
	copy(cells, g.cells)
	return &Grid{size: g.size, cells: cells, score: g.score}
}

// Equal reports whether both grids hold the same cells and score
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.size != other.size || g.score != other.score {
		return false
	}
	for i, v := range g.cells {
		if other.cells[i] != v {
			return false
		}
	}
	return true
}

// EmptyCells returns the empty positions in row-major order
func (g *Grid) EmptyCells() []Position {
	var empty []Position
	for i, v := range g.cells {
		if v == 0 {
			empty = append(empty, Position{Row: i / g.size, Col: i % g.size})
		}
	}
	return empty
}

// MaxTile returns the largest value on the grid
func (g *Grid) MaxTile() int {
	max := 0
	for _, v := range g.cells {
		if v > max {
			max = v
		}
	}
	return max
}

// TileCount returns the number of non-empty cells
func (g *Grid) TileCount() int {
	count := 0
	for _, v := range g.cells {
		if v != 0 {
			count++
		}
	}
	return count
}

// MarshalJSON encodes the grid as its rows
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Rows())
}

// UnmarshalJSON decodes rows into a grid of matching size
func (g *Grid) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	decoded, err := NewGridFromRows(rows)
	if err != nil {
		return err
	}
	decoded.score = g.score
	*g = *decoded
	return nil
}

// IsTileValue reports whether v may be stored in a cell: 0 or a power of two >= 2.
func IsTileValue(v int) bool {
	if v == 0 {
		return true
	}
	return v >= 2 && v&(v-1) == 0
}
