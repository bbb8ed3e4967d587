package engine

import "fmt"

// viewToGrid maps a cell of the rotated view back onto the grid. The view is the
// grid turned counter-clockwise by `turns` quarter turns, so sliding the view to the
// left slides the grid in Direction(turns).
func viewToGrid(size, row, col, turns int) (int, int) {
	switch turns & 3 {
	case 1:
		return col, size - 1 - row
	case 2:
		return size - 1 - row, size - 1 - col
	case 3:
		return size - 1 - col, row
	default:
		return row, col
	}
}

// slideLine compacts and merges one line towards index 0. It returns the new line
// padded with zeros, the score earned and the number of merges.
func slideLine(line []int) ([]int, int, int) {
	compacted := make([]int, 0, len(line))
	for _, v := range line {
		if v != 0 {
			compacted = append(compacted, v)
		}
	}

	out := make([]int, 0, len(line))
	score, merges := 0, 0
	for i := 0; i < len(compacted); i++ {
		if i+1 < len(compacted) && compacted[i] == compacted[i+1] {
			merged := compacted[i] * 2
			out = append(out, merged)
			score += merged
			merges++
			i++ // the right tile is consumed
			continue
		}
		out = append(out, compacted[i])
	}

	for len(out) < len(line) {
		out = append(out, 0)
	}
	return out, score, merges
}

// SlideResult describes what ApplyMove did to a grid
type SlideResult struct {
	Changed    bool
	ScoreDelta int
	Merges     int
}

// ApplyMove slides every line of g in direction d. The new board is built off to the
// side and committed only if some cell changed, so a no-op move leaves g untouched.
func ApplyMove(g *Grid, d Direction) (SlideResult, error) {
	if !d.Valid() {
		return SlideResult{}, fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(d))
	}

	n := g.size
	turns := int(d)
	next := make([]int, len(g.cells))
	var result SlideResult

	line := make([]int, n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			r, c := viewToGrid(n, row, col, turns)
			line[col] = g.cells[r*n+c]
		}

		slid, score, merges := slideLine(line)
		result.ScoreDelta += score
		result.Merges += merges

		for col := 0; col < n; col++ {
			if slid[col] != line[col] {
				result.Changed = true
			}
			r, c := viewToGrid(n, row, col, turns)
			next[r*n+c] = slid[col]
		}
	}

	if result.Changed {
		g.cells = next
		g.score += result.ScoreDelta
	}
	return result, nil
}

// CanMove reports whether sliding g in direction d would change it
func CanMove(g *Grid, d Direction) bool {
	if !d.Valid() {
		return false
	}
	probe := g.Clone()
	result, _ := ApplyMove(probe, d)
	return result.Changed
}
