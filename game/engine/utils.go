package engine

import (
	"fmt"
	"sort"
	"strings"
)

// TileDistribution counts the tiles of each value on the board
func TileDistribution(rows [][]int) map[int]int {
	dist := make(map[int]int)
	for _, row := range rows {
		for _, v := range row {
			if v != 0 {
				dist[v]++
			}
		}
	}
	return dist
}

// SortedTileValues returns the keys of a tile distribution in ascending order
func SortedTileValues(dist map[int]int) []int {
	values := make([]int, 0, len(dist))
	for v := range dist {
		values = append(values, v)
	}
	sort.Ints(values)
	return values
}

// FormatGrid renders rows as a fixed-width text board, "." marking empty cells
func FormatGrid(rows [][]int) string {
	width := 1
	for _, row := range rows {
		for _, v := range row {
			if w := len(fmt.Sprint(v)); w > width {
				width = w
			}
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			cell := "."
			if v != 0 {
				cell = fmt.Sprint(v)
			}
			b.WriteString(fmt.Sprintf("%*s", width, cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// EvaluateMove scores the board a move would produce without touching g. It
// returns ok=false when the move changes nothing.
func EvaluateMove(g *Grid, d Direction) (scoreDelta, emptyAfter int, ok bool) {
	probe := g.Clone()
	result, err := ApplyMove(probe, d)
	if err != nil || !result.Changed {
		return 0, 0, false
	}
	return result.ScoreDelta, len(probe.EmptyCells()), true
}
