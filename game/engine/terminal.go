package engine

// IsGameOver reports whether no move is left: the grid is full and no two
// horizontally or vertically adjacent cells hold the same value.
func IsGameOver(g *Grid) bool {
	n := g.size
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := g.cells[row*n+col]
			if v == 0 {
				return false
			}
			if col+1 < n && g.cells[row*n+col+1] == v {
				return false
			}
			if row+1 < n && g.cells[(row+1)*n+col] == v {
				return false
			}
		}
	}
	return true
}

// HasWon reports whether any cell equals target
func HasWon(g *Grid, target int) bool {
	for _, v := range g.cells {
		if v == target {
			return true
		}
	}
	return false
}
