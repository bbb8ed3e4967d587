package main

import (
	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// cornerPriority is the order moves are preferred in: keep tiles packed toward
// the bottom-left and push up only when nothing else moves.
var cornerPriority = []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up}

const (
	emptyCellWeight = 10
	upPenalty       = 1000
)

// CornerStrategy picks moves that keep the largest tiles in the bottom-left corner
type CornerStrategy struct{}

// NextMove returns the best move for rows and false when no move changes the board
func (CornerStrategy) NextMove(rows [][]int) (engine.Direction, bool) {
	g, err := engine.NewGridFromRows(rows)
	if err != nil {
		return 0, false
	}

	best, bestValue, found := engine.Direction(0), 0, false
	for _, d := range cornerPriority {
		scoreDelta, emptyAfter, ok := engine.EvaluateMove(g, d)
		if !ok {
			continue
		}
		value := scoreDelta + emptyCellWeight*emptyAfter
		if d == engine.Up {
			value -= upPenalty
		}
		if !found || value > bestValue {
			best, bestValue, found = d, value, true
		}
	}
	return best, found
}
