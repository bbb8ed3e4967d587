package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is returned for malformed input such as an unknown direction
	// or a grid that breaks the tile invariant.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfBounds is returned when a cell is addressed outside the grid.
	ErrOutOfBounds = errors.New("out of bounds")
)

// Direction is a move direction. Its value is the number of counter-clockwise
// quarter turns that map the direction onto Left.
type Direction int

const (
	Left Direction = iota
	Up
	Right
	Down
)

// Validation constants
const (
	DefaultGridSize        = 4
	DefaultWinTile         = 2048
	DefaultFourProbability = 0.1
	DefaultInitialTiles    = 2
	MinGridSize            = 2
	MaxGridSize            = 8
	MinWinTile             = 8
	MaxWinTile             = 1 << 17
	MaxBulkMoves           = 100
)

// AllDirections lists the directions in rotation order.
var AllDirections = []Direction{Left, Up, Right, Down}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four directions.
func (d Direction) Valid() bool {
	return d >= Left && d <= Down
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection converts a direction name ("left", "UP", "r", ...) into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "up", "u":
		return Up, nil
	case "right", "r":
		return Right, nil
	case "down", "d":
		return Down, nil
	default:
		return Direction(-1), fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
	}
}

// Status is the derived state of a game
type Status string

const (
	InProgress Status = "in_progress"
	Won        Status = "won"
	Lost       Status = "lost"
)

// Notice modes for the game over notification
const (
	NoticeLevel = "level"
	NoticeEdge  = "edge"
)

// Position represents row/column coordinates
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is a tile placed on the grid by the spawn generator
type Tile struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Value int `json:"value"`
}

// GameConfig represents a game variant loaded from JSON
type GameConfig struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	GridSize        int     `json:"grid_size"`
	WinTile         int     `json:"win_tile"`
	FourProbability float64 `json:"four_probability"`
	InitialTiles    int     `json:"initial_tiles"`
	GameOverNotice  string  `json:"game_over_notice,omitempty"` // "level" (default) or "edge"
	Messages        struct {
		Welcome  string `json:"welcome"`
		Moved    string `json:"moved"`
		NoChange string `json:"no_change"`
		Victory  string `json:"victory"`
		GameOver string `json:"game_over"`
		Continue string `json:"continue"`
	} `json:"messages"`
}

// MoveOutcome is the result of a single call to Move
type MoveOutcome struct {
	Direction  Direction `json:"direction"`
	Changed    bool      `json:"changed"`
	ScoreDelta int       `json:"score_delta"`
	Merges     int       `json:"merges"`
	Spawned    *Tile     `json:"spawned,omitempty"`
	Status     Status    `json:"status"`

	// WinNotice is true on the one move that first reaches the win tile.
	WinNotice bool `json:"win_notice,omitempty"`
	// GameOverNotice is true when the game over dialog should be shown.
	GameOverNotice bool `json:"game_over_notice,omitempty"`
}

// GameState is a snapshot of a game, used for rendering and persistence
type GameState struct {
	GameID          string  `json:"game_id"`
	Grid            [][]int `json:"grid"`
	Size            int     `json:"size"`
	Score           int     `json:"score"`
	BestScore       int     `json:"best_score"`
	Status          Status  `json:"status"`
	MaxTile         int     `json:"max_tile"`
	WinTile         int     `json:"win_tile"`
	Won             bool    `json:"won"`
	WinAcknowledged bool    `json:"win_acknowledged"`
	Continued       bool    `json:"continued"`
	LostNotified    bool    `json:"lost_notified,omitempty"`
	Message         string  `json:"message"`
	ConfigName      string  `json:"config_name"`

	// WinNotice is set on the first snapshot taken after the win tile appears,
	// unless a move already delivered the notification.
	WinNotice bool `json:"win_notice,omitempty"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves holds only the moves of the current game; MoveHistory is cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	MoveNumber int    `json:"move_number"`
	GameID     string `json:"game_id"`
	Direction  string `json:"direction"`
	Changed    bool   `json:"changed"`
	ScoreDelta int    `json:"score_delta"`
	Score      int    `json:"score"`
	Spawned    *Tile  `json:"spawned,omitempty"`
	Status     Status `json:"status"`
	Timestamp  int64  `json:"timestamp"`
}
