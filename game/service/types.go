package service

import (
	"time"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// Event types reported in move results
const (
	EventNewGame  = "new_game"
	EventMove     = "move"
	EventMerge    = "merge"
	EventNoChange = "no_change"
	EventVictory  = "victory"
	EventGameOver = "game_over"
	EventContinue = "continue"
)

// Stop reason codes for bulk moves
const (
	StopGameOver = "game_over"
	StopVictory  = "victory"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"` // config_id used to create the session
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool                `json:"success"` // the board changed
	Outcome   *engine.MoveOutcome `json:"outcome"`
	GameState *engine.GameState   `json:"game_state"`
	Message   string              `json:"message"`
	Events    []GameEvent         `json:"events,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	RequestedMoves int  `json:"requested_moves"`
	MovesExecuted  int  `json:"moves_executed"`
	MovesChanged   int  `json:"moves_changed"`
	Success        bool `json:"success"`
	Truncated      bool `json:"truncated,omitempty"`
	Limit          int  `json:"limit,omitempty"`

	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step trace for this call only
	Steps []*engine.MoveOutcome `json:"steps"`

	StoppedReason  string `json:"stopped_reason,omitempty"`
	StopReasonCode string `json:"stop_reason_code,omitempty"` // game_over
	StoppedOnMove  int    `json:"stopped_on_move,omitempty"`  // 1-based index of the move that was not made

	WinReached    bool              `json:"win_reached,omitempty"`
	GameOver      bool              `json:"game_over"`
	Status        engine.Status     `json:"status"`
	GameState     *engine.GameState `json:"game_state"`
	Events        []GameEvent       `json:"events"`
	Message       string            `json:"message,omitempty"`
	PossibleMoves []string          `json:"possible_moves,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string       `json:"type"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Tile      *engine.Tile `json:"tile,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// Pagination defaults for move history
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename        string  `json:"filename"`
	ConfigID        string  `json:"config_id"` // The identifier to use for session creation
	Name            string  `json:"name"`      // Display name
	Description     string  `json:"description"`
	GridSize        int     `json:"grid_size"`
	WinTile         int     `json:"win_tile"`
	FourProbability float64 `json:"four_probability"`
}
