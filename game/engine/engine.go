package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GameEngine owns one game and the session's best score. It is not safe for
// concurrent use; callers serialise access.
type GameEngine struct {
	config  *GameConfig
	rng     RandomSource
	spawner *Spawner

	grid      *Grid
	gameID    string
	bestScore int
	message   string

	won             bool
	winAcknowledged bool
	continued       bool
	lostNotified    bool

	history    []MoveHistoryEntry
	current    []MoveHistoryEntry
	totalMoves int
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithRandomSource makes the engine draw spawns from rng
func WithRandomSource(rng RandomSource) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithSeed seeds the engine's random source for reproducible games
func WithSeed(seed uint64) Option {
	return func(e *GameEngine) {
		e.rng = NewRandomSource(seed)
	}
}

// NewEngine creates a new game engine with the provided configuration and starts a game
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{config: config}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.rng == nil {
		engine.rng = NewTimeSeededSource()
	}
	engine.spawner = NewSpawner(engine.rng, config.FourProbability)
	engine.NewGame()

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	engine, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("default game config is invalid: %v", err))
	}
	return engine
}

// NewGame clears the board, the score and the win flags, then places the initial
// tiles. The best score and the cumulative history survive.
func (e *GameEngine) NewGame() *GameState {
	grid, _ := NewGrid(e.config.GridSize)
	e.grid = grid
	e.gameID = uuid.NewString()
	e.won = false
	e.winAcknowledged = false
	e.continued = false
	e.lostNotified = false
	e.current = []MoveHistoryEntry{}

	for i := 0; i < e.config.InitialTiles; i++ {
		if _, ok := e.spawner.Spawn(e.grid); !ok {
			break
		}
	}
	e.message = e.config.Messages.Welcome

	return e.GetState()
}

// Move slides the board, spawns a tile if anything moved and re-evaluates the
// terminal conditions. An invalid direction fails before any state is touched.
func (e *GameEngine) Move(direction Direction) (*MoveOutcome, error) {
	if !direction.Valid() {
		return nil, fmt.Errorf("%w: direction %d", ErrInvalidArgument, int(direction))
	}

	result, err := ApplyMove(e.grid, direction)
	if err != nil {
		return nil, err
	}

	outcome := &MoveOutcome{
		Direction:  direction,
		Changed:    result.Changed,
		ScoreDelta: result.ScoreDelta,
		Merges:     result.Merges,
	}

	if result.Changed {
		if tile, ok := e.spawner.Spawn(e.grid); ok {
			outcome.Spawned = &tile
		}
		e.message = e.movedMessage()
	} else {
		e.message = e.config.Messages.NoChange
	}

	if !e.won && HasWon(e.grid, e.config.WinTile) {
		e.won = true
	}
	if e.won && !e.winAcknowledged {
		e.winAcknowledged = true
		outcome.WinNotice = true
		e.message = e.config.Messages.Victory
	}

	lost := IsGameOver(e.grid)
	outcome.GameOverNotice = e.gameOverNotice(lost)
	if lost {
		e.message = e.config.Messages.GameOver
	}

	if score := e.grid.Score(); score > e.bestScore {
		e.bestScore = score
	}

	outcome.Status = e.Status()
	e.addMoveToHistory(outcome)

	return outcome, nil
}

// gameOverNotice decides whether a lost board is announced. Level mode announces it
// on every move; edge mode only on the transition into the lost state.
func (e *GameEngine) gameOverNotice(lost bool) bool {
	if !lost {
		e.lostNotified = false
		return false
	}
	if e.config.GameOverNotice == NoticeEdge {
		if e.lostNotified {
			return false
		}
		e.lostNotified = true
		return true
	}
	e.lostNotified = true
	return true
}

func (e *GameEngine) movedMessage() string {
	if e.config.Messages.Moved == "" {
		return ""
	}
	return fmt.Sprintf(e.config.Messages.Moved, e.grid.Score())
}

// BulkStop says why BulkMove ended before running every move
type BulkStop int

const (
	BulkCompleted BulkStop = iota // every move ran
	BulkGameOver                  // the game was lost before the next move
	BulkWon                       // a move reached the win tile
)

// BulkResult is the outcome of BulkMove. StoppedBefore is the 1-based index of
// the first move that did not run, or 0 when all ran.
type BulkResult struct {
	Outcomes      []*MoveOutcome
	Stop          BulkStop
	StoppedBefore int
}

// BulkMove executes moves in sequence. It stops before a move when the game is
// lost and after the move that first reaches the win tile. Every direction is
// checked before the first move is made.
func (e *GameEngine) BulkMove(moves []Direction) (*BulkResult, error) {
	for i, d := range moves {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: move %d has direction %d", ErrInvalidArgument, i+1, int(d))
		}
	}

	result := &BulkResult{Outcomes: make([]*MoveOutcome, 0, len(moves))}
	for i, d := range moves {
		if e.IsGameOver() {
			result.Stop = BulkGameOver
			result.StoppedBefore = i + 1
			break
		}
		outcome, err := e.Move(d)
		if err != nil {
			return result, err
		}
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.WinNotice {
			if i+1 < len(moves) {
				result.Stop = BulkWon
				result.StoppedBefore = i + 2
			}
			break
		}
	}
	return result, nil
}

// Continue dismisses a won status so the player can keep going. It returns false
// when there is no win to dismiss.
func (e *GameEngine) Continue() bool {
	if !e.won || e.continued {
		return false
	}
	e.continued = true
	e.winAcknowledged = true
	if e.config.Messages.Continue != "" {
		e.message = e.config.Messages.Continue
	}
	return true
}

// Status derives the game status from the board and the win flags
func (e *GameEngine) Status() Status {
	switch {
	case IsGameOver(e.grid):
		return Lost
	case e.won && !e.continued:
		return Won
	default:
		return InProgress
	}
}

// IsGameOver returns whether no move is left
func (e *GameEngine) IsGameOver() bool {
	return IsGameOver(e.grid)
}

// HasWon returns whether the win tile has been reached in the current game
func (e *GameEngine) HasWon() bool {
	return e.won
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.grid.Score()
}

// GetBestScore returns the highest score seen by this engine
func (e *GameEngine) GetBestScore() int {
	return e.bestScore
}

// Grid returns a copy of the board
func (e *GameEngine) Grid() *Grid {
	return e.grid.Clone()
}

// GetState returns a snapshot of the game. The first snapshot taken after the win
// tile appears carries the win notice unless a move already delivered it.
func (e *GameEngine) GetState() *GameState {
	state := e.Snapshot()
	if e.won && !e.winAcknowledged {
		e.winAcknowledged = true
		state.WinNotice = true
		state.WinAcknowledged = true
	}
	return state
}

// Snapshot returns the game state without delivering any pending notice.
func (e *GameEngine) Snapshot() *GameState {
	return &GameState{
		GameID:            e.gameID,
		Grid:              e.grid.Rows(),
		Size:              e.grid.Size(),
		Score:             e.grid.Score(),
		BestScore:         e.bestScore,
		Status:            e.Status(),
		MaxTile:           e.grid.MaxTile(),
		WinTile:           e.config.WinTile,
		Won:               e.won,
		Continued:         e.continued,
		LostNotified:      e.lostNotified,
		Message:           e.message,
		ConfigName:        e.config.Name,
		MoveHistory:       append([]MoveHistoryEntry{}, e.history...),
		TotalMoves:        e.totalMoves,
		CurrentMoves:      append([]MoveHistoryEntry{}, e.current...),
		CurrentMovesCount: len(e.current),
		PossibleMoves:     e.GetPossibleMoves(),
		WinAcknowledged:   e.winAcknowledged,
	}
}

// SetState restores a saved game (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: state cannot be nil", ErrInvalidArgument)
	}
	if len(state.Grid) != e.config.GridSize {
		return fmt.Errorf("%w: state grid has %d rows, config %q expects %d",
			ErrInvalidArgument, len(state.Grid), e.config.Name, e.config.GridSize)
	}

	grid, err := NewGridFromRows(state.Grid)
	if err != nil {
		return err
	}
	if err := grid.SetScore(state.Score); err != nil {
		return err
	}

	e.grid = grid
	e.gameID = state.GameID
	if e.gameID == "" {
		e.gameID = uuid.NewString()
	}
	e.bestScore = max(state.BestScore, state.Score)
	e.won = state.Won || HasWon(grid, e.config.WinTile)
	e.winAcknowledged = state.WinAcknowledged
	e.continued = state.Continued
	e.lostNotified = state.LostNotified
	e.message = state.Message
	e.history = append([]MoveHistoryEntry{}, state.MoveHistory...)
	e.current = append([]MoveHistoryEntry{}, state.CurrentMoves...)
	e.totalMoves = max(state.TotalMoves, len(e.history))

	return nil
}

// CanMove checks whether sliding in the specified direction would change the board
func (e *GameEngine) CanMove(direction Direction) bool {
	return CanMove(e.grid, direction)
}

// GetPossibleMoves returns all directions that would change the board
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, d := range AllDirections {
		if e.CanMove(d) {
			possible = append(possible, d.String())
		}
	}
	return possible
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and starts a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.spawner = NewSpawner(e.rng, config.FourProbability)
	e.NewGame()
	return nil
}

// GetMoveHistory returns the complete move history across games
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return append([]MoveHistoryEntry{}, e.history...)
}

func (e *GameEngine) addMoveToHistory(outcome *MoveOutcome) {
	entry := MoveHistoryEntry{
		MoveNumber: e.totalMoves + 1,
		GameID:     e.gameID,
		Direction:  outcome.Direction.String(),
		Changed:    outcome.Changed,
		ScoreDelta: outcome.ScoreDelta,
		Score:      e.grid.Score(),
		Spawned:    outcome.Spawned,
		Status:     outcome.Status,
		Timestamp:  time.Now().Unix(),
	}
	// Cumulative history is never cleared by NewGame
	e.history = append(e.history, entry)
	e.totalMoves++
	e.current = append(e.current, entry)
}
