package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// gameServiceImpl implements the GameService interface. Engines are not safe for
// concurrent use, so every call that touches one holds the write lock.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	configID := sess.ConfigID
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.Snapshot(),
		GameConfig:     sess.Config,
	}
}

// getSession looks a session up and refreshes its access time
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Debug().Err(err).Str("session", sessionID).Msg("failed to update last access")
	}
	return sess, nil
}

// persist saves a session after a state change. Failures are logged, never returned.
func (s *gameServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("op", op).Msg("failed to persist session")
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				var configIDs []string
				if available, listErr := s.configs.ListConfigs(); listErr == nil {
					for _, cfg := range available {
						configIDs = append(configIDs, cfg.ConfigID)
					}
				}
				return nil, fmt.Errorf("config '%s' not found, available configs: %v: %w", configID, configIDs, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %q: %w", sessionID, err)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, newGame bool) (*MoveResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if newGame {
		sess.Engine.NewGame()
		events = append(events, newGameEvent())
	}

	outcome, err := sess.Engine.Move(d)
	if err != nil {
		return nil, err
	}
	state := sess.Engine.GetState()
	events = append(events, outcomeEvents(outcome, state)...)

	log.Debug().
		Str("session", sess.ID).
		Str("direction", d.String()).
		Bool("changed", outcome.Changed).
		Int("score", state.Score).
		Msg("move")

	s.persist(sess.ID, "move")

	return &MoveResult{
		Success:   outcome.Changed,
		Outcome:   outcome,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}, nil
}

// BulkMove executes multiple moves in sequence. It stops early when the game is
// lost or when a move reaches the win tile.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, newGame bool) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: no moves given", engine.ErrInvalidArgument)
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         []GameEvent{},
		Steps:          []*engine.MoveOutcome{},
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	directions := make([]engine.Direction, 0, len(moves))
	for i, m := range moves {
		d, err := engine.ParseDirection(m)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		directions = append(directions, d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if newGame {
		sess.Engine.NewGame()
		result.Events = append(result.Events, newGameEvent())
	}
	result.StartScore = sess.Engine.GetScore()

	bulk, err := sess.Engine.BulkMove(directions)
	if err != nil {
		return nil, err
	}
	for _, outcome := range bulk.Outcomes {
		result.MovesExecuted++
		if outcome.Changed {
			result.MovesChanged++
		}
		if outcome.WinNotice {
			result.WinReached = true
		}
		result.Steps = append(result.Steps, outcome)
		result.Events = append(result.Events, outcomeEvents(outcome, nil)...)
	}

	switch bulk.Stop {
	case engine.BulkGameOver:
		result.StoppedReason = fmt.Sprintf("game over before move %d", bulk.StoppedBefore)
		result.StopReasonCode = StopGameOver
		result.StoppedOnMove = bulk.StoppedBefore
	case engine.BulkWon:
		result.StoppedReason = fmt.Sprintf("win tile reached on move %d", bulk.StoppedBefore-1)
		result.StopReasonCode = StopVictory
		result.StoppedOnMove = bulk.StoppedBefore
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.EndScore = state.Score
	result.ScoreDelta = state.Score - result.StartScore
	result.Status = state.Status
	result.GameOver = state.Status == engine.Lost
	result.Message = state.Message
	result.PossibleMoves = state.PossibleMoves
	result.Success = result.MovesExecuted == len(directions)

	log.Debug().
		Str("session", sess.ID).
		Int("requested", result.RequestedMoves).
		Int("executed", result.MovesExecuted).
		Int("score", state.Score).
		Msg("bulk move")

	s.persist(sess.ID, "bulk_move")

	return result, nil
}

// NewGame starts a new game in a session, keeping its best score
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.NewGame()
	s.persist(sess.ID, "new_game")
	return state, nil
}

// Continue dismisses the won status so play can go on
func (s *gameServiceImpl) Continue(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.Engine.Continue() {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNothingToContinue)
	}

	s.persist(sess.ID, "continue")
	return sess.Engine.GetState(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	if state.WinNotice {
		// the snapshot consumed the notice
		s.persist(sess.ID, "state")
	}
	return state, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configID)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configID, config)
}

// SaveAllSessions flushes every session while holding the lock moves take
func (s *gameServiceImpl) SaveAllSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.SaveAllSessions()
}

func newGameEvent() GameEvent {
	return GameEvent{
		Type:      EventNewGame,
		Message:   "New game started",
		Timestamp: time.Now(),
	}
}

// outcomeEvents turns a move outcome into events. state may be nil.
func outcomeEvents(outcome *engine.MoveOutcome, state *engine.GameState) []GameEvent {
	now := time.Now()
	events := []GameEvent{}

	if !outcome.Changed {
		events = append(events, GameEvent{
			Type:      EventNoChange,
			Message:   fmt.Sprintf("Moving %s changed nothing", outcome.Direction),
			Timestamp: now,
		})
	} else {
		events = append(events, GameEvent{
			Type:      EventMove,
			Message:   fmt.Sprintf("Moved %s", outcome.Direction),
			Timestamp: now,
			Tile:      outcome.Spawned,
		})
		if outcome.Merges > 0 {
			events = append(events, GameEvent{
				Type:      EventMerge,
				Message:   fmt.Sprintf("%d merge(s), +%d points", outcome.Merges, outcome.ScoreDelta),
				Timestamp: now,
			})
		}
	}

	if outcome.WinNotice {
		msg := "Win tile reached!"
		if state != nil {
			msg = fmt.Sprintf("Reached the %d tile!", state.WinTile)
		}
		events = append(events, GameEvent{
			Type:      EventVictory,
			Message:   msg,
			Timestamp: now,
		})
	}

	if outcome.GameOverNotice {
		msg := "No moves left"
		if state != nil {
			msg = state.Message
		}
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   msg,
			Timestamp: now,
		})
	}

	return events
}
