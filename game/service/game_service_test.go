package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/service"
)

var errMockNotFound = service.ErrSessionNotFound

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    map[string]int
	mu       sync.Mutex
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		saves:    make(map[string]int),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config, engine.WithSeed(uint64(len(m.sessions)+1)))
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, errMockNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}
	return m.Create(id, configID, config)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return errMockNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errMockNotFound
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return errMockNotFound
	}
	m.saves[id]++
	return nil
}

// SaveAllSessions reads every engine the way a real store does
func (m *MockSessionManager) SaveAllSessions() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, session := range m.sessions {
		_ = session.Engine.Snapshot()
		m.saves[id]++
	}
	return nil
}

func (m *MockSessionManager) saveCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[id]
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	classic := engine.DefaultGameConfig()

	small := engine.DefaultGameConfig()
	small.Name = "Small"
	small.Description = "3x3 test board"
	small.GridSize = 3
	small.WinTile = 64

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"classic": classic,
			"small":   small,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, name)
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var configs []*service.ConfigInfo
	for id, config := range m.configs {
		configs = append(configs, &service.ConfigInfo{
			Filename:    id + ".json",
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
			WinTile:     config.WinTile,
		})
	}
	return configs, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager) {
	t.Helper()
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockConfigManager()), sessions
}

func loadBoard(t *testing.T, sessions *MockSessionManager, id string, rows [][]int) {
	t.Helper()
	sess, err := sessions.Get(id)
	require.NoError(t, err)
	require.NoError(t, sess.Engine.SetState(&engine.GameState{Grid: rows}))
}

func TestGameService_CreateSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "classic", info.ConfigName)
	assert.Equal(t, 4, info.GameState.Size)
	assert.Equal(t, engine.InProgress, info.GameState.Status)

	info, err = svc.CreateSession(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, "small", info.ConfigName)
	assert.Equal(t, 3, info.GameState.Size)
	assert.Equal(t, 64, info.GameConfig.WinTile)

	_, err = svc.CreateSession(ctx, "huge")
	assert.ErrorIs(t, err, service.ErrConfigNotFound)
	assert.ErrorContains(t, err, "available configs")
}

func TestGameService_Move(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{2, 2, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	result, err := svc.Move(ctx, info.ID, "left", false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 4, result.Outcome.ScoreDelta)
	assert.Equal(t, 4, result.GameState.Score)
	assert.Equal(t, "Score: 4", result.Message)
	require.Len(t, result.Events, 2)
	assert.Equal(t, service.EventMove, result.Events[0].Type)
	assert.NotNil(t, result.Events[0].Tile)
	assert.Equal(t, service.EventMerge, result.Events[1].Type)
	assert.Equal(t, 1, sessions.saveCount(info.ID))

	_, err = svc.Move(ctx, info.ID, "sideways", false)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = svc.Move(ctx, "nope", "left", false)
	assert.ErrorIs(t, err, errMockNotFound)
}

func TestGameService_MoveNoChange(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{2, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	result, err := svc.Move(ctx, info.ID, "up", false)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Events, 1)
	assert.Equal(t, service.EventNoChange, result.Events[0].Type)
	assert.Equal(t, 1, result.GameState.TotalMoves)
}

func TestGameService_MoveWithNewGame(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	})

	result, err := svc.Move(ctx, info.ID, "down", true)
	require.NoError(t, err)
	assert.Equal(t, service.EventNewGame, result.Events[0].Type)
	assert.NotEqual(t, engine.Lost, result.GameState.Status)
	assert.Equal(t, 1, result.GameState.CurrentMovesCount)
}

func TestGameService_WinAndContinue(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "small")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{32, 32, 0},
		{0, 0, 0},
		{0, 0, 0},
	})

	_, err = svc.Continue(ctx, info.ID)
	assert.ErrorIs(t, err, service.ErrNothingToContinue)

	result, err := svc.Move(ctx, info.ID, "left", false)
	require.NoError(t, err)
	assert.True(t, result.Outcome.WinNotice)
	assert.Equal(t, engine.Won, result.GameState.Status)
	types := []string{}
	for _, ev := range result.Events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, service.EventVictory)

	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, state.WinNotice)

	state, err = svc.Continue(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.InProgress, state.Status)
	assert.True(t, state.Continued)
}

func TestGameService_GameOver(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	})

	result, err := svc.Move(ctx, info.ID, "left", false)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Outcome.GameOverNotice)
	assert.Equal(t, engine.Lost, result.GameState.Status)
	assert.Equal(t, service.EventGameOver, result.Events[len(result.Events)-1].Type)
}

func TestGameService_BulkMove(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	result, err := svc.BulkMove(ctx, info.ID, []string{"left", "up", "right", "down"}, false)
	require.NoError(t, err)
	assert.Equal(t, 4, result.RequestedMoves)
	assert.Equal(t, 4, result.MovesExecuted)
	assert.Len(t, result.Steps, 4)
	assert.True(t, result.Success)
	assert.Equal(t, result.EndScore-result.StartScore, result.ScoreDelta)
	assert.Equal(t, 4, result.GameState.TotalMoves)

	_, err = svc.BulkMove(ctx, info.ID, []string{"left", "bogus"}, false)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, state.TotalMoves, "invalid batch makes no move")

	_, err = svc.BulkMove(ctx, info.ID, nil, false)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	loadBoard(t, sessions, info.ID, [][]int{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	})
	result, err = svc.BulkMove(ctx, info.ID, []string{"left", "up"}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.MovesExecuted)
	assert.False(t, result.Success)
	assert.True(t, result.GameOver)
	assert.Equal(t, service.StopGameOver, result.StopReasonCode)
	assert.Equal(t, 1, result.StoppedOnMove)
}

func TestGameService_BulkMoveStopsOnWin(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "small")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{32, 32, 0},
		{0, 0, 0},
		{0, 0, 0},
	})

	result, err := svc.BulkMove(ctx, info.ID, []string{"l", "r", "u"}, false)
	require.NoError(t, err)
	assert.True(t, result.WinReached)
	assert.Equal(t, 1, result.MovesExecuted)
	assert.Equal(t, service.StopVictory, result.StopReasonCode)
	assert.Equal(t, 2, result.StoppedOnMove)
	assert.Equal(t, engine.Won, result.Status)
}

func TestGameService_BulkMoveTruncates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	moves := make([]string, engine.MaxBulkMoves+20)
	for i := range moves {
		moves[i] = engine.AllDirections[i%4].String()
	}
	result, err := svc.BulkMove(ctx, info.ID, moves, false)
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, engine.MaxBulkMoves, result.Limit)
	assert.Equal(t, engine.MaxBulkMoves+20, result.RequestedMoves)
	assert.LessOrEqual(t, result.MovesExecuted, engine.MaxBulkMoves)
}

func TestGameService_GetMoveHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	for i := 0; i < 25; i++ {
		_, err := svc.Move(ctx, info.ID, engine.AllDirections[i%4].String(), false)
		require.NoError(t, err)
	}

	page, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalMoves)
	assert.Equal(t, service.DefaultHistoryLimit, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
	require.Len(t, page.Moves, 20)
	assert.Equal(t, 25, page.Moves[0].MoveNumber)

	page, err = svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Page: 2, Limit: 20, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Moves, 5)
	assert.Equal(t, 21, page.Moves[0].MoveNumber)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)

	page, err = svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Page: 9, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, service.MaxHistoryLimit, page.PageSize)
	assert.Empty(t, page.Moves)

	_, err = svc.GetMoveHistory(ctx, "nope", service.HistoryOptions{})
	assert.Error(t, err)
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "small")
	require.NoError(t, err)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.DeleteSession(ctx, a.ID))
	_, err = svc.GetSession(ctx, a.ID)
	assert.ErrorIs(t, err, errMockNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, a.ID), errMockNotFound)

	list, err = svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGameService_NewGameKeepsBestScore(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)
	loadBoard(t, sessions, info.ID, [][]int{
		{64, 64, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	_, err = svc.Move(ctx, info.ID, "left", false)
	require.NoError(t, err)

	state, err := svc.NewGame(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 128, state.BestScore)
	assert.Equal(t, 2, engine.TileDistribution(state.Grid)[2]+engine.TileDistribution(state.Grid)[4])
}

func TestGameService_Configs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	config, err := svc.LoadConfig(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, 3, config.GridSize)

	custom := engine.DefaultGameConfig()
	custom.Name = "Custom"
	require.NoError(t, svc.SaveConfig(ctx, "custom", custom))
	_, err = svc.LoadConfig(ctx, "custom")
	assert.NoError(t, err)
}

func TestGameService_ConcurrentMoves(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Move(ctx, info.ID, engine.AllDirections[i%4].String(), false)
			_, _ = svc.GetGameState(ctx, info.ID)
		}(i)
	}
	wg.Wait()

	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, state.TotalMoves)
}

func TestGameService_SaveAllSessionsWhileMoving(t *testing.T) {
	svc, sessions := newTestService(t)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Move(ctx, info.ID, engine.AllDirections[i%4].String(), false)
		}(i)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.SaveAllSessions(ctx))
		}()
	}
	wg.Wait()

	saves := sessions.saveCount(info.ID)
	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	// every move persists once, plus 20 full flushes
	assert.Equal(t, state.TotalMoves+20, saves)
}
