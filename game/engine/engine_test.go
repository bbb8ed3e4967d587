package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stuckBoard = [][]int{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{2, 4, 2, 4},
	{4, 2, 4, 2},
}

func createTestEngine(t *testing.T, opts ...Option) *GameEngine {
	t.Helper()
	if len(opts) == 0 {
		opts = []Option{WithSeed(42)}
	}
	e, err := NewEngine(DefaultGameConfig(), opts...)
	require.NoError(t, err)
	return e
}

func loadBoard(t *testing.T, e *GameEngine, rows [][]int, score int) {
	t.Helper()
	require.NoError(t, e.SetState(&GameState{Grid: rows, Score: score}))
}

func TestNewEngine(t *testing.T) {
	e := createTestEngine(t)

	state := e.GetState()
	assert.Equal(t, 4, state.Size)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 0, state.BestScore)
	assert.Equal(t, InProgress, state.Status)
	assert.Equal(t, 2048, state.WinTile)
	assert.Equal(t, "Classic", state.ConfigName)
	assert.NotEmpty(t, state.GameID)
	assert.Equal(t, e.GetConfig().Messages.Welcome, state.Message)
	assert.Equal(t, 2, e.Grid().TileCount())
	for _, row := range state.Grid {
		for _, v := range row {
			assert.Contains(t, []int{0, 2, 4}, v)
		}
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := DefaultGameConfig()
	config.GridSize = 1
	_, err := NewEngine(config)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewEngine(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults()
	assert.Equal(t, DefaultGridSize, e.GetState().Size)
	assert.Equal(t, DefaultWinTile, e.GetConfig().WinTile)
}

func TestEngine_SeededGamesAreReproducible(t *testing.T) {
	a := createTestEngine(t, WithSeed(7))
	b := createTestEngine(t, WithSeed(7))
	assert.Equal(t, a.GetState().Grid, b.GetState().Grid)

	for i := 0; i < 50; i++ {
		d := AllDirections[i%4]
		oa, err := a.Move(d)
		require.NoError(t, err)
		ob, err := b.Move(d)
		require.NoError(t, err)
		assert.Equal(t, oa.Spawned, ob.Spawned)
	}
	assert.Equal(t, a.GetState().Grid, b.GetState().Grid)
	assert.Equal(t, a.GetScore(), b.GetScore())
}

func TestEngine_MoveSpawnsOnlyWhenChanged(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, [][]int{
		{2, 2, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 0)

	outcome, err := e.Move(Left)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, 4, outcome.ScoreDelta)
	assert.Equal(t, 1, outcome.Merges)
	require.NotNil(t, outcome.Spawned)
	assert.Equal(t, 2, e.Grid().TileCount())
	assert.Equal(t, 4, e.GetScore())
	assert.Equal(t, "Score: 4", e.GetState().Message)

	loadBoard(t, e, [][]int{
		{4, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 4)
	before := e.GetState().Grid
	outcome, err = e.Move(Left)
	require.NoError(t, err)
	assert.False(t, outcome.Changed)
	assert.Nil(t, outcome.Spawned)
	assert.Equal(t, before, e.GetState().Grid)
	assert.Equal(t, e.GetConfig().Messages.NoChange, e.GetState().Message)
}

func TestEngine_InvalidDirectionDoesNotTouchState(t *testing.T) {
	e := createTestEngine(t)
	before := e.GetState()

	_, err := e.Move(Direction(9))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	after := e.GetState()
	assert.Equal(t, before.Grid, after.Grid)
	assert.Equal(t, before.Score, after.Score)
	assert.Equal(t, before.TotalMoves, after.TotalMoves)
	assert.Empty(t, e.GetMoveHistory())
}

func TestEngine_WinNotifiedOnce(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, [][]int{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 0)

	outcome, err := e.Move(Left)
	require.NoError(t, err)
	assert.True(t, outcome.WinNotice)
	assert.Equal(t, Won, outcome.Status)
	assert.Equal(t, 2048, outcome.ScoreDelta)

	state := e.GetState()
	assert.False(t, state.WinNotice, "a move already delivered the notice")
	assert.True(t, state.Won)
	assert.Equal(t, Won, state.Status)
	assert.Equal(t, e.GetConfig().Messages.Victory, state.Message)

	// moving on without dismissing keeps the status but never re-notifies
	outcome, err = e.Move(Right)
	require.NoError(t, err)
	assert.False(t, outcome.WinNotice)
	assert.Equal(t, Won, outcome.Status)

	assert.True(t, e.Continue())
	assert.False(t, e.Continue())
	assert.Equal(t, InProgress, e.Status())
	assert.True(t, e.HasWon())
	assert.Equal(t, e.GetConfig().Messages.Continue, e.GetState().Message)
}

func TestEngine_WinNotifiedOnceAcrossSnapshots(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, [][]int{
		{2048, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 20000)

	peek := e.Snapshot()
	assert.False(t, peek.WinNotice)
	assert.False(t, peek.WinAcknowledged)

	first := e.GetState()
	assert.True(t, first.WinNotice)
	assert.True(t, first.WinAcknowledged)

	for i := 0; i < 5; i++ {
		assert.False(t, e.GetState().WinNotice)
	}

	outcome, err := e.Move(Down)
	require.NoError(t, err)
	assert.False(t, outcome.WinNotice)
}

func TestEngine_NewGameResetsWinFlags(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, [][]int{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 0)
	_, err := e.Move(Left)
	require.NoError(t, err)
	require.True(t, e.HasWon())

	previousID := e.GetState().GameID
	state := e.NewGame()
	assert.False(t, state.Won)
	assert.False(t, state.WinAcknowledged)
	assert.False(t, state.Continued)
	assert.Equal(t, InProgress, state.Status)
	assert.Equal(t, 0, state.Score)
	assert.Equal(t, 2048, state.BestScore)
	assert.NotEqual(t, previousID, state.GameID)
	assert.Equal(t, 1, state.TotalMoves)
	assert.Empty(t, state.CurrentMoves)
	assert.Len(t, state.MoveHistory, 1)
}

func TestEngine_GameOverLevelTriggered(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, stuckBoard, 64)

	assert.True(t, e.IsGameOver())
	assert.Equal(t, Lost, e.Status())
	assert.Empty(t, e.GetPossibleMoves())

	for i := 0; i < 3; i++ {
		outcome, err := e.Move(AllDirections[i])
		require.NoError(t, err)
		assert.False(t, outcome.Changed)
		assert.True(t, outcome.GameOverNotice)
		assert.Equal(t, Lost, outcome.Status)
	}
	assert.Equal(t, e.GetConfig().Messages.GameOver, e.GetState().Message)
}

func TestEngine_GameOverEdgeTriggered(t *testing.T) {
	config := DefaultGameConfig()
	config.GameOverNotice = NoticeEdge
	e, err := NewEngine(config, WithSeed(1))
	require.NoError(t, err)
	loadBoard(t, e, stuckBoard, 64)

	outcome, err := e.Move(Left)
	require.NoError(t, err)
	assert.True(t, outcome.GameOverNotice)

	outcome, err = e.Move(Up)
	require.NoError(t, err)
	assert.False(t, outcome.GameOverNotice)
	assert.Equal(t, Lost, outcome.Status)
	assert.True(t, e.GetState().LostNotified)

	e.NewGame()
	assert.False(t, e.GetState().LostNotified)
}

func TestEngine_GameOverAfterLastMove(t *testing.T) {
	// the merge frees one cell and the spawn refills it with no pairs left
	e, err := NewEngine(DefaultGameConfig(), WithRandomSource(&scriptedSource{floats: []float64{0, 0, 0.99}}))
	require.NoError(t, err)
	loadBoard(t, e, [][]int{
		{2, 2, 8, 16},
		{8, 16, 32, 64},
		{16, 32, 64, 128},
		{32, 64, 128, 256},
	}, 0)

	outcome, err := e.Move(Left)
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	require.NotNil(t, outcome.Spawned)
	assert.Equal(t, Tile{Row: 0, Col: 3, Value: 4}, *outcome.Spawned)
	assert.True(t, outcome.GameOverNotice)
	assert.Equal(t, Lost, outcome.Status)
}

func TestEngine_BestScoreMonotonic(t *testing.T) {
	e := createTestEngine(t, WithSeed(2024))

	best, maxSeen := 0, 0
	for i := 0; i < 500; i++ {
		if e.IsGameOver() {
			e.NewGame()
		}
		_, err := e.Move(AllDirections[(i*7)%4])
		require.NoError(t, err)

		maxSeen = max(maxSeen, e.GetScore())
		assert.GreaterOrEqual(t, e.GetBestScore(), best)
		assert.Equal(t, maxSeen, e.GetBestScore())
		best = e.GetBestScore()
	}
	assert.Greater(t, best, 0)
}

func TestEngine_BulkMove(t *testing.T) {
	e := createTestEngine(t)

	result, err := e.BulkMove([]Direction{Left, Up, Right, Down})
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 4)
	assert.Equal(t, BulkCompleted, result.Stop)
	assert.Zero(t, result.StoppedBefore)
	assert.Equal(t, 4, e.GetState().TotalMoves)

	_, err = e.BulkMove([]Direction{Left, Direction(8)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 4, e.GetState().TotalMoves, "no move is made when any direction is invalid")

	loadBoard(t, e, stuckBoard, 0)
	result, err = e.BulkMove([]Direction{Left, Up})
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, BulkGameOver, result.Stop)
	assert.Equal(t, 1, result.StoppedBefore)
}

func TestEngine_BulkMoveStopsOnWin(t *testing.T) {
	winning := [][]int{
		{1024, 1024, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}

	e := createTestEngine(t)
	loadBoard(t, e, winning, 0)
	result, err := e.BulkMove([]Direction{Down, Left, Right, Up})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[1].WinNotice)
	assert.Equal(t, BulkWon, result.Stop)
	assert.Equal(t, 3, result.StoppedBefore)
	assert.Equal(t, 2, e.GetState().TotalMoves)

	// winning on the last move is not a stop
	e = createTestEngine(t)
	loadBoard(t, e, winning, 0)
	result, err = e.BulkMove([]Direction{Left})
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].WinNotice)
	assert.Equal(t, BulkCompleted, result.Stop)
}

func TestEngine_HistoryRecordsEveryMove(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, [][]int{
		{2, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 0)

	assert.Empty(t, e.GetMoveHistory())

	_, err := e.Move(Left)
	require.NoError(t, err)
	_, err = e.Move(Right)
	require.NoError(t, err)

	history := e.GetMoveHistory()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].MoveNumber)
	assert.Equal(t, "left", history[0].Direction)
	assert.False(t, history[0].Changed)
	assert.Nil(t, history[0].Spawned)
	assert.Equal(t, "right", history[1].Direction)
	assert.True(t, history[1].Changed)
	assert.NotZero(t, history[1].Timestamp)

	last := history[len(history)-1]
	assert.Equal(t, 2, last.MoveNumber)
	assert.Equal(t, e.GetState().GameID, last.GameID)
}

func TestEngine_SetStateRestoresGame(t *testing.T) {
	source := createTestEngine(t, WithSeed(5))
	for i := 0; i < 20; i++ {
		_, err := source.Move(AllDirections[i%4])
		require.NoError(t, err)
	}
	saved := source.GetState()

	restored := createTestEngine(t, WithSeed(6))
	require.NoError(t, restored.SetState(saved))

	state := restored.GetState()
	assert.Equal(t, saved.GameID, state.GameID)
	assert.Equal(t, saved.Grid, state.Grid)
	assert.Equal(t, saved.Score, state.Score)
	assert.Equal(t, saved.BestScore, state.BestScore)
	assert.Equal(t, saved.TotalMoves, state.TotalMoves)
	assert.Len(t, state.MoveHistory, 20)
}

func TestEngine_SetStateRejectsBadInput(t *testing.T) {
	e := createTestEngine(t)
	before := e.GetState()

	assert.ErrorIs(t, e.SetState(nil), ErrInvalidArgument)
	assert.ErrorIs(t, e.SetState(&GameState{Grid: [][]int{{2, 0}, {0, 0}}}), ErrInvalidArgument)
	assert.ErrorIs(t, e.SetState(&GameState{Grid: [][]int{
		{3, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0},
	}}), ErrInvalidArgument)
	assert.ErrorIs(t, e.SetState(&GameState{Grid: stuckBoard, Score: -5}), ErrInvalidArgument)

	assert.Equal(t, before.Grid, e.GetState().Grid)
}

func TestEngine_ConfigManagement(t *testing.T) {
	e := createTestEngine(t)

	config := DefaultGameConfig()
	config.Name = "Tiny"
	config.GridSize = 3
	config.WinTile = 256
	config.InitialTiles = 3
	require.NoError(t, e.SetConfig(config))

	state := e.GetState()
	assert.Equal(t, 3, state.Size)
	assert.Equal(t, 256, state.WinTile)
	assert.Equal(t, "Tiny", state.ConfigName)
	assert.Equal(t, 3, e.Grid().TileCount())

	bad := DefaultGameConfig()
	bad.WinTile = 1000
	assert.ErrorIs(t, e.SetConfig(bad), ErrInvalidArgument)
	assert.Equal(t, "Tiny", e.GetConfig().Name)
}

func TestEngine_PossibleMoves(t *testing.T) {
	e := createTestEngine(t)
	loadBoard(t, e, [][]int{
		{2, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	}, 0)

	assert.Equal(t, []string{"right", "down"}, e.GetPossibleMoves())
	assert.True(t, e.CanMove(Right))
	assert.False(t, e.CanMove(Left))
	assert.Equal(t, []string{"right", "down"}, e.GetState().PossibleMoves)
}
