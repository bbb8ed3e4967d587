package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

const validConfig = `{
	"name": "Tiny",
	"description": "Test configuration",
	"grid_size": 3,
	"win_tile": 64,
	"four_probability": 0.1,
	"initial_tiles": 2,
	"messages": {
		"welcome": "Hi",
		"victory": "Won",
		"game_over": "Lost",
		"continue": "Go on"
	}
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiny.json", validConfig)
	writeFile(t, dir, "broken.json", `{"name": `)
	writeFile(t, dir, "huge_win.json", `{
		"name": "Huge", "description": "x", "grid_size": 2, "win_tile": 1024,
		"four_probability": 0.1, "initial_tiles": 2,
		"messages": {"victory": "v", "game_over": "g"}
	}`)
	writeFile(t, dir, "bad_size.json", `{
		"name": "Bad", "description": "x", "grid_size": 12, "win_tile": 2048,
		"four_probability": 0.1, "initial_tiles": 2,
		"messages": {"victory": "v", "game_over": "g"}
	}`)

	tests := []struct {
		file      string
		valid     bool
		wantError string
		wantNote  string
	}{
		{file: "tiny.json", valid: true},
		{file: "broken.json", wantError: "invalid JSON"},
		{file: "huge_win.json", valid: true, wantNote: "out of reach"},
		{file: "bad_size.json", wantError: "invalid argument"},
		{file: "missing.json", wantError: "cannot read file"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			result := validateConfig(filepath.Join(dir, tt.file))
			assert.Equal(t, tt.file, result.File)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.wantError != "" {
				require.NotEmpty(t, result.Errors)
				assert.Contains(t, result.Errors[0], tt.wantError)
			} else {
				assert.Empty(t, result.Errors)
				assert.NotNil(t, result.Config)
			}
			if tt.wantNote != "" {
				require.NotEmpty(t, result.Notes)
				assert.Contains(t, result.Notes[0], tt.wantNote)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", validConfig)
	writeFile(t, dir, "a.json", validConfig)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	results, err := validateDir(dir)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.json", results[0].File)
	assert.Equal(t, "b.json", results[1].File)

	_, err = validateDir(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestValidateCommand_ShippedConfigs(t *testing.T) {
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"analyze", "validate", "../../configs"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "✅ classic.json")
	assert.Contains(t, out.String(), "✅ small.json")
	assert.Contains(t, out.String(), "3 of 3 configurations valid")
}

func TestValidateCommand_ReportsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", validConfig)
	writeFile(t, dir, "bad.json", `[]`)

	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"analyze", "validate", dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 invalid")
	assert.Contains(t, out.String(), "❌ bad.json")
	assert.Contains(t, out.String(), "1 of 2 configurations valid")
}

func TestStrategies(t *testing.T) {
	g, err := engine.NewGridFromRows([][]int{
		{2, 2, 0},
		{4, 0, 0},
		{4, 0, 0},
	})
	require.NoError(t, err)

	// Up merges the 4s for 8, left merges the 2s for 4
	assert.Equal(t, engine.Up, greedyStrategy(g, nil))

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		d := randomStrategy(g, rng)
		assert.True(t, engine.CanMove(g, d), "random strategy picked impossible move %s", d)
	}

	_, err = strategyByName("GREEDY")
	assert.NoError(t, err)
	_, err = strategyByName("psychic")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	cfg := &engine.GameConfig{
		Name:            "Tiny",
		Description:     "x",
		GridSize:        3,
		WinTile:         16,
		FourProbability: 0.1,
		InitialTiles:    2,
	}
	cfg.Messages.Victory = "won"
	cfg.Messages.GameOver = "lost"

	summary, err := simulate(cfg, 20, 42, greedyStrategy)
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Games)
	assert.Positive(t, summary.TotalMoves)
	assert.GreaterOrEqual(t, summary.BestScore, int(summary.AverageScore()))
	assert.GreaterOrEqual(t, summary.WinRate(), 0.0)
	assert.LessOrEqual(t, summary.WinRate(), 1.0)

	games := 0
	for tile, count := range summary.MaxTiles {
		assert.True(t, engine.IsTileValue(tile))
		games += count
	}
	assert.Equal(t, 20, games)

	// A lost 3x3 board is full
	tiles := 0
	for _, count := range summary.FinalTiles {
		tiles += count
	}
	assert.Equal(t, 20*9, tiles)

	again, err := simulate(cfg, 20, 42, greedyStrategy)
	require.NoError(t, err)
	assert.Equal(t, summary, again, "same seed gives the same run")

	_, err = simulate(cfg, 0, 1, greedyStrategy)
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{
		"analyze", "simulate",
		"--config-dir", "../../configs",
		"--config", "small",
		"--games", "5",
		"--seed", "9",
		"--strategy", "random",
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "=== Small (3x3, win 256), random strategy ===")
	assert.Contains(t, text, "Games:         5")
	assert.Contains(t, text, "Max tile reached:")
	assert.Contains(t, text, "Tiles per final board:")
}

func TestSimulateCommand_UnknownConfig(t *testing.T) {
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{
		"analyze", "simulate", "--config-dir", "../../configs", "--config", "nope",
	})
	assert.Error(t, err)
}
