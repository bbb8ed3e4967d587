package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config validation: config is nil", ErrInvalidArgument)
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("%w: config validation: name is required", ErrInvalidArgument)
	}
	if config.Description == "" {
		return fmt.Errorf("%w: config validation: description is required", ErrInvalidArgument)
	}

	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("%w: config validation: grid_size must be between %d and %d, got %d",
			ErrInvalidArgument, MinGridSize, MaxGridSize, config.GridSize)
	}

	if config.WinTile < MinWinTile || config.WinTile > MaxWinTile || !IsTileValue(config.WinTile) {
		return fmt.Errorf("%w: config validation: win_tile must be a power of two between %d and %d, got %d",
			ErrInvalidArgument, MinWinTile, MaxWinTile, config.WinTile)
	}

	if config.FourProbability < 0 || config.FourProbability > 1 {
		return fmt.Errorf("%w: config validation: four_probability must be between 0 and 1, got %g",
			ErrInvalidArgument, config.FourProbability)
	}

	cells := config.GridSize * config.GridSize
	if config.InitialTiles < 1 || config.InitialTiles > cells {
		return fmt.Errorf("%w: config validation: initial_tiles must be between 1 and %d, got %d",
			ErrInvalidArgument, cells, config.InitialTiles)
	}

	switch config.GameOverNotice {
	case "", NoticeLevel, NoticeEdge:
	default:
		return fmt.Errorf("%w: config validation: game_over_notice must be %q or %q, got %q",
			ErrInvalidArgument, NoticeLevel, NoticeEdge, config.GameOverNotice)
	}

	// Validate messages
	if config.Messages.Victory == "" {
		return fmt.Errorf("%w: config validation: messages.victory is required", ErrInvalidArgument)
	}
	if config.Messages.GameOver == "" {
		return fmt.Errorf("%w: config validation: messages.game_over is required", ErrInvalidArgument)
	}
	if config.Messages.Moved != "" && !scoreOnlyFormat(config.Messages.Moved) {
		return fmt.Errorf("%w: config validation: messages.moved must contain one %%d for the score and no other verbs", ErrInvalidArgument)
	}

	return nil
}

// scoreOnlyFormat reports whether format has exactly one verb and it is %d.
// A literal %% is allowed.
func scoreOnlyFormat(format string) bool {
	rest := strings.ReplaceAll(format, "%%", "")
	return strings.Count(rest, "%") == 1 && strings.Count(rest, "%d") == 1
}

// DefaultGameConfig returns the classic 4x4 game that ends at the 2048 tile
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:            "Classic",
		Description:     "The original 4x4 board. Join the numbers and get to the 2048 tile!",
		GridSize:        DefaultGridSize,
		WinTile:         DefaultWinTile,
		FourProbability: DefaultFourProbability,
		InitialTiles:    DefaultInitialTiles,
		GameOverNotice:  NoticeLevel,
	}
	config.Messages.Welcome = "Join the numbers and get to the 2048 tile!"
	config.Messages.Moved = "Score: %d"
	config.Messages.NoChange = "Nothing moved"
	config.Messages.Victory = "You win! Keep going to reach higher scores!"
	config.Messages.GameOver = "Game over!"
	config.Messages.Continue = "Keep going!"
	return config
}

// LoadGameConfig loads and validates a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filepath.Base(filename), err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filepath.Base(filename), err)
	}

	return &config, nil
}
