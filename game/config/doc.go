// Package config provides configuration management for the 2048 game.
//
// The config package handles:
//   - Loading game variants from JSON files
//   - Configuration validation through the engine
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game variants are stored as JSON files in the configs directory. Each one
// defines the board size, the tile that wins, the chance that a spawned tile is
// a 4, how many tiles a new game starts with, whether the game over notice is
// level or edge triggered, and the messages shown to the player.
//
// Available Configurations:
//   - classic: 4x4 board, win at 2048
//   - small: 3x3 board, win at 256
//   - large: 5x5 board, win at 4096, edge triggered game over
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("small")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// A missing or broken classic.json falls back to the first valid file, then to
// a built-in 4x4 game.
package config
