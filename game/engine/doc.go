// Package engine provides the core game logic for the 2048 sliding-tile game.
//
// The engine package implements the game mechanics including:
//   - The square grid model and its tile invariant
//   - Sliding and merging in four directions
//   - Random tile spawning from a seedable source
//   - Win and game over detection
//   - Configuration loading and validation
//
// Core Types:
//
// Grid holds the board and the score. ApplyMove slides a grid in one Direction;
// every direction is the Left slide seen through a rotated view of the board.
// Spawner drops a 2 or a 4 on an empty cell. GameEngine ties these together into
// one game with a best score, win notification and move history.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome, err := gameEngine.Move(engine.Left)
//	if err != nil {
//		log.Fatal(err)
//	}
//	state := gameEngine.GetState()
//
// Game Rules:
//
// A slide moves every tile as far as it goes; two equal tiles that meet merge into
// their sum once per move, and the sum is added to the score. A move that changes
// the board spawns one new tile. Reaching the win tile is announced once per game
// and the player may continue. The game is lost when the board is full and no two
// neighbours are equal.
package engine
