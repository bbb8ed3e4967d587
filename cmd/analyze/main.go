// Command analyze checks game configuration files and plays headless games to
// show how a configuration behaves.
//
//	analyze validate [dir]
//	analyze simulate --config small --games 200 --seed 7 --strategy greedy
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/exp/rand"

	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// maxMovesPerGame bounds a simulated game
const maxMovesPerGame = 100000

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyze failed")
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "analyze",
		Usage:  "Validate 2048 configurations and simulate games",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate every configuration file in a directory",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dir := cmd.Args().First()
					if dir == "" {
						dir = "configs"
					}
					return runValidate(out, dir)
				},
			},
			{
				Name:  "simulate",
				Usage: "Play games headlessly and summarize the results",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Value: config.DefaultConfigID, Usage: "Configuration id"},
					&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
					&cli.IntFlag{Name: "games", Value: 100, Usage: "Number of games to play"},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "Seed for the first game; game i uses seed+i"},
					&cli.StringFlag{Name: "strategy", Value: "greedy", Usage: "Move strategy: random or greedy"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					strategy, err := strategyByName(cmd.String("strategy"))
					if err != nil {
						return err
					}
					configs, err := config.NewManager(cmd.String("config-dir"))
					if err != nil {
						return err
					}
					cfg, err := configs.LoadConfig(cmd.String("config"))
					if err != nil {
						return err
					}

					summary, err := simulate(cfg, int(cmd.Int("games")), cmd.Uint64("seed"), strategy)
					if err != nil {
						return err
					}
					printSummary(out, cfg, cmd.String("strategy"), summary)
					return nil
				},
			},
		},
	}
}

// ValidationResult captures the outcome of validating a single file.
// Notes are informational and do not make a config invalid.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
	Config *engine.GameConfig
}

// validateConfig loads and validates one configuration file
func validateConfig(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("cannot read file: %v", err))
		return result
	}

	var cfg engine.GameConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("invalid JSON: %v", err))
		return result
	}

	if err := engine.ValidateGameConfig(&cfg); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Config = &cfg

	// A board of n cells tops out around 2^(n+1)
	cells := cfg.GridSize * cfg.GridSize
	if cells < 30 && cfg.WinTile > 1<<(cells+1) {
		result.Notes = append(result.Notes, fmt.Sprintf("win tile %d is out of reach on a %dx%d board", cfg.WinTile, cfg.GridSize, cfg.GridSize))
	}
	if cfg.Messages.Welcome == "" {
		result.Notes = append(result.Notes, "no welcome message")
	}
	if cfg.Messages.Continue == "" {
		result.Notes = append(result.Notes, "no continue message")
	}

	return result
}

// validateDir validates every .json file in dir, in name order
func validateDir(dir string) ([]ValidationResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var results []ValidationResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		results = append(results, validateConfig(filepath.Join(dir, entry.Name())))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, nil
}

func runValidate(out io.Writer, dir string) error {
	results, err := validateDir(dir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no configuration files in %s", dir)
	}

	invalid := 0
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(out, "✅ %s: %s (%dx%d, win %d)\n", r.File, r.Config.Name, r.Config.GridSize, r.Config.GridSize, r.Config.WinTile)
		} else {
			invalid++
			fmt.Fprintf(out, "❌ %s\n", r.File)
		}
		for _, e := range r.Errors {
			fmt.Fprintf(out, "   error: %s\n", e)
		}
		for _, n := range r.Notes {
			fmt.Fprintf(out, "   note: %s\n", n)
		}
	}

	fmt.Fprintf(out, "\n%d of %d configurations valid\n", len(results)-invalid, len(results))
	if invalid > 0 {
		return fmt.Errorf("%d invalid configuration(s)", invalid)
	}
	return nil
}

// Strategy picks the next move. It is only called while some move is possible.
type Strategy func(g *engine.Grid, rng *rand.Rand) engine.Direction

func strategyByName(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "random":
		return randomStrategy, nil
	case "greedy":
		return greedyStrategy, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (use random or greedy)", name)
	}
}

func randomStrategy(g *engine.Grid, rng *rand.Rand) engine.Direction {
	var moves []engine.Direction
	for _, d := range engine.AllDirections {
		if engine.CanMove(g, d) {
			moves = append(moves, d)
		}
	}
	return moves[rng.Intn(len(moves))]
}

// greedyStrategy takes the move that scores most, preferring more empty cells on a tie
func greedyStrategy(g *engine.Grid, _ *rand.Rand) engine.Direction {
	best, bestScore, bestEmpty := engine.Direction(-1), -1, -1
	for _, d := range engine.AllDirections {
		score, empty, ok := engine.EvaluateMove(g, d)
		if !ok {
			continue
		}
		if score > bestScore || (score == bestScore && empty > bestEmpty) {
			best, bestScore, bestEmpty = d, score, empty
		}
	}
	return best
}

// SimulationSummary aggregates the results of simulated games
type SimulationSummary struct {
	Games      int
	Wins       int
	TotalScore int
	BestScore  int
	TotalMoves int
	MaxTiles   map[int]int // highest tile reached -> number of games
	FinalTiles map[int]int // tiles left on the final boards, summed over games
}

// AverageScore returns the mean final score
func (s *SimulationSummary) AverageScore() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(s.Games)
}

// WinRate returns the share of games that reached the win tile
func (s *SimulationSummary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// simulate plays games with the engine until each one is lost, continuing past
// a win. Game i is seeded with seed+i so runs are reproducible.
func simulate(cfg *engine.GameConfig, games int, seed uint64, strategy Strategy) (*SimulationSummary, error) {
	if games <= 0 {
		return nil, errors.New("games must be positive")
	}

	summary := &SimulationSummary{MaxTiles: make(map[int]int), FinalTiles: make(map[int]int)}
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < games; i++ {
		e, err := engine.NewEngine(cfg, engine.WithSeed(seed+uint64(i)))
		if err != nil {
			return nil, err
		}

		moves := 0
		for !e.IsGameOver() && moves < maxMovesPerGame {
			if _, err := e.Move(strategy(e.Grid(), rng)); err != nil {
				return nil, fmt.Errorf("game %d move %d: %w", i+1, moves+1, err)
			}
			moves++
			if e.Status() == engine.Won {
				e.Continue()
			}
		}

		state := e.Snapshot()
		summary.Games++
		summary.TotalMoves += moves
		summary.TotalScore += state.Score
		if state.Score > summary.BestScore {
			summary.BestScore = state.Score
		}
		if e.HasWon() {
			summary.Wins++
		}
		summary.MaxTiles[state.MaxTile]++
		for tile, count := range engine.TileDistribution(state.Grid) {
			summary.FinalTiles[tile] += count
		}

		log.Debug().Int("game", i+1).Int("score", state.Score).Int("max_tile", state.MaxTile).Int("moves", moves).Msg("game finished")
	}

	return summary, nil
}

func printSummary(out io.Writer, cfg *engine.GameConfig, strategy string, s *SimulationSummary) {
	fmt.Fprintf(out, "=== %s (%dx%d, win %d), %s strategy ===\n", cfg.Name, cfg.GridSize, cfg.GridSize, cfg.WinTile, strategy)
	fmt.Fprintf(out, "Games:         %d\n", s.Games)
	fmt.Fprintf(out, "Average score: %.1f\n", s.AverageScore())
	fmt.Fprintf(out, "Best score:    %d\n", s.BestScore)
	fmt.Fprintf(out, "Average moves: %.1f\n", float64(s.TotalMoves)/float64(s.Games))
	fmt.Fprintf(out, "Win rate:      %.1f%%\n", s.WinRate()*100)

	fmt.Fprintln(out, "Max tile reached:")
	for _, tile := range engine.SortedTileValues(s.MaxTiles) {
		count := s.MaxTiles[tile]
		fmt.Fprintf(out, "  %6d  %4d  %s\n", tile, count, strings.Repeat("#", count*40/s.Games))
	}

	fmt.Fprintln(out, "Tiles per final board:")
	for _, tile := range engine.SortedTileValues(s.FinalTiles) {
		fmt.Fprintf(out, "  %6d  %6.2f\n", tile, float64(s.FinalTiles[tile])/float64(s.Games))
	}
}
