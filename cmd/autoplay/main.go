// Command autoplay plays 2048 against a running game server through the REST
// API, keeping the biggest tiles in the bottom-left corner.
//
//	autoplay --url http://localhost:8080 --config small --max-attempts 10
//
// The session id is saved to --session-file so later runs resume the same
// session. Pass --continue to play in a specific session instead.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/game2048/game/engine"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
}

// options controls a play run
type options struct {
	ConfigID    string
	SessionID   string // session to resume, overrides SessionFile
	SessionFile string
	MaxMoves    int
	MaxAttempts int
	Delay       time.Duration
	KeepGoing   bool // continue past the win tile until the board locks
	Verbose     bool
}

// result summarizes a play run
type result struct {
	SessionID string
	Won       bool
	Attempts  int
	Moves     int // moves in the last attempt
	Score     int
	BestScore int
	MaxTile   int
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play 2048 against a game server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("GAME_SERVER_URL")},
			&cli.StringFlag{Name: "config", Usage: "Game configuration id (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File the session ID is saved to (empty disables)"},
			&cli.IntFlag{Name: "max-moves", Value: 5000, Usage: "Maximum moves per attempt"},
			&cli.IntFlag{Name: "max-attempts", Value: 20, Usage: "Maximum attempts before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between moves"},
			&cli.BoolFlag{Name: "keep-going", Usage: "Keep playing after reaching the win tile"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}

			opts := options{
				ConfigID:    cmd.String("config"),
				SessionID:   cmd.String("continue"),
				SessionFile: cmd.String("session-file"),
				MaxMoves:    int(cmd.Int("max-moves")),
				MaxAttempts: int(cmd.Int("max-attempts")),
				Delay:       cmd.Duration("delay"),
				KeepGoing:   cmd.Bool("keep-going"),
				Verbose:     cmd.Bool("verbose"),
			}

			log.Info().Str("url", cmd.String("url")).Msg("connecting to game server")
			res, err := play(ctx, NewClient(cmd.String("url")), opts)
			if err != nil {
				return err
			}
			if !res.Won {
				return fmt.Errorf("failed to win after %d attempts (session %s)", res.Attempts, res.SessionID)
			}
			log.Info().Str("session", res.SessionID).Int("attempt", res.Attempts).Int("moves", res.Moves).
				Int("score", res.Score).Int("max_tile", res.MaxTile).Msg("🎉 victory")
			return nil
		},
	}
}

// openSession resumes the requested or saved session, creating a new one when
// there is none or it has expired.
func openSession(ctx context.Context, client *Client, opts options) error {
	resumeID := opts.SessionID
	if resumeID == "" && opts.SessionFile != "" {
		if data, err := os.ReadFile(opts.SessionFile); err == nil {
			resumeID = string(bytes.TrimSpace(data))
		}
	}

	if resumeID != "" {
		client.UseSession(resumeID)
		state, err := client.GetState(ctx)
		if err == nil {
			log.Info().Str("session", resumeID).Int("size", state.Size).Int("best_score", state.BestScore).Msg("🔄 resumed session")
			return nil
		}
		log.Warn().Err(err).Str("session", resumeID).Msg("failed to resume session, creating a new one")
	}

	state, err := client.CreateSession(ctx, opts.ConfigID)
	if err != nil {
		return err
	}
	log.Info().Str("session", client.SessionID()).Str("config", state.ConfigName).
		Int("size", state.Size).Int("win_tile", state.WinTile).Msg("✨ session created")

	if opts.SessionFile != "" {
		if err := os.WriteFile(opts.SessionFile, []byte(client.SessionID()), 0644); err != nil {
			log.Warn().Err(err).Msg("failed to save session ID")
		}
	}
	return nil
}

// play runs attempts until one reaches the win tile or MaxAttempts is used up.
// Every attempt starts a fresh game in the same session.
func play(ctx context.Context, client *Client, opts options) (*result, error) {
	if opts.MaxAttempts <= 0 || opts.MaxMoves <= 0 {
		return nil, errors.New("max-attempts and max-moves must be positive")
	}
	if err := openSession(ctx, client, opts); err != nil {
		return nil, err
	}

	var strategy CornerStrategy
	res := &result{SessionID: client.SessionID()}

	for res.Attempts < opts.MaxAttempts {
		res.Attempts++

		state, err := client.NewGame(ctx)
		if err != nil {
			return res, err
		}
		log.Info().Int("attempt", res.Attempts).Int("max_attempts", opts.MaxAttempts).Msg("=== 🎮 new attempt ===")

		moves := 0
		for state.Status != engine.Lost && moves < opts.MaxMoves {
			if state.Status == engine.Won {
				if !opts.KeepGoing {
					break
				}
				if state, err = client.Continue(ctx); err != nil {
					return res, err
				}
			}

			direction, ok := strategy.NextMove(state.Grid)
			if !ok {
				break
			}

			moved, err := client.Move(ctx, direction)
			if err != nil {
				return res, err
			}
			state = moved.GameState
			moves++

			if opts.Verbose && moves%50 == 0 {
				log.Debug().Int("moves", moves).Int("score", state.Score).Int("max_tile", state.MaxTile).Msg("progress")
			}

			if opts.Delay > 0 {
				select {
				case <-ctx.Done():
					return res, ctx.Err()
				case <-time.After(opts.Delay):
				}
			}
		}

		res.Moves = moves
		res.Score = state.Score
		res.BestScore = state.BestScore
		res.MaxTile = state.MaxTile
		log.Info().Int("attempt", res.Attempts).Int("moves", moves).Int("score", state.Score).
			Int("max_tile", state.MaxTile).Str("status", string(state.Status)).Msg("attempt finished")

		if state.Won {
			res.Won = true
			return res, nil
		}
	}

	log.Warn().Int("attempts", res.Attempts).Str("session", res.SessionID).Msg("❌ failed to win")
	return res, nil
}
