// Command game2048 starts the 2048 game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags (each also readable from the environment or a .env file) control the
// listen address, config directory, session store, logging, and optional ngrok
// tunneling for external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/game2048/api"
	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
	"github.com/wricardo/mcp-training/game2048/transport/mcp"
	"github.com/wricardo/mcp-training/game2048/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "2048 Game Server"
)

// Session store backends
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Background routine timing
const (
	cleanupInterval = time.Hour
	sessionMaxIdle  = 24 * time.Hour
	syncInterval    = 5 * time.Second
)

// settings is the resolved process configuration
type settings struct {
	Host        string
	Port        int
	ConfigDir   string
	Store       string
	SessionsDir string
	DBPath      string
	Retention   time.Duration
	LogLevel    string
	Debug       bool
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
		&cli.StringFlag{Name: "store", Value: StoreFile, Usage: "Session store: file, sqlite or memory", Sources: cli.EnvVars("SESSION_STORE")},
		&cli.StringFlag{Name: "sessions-dir", Value: "sessions", Usage: "Directory for the file session store", Sources: cli.EnvVars("SESSIONS_DIR")},
		&cli.StringFlag{Name: "db-path", Value: "sessions.db", Usage: "Database file for the sqlite session store", Sources: cli.EnvVars("DB_PATH")},
		&cli.DurationFlag{Name: "retention", Usage: "Delete stored sessions idle for longer than this (sqlite only, 0 keeps them)", Sources: cli.EnvVars("SESSION_RETENTION")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging with human-readable output", Sources: cli.EnvVars("DEBUG")},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func settingsFromCommand(cmd *cli.Command) settings {
	return settings{
		Host:        cmd.String("host"),
		Port:        int(cmd.Int("port")),
		ConfigDir:   cmd.String("config-dir"),
		Store:       strings.ToLower(cmd.String("store")),
		SessionsDir: cmd.String("sessions-dir"),
		DBPath:      cmd.String("db-path"),
		Retention:   cmd.Duration("retention"),
		LogLevel:    cmd.String("log-level"),
		Debug:       cmd.Bool("debug"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "game2048",
		Usage:   "Run the 2048 game server",
		Version: Version,
		Flags:   globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, starting an internal HTTP API when none is running",
				Action:  runStdioMCP,
			},
		},
	}
}

func main() {
	// Load .env before flags so env-backed flags see its values
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	} else {
		log.Info().Msg("loaded environment variables from .env file")
	}

	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// setupLogging sets the global zerolog level. debug forces debug level and a
// console writer. Logs always go to stderr so stdio MCP keeps stdout clean.
func setupLogging(level string, debug bool) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	if debug {
		lvl = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(lvl)
	return nil
}

// services bundles what the modes need from the game layer
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
}

// initializeServices wires the config manager, the session store selected by
// s.Store and the game service, then restores persisted sessions.
func initializeServices(s settings) (*services, error) {
	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var persistence session.SessionPersistence
	switch s.Store {
	case StoreFile, "":
		persistence, err = session.NewFilePersistence(s.SessionsDir, configManager)
	case StoreSQLite:
		persistence, err = session.NewSQLitePersistence(s.DBPath, configManager)
	case StoreMemory:
	default:
		return nil, fmt.Errorf("unknown session store %q (use file, sqlite or memory)", s.Store)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	var sessionManager *session.Manager
	if persistence != nil {
		sessionManager = session.NewManagerWithPersistence(persistence)
		if err := sessionManager.LoadPersistedSessions(); err != nil {
			log.Warn().Err(err).Msg("failed to load persisted sessions")
		}
	} else {
		sessionManager = session.NewManager()
	}

	log.Info().
		Str("store", s.Store).
		Int("sessions", sessionManager.Count()).
		Int("configs", configManager.Count()).
		Msg("services initialized")

	return &services{
		game:        service.NewGameService(sessionManager, configManager),
		sessions:    sessionManager,
		persistence: persistence,
	}, nil
}

// runBackground starts the maintenance routines; they stop with ctx
func (svcs *services) runBackground(ctx context.Context, s settings) {
	go sessionCleanupRoutine(ctx, svcs.sessions, svcs.persistence, s.Retention)
	if svcs.persistence != nil {
		go persistenceSyncRoutine(ctx, svcs.sessions, svcs.persistence)
	}
}

// close flushes every session to the store and releases it
func (svcs *services) close() {
	if svcs.persistence == nil {
		return
	}
	if err := svcs.game.SaveAllSessions(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions on shutdown")
	}
	if closer, ok := svcs.persistence.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close session store")
		}
	}
}

type pruner interface {
	PruneBefore(cutoff time.Time) (int64, error)
}

// sessionCleanupRoutine periodically evicts idle sessions from memory. When a
// retention is set and the store supports it, stored sessions idle for longer
// are deleted too.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, retention time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cleanupOnce(manager, persistence, retention, time.Now())
		}
	}
}

func cleanupOnce(manager *session.Manager, persistence session.SessionPersistence, retention time.Duration, now time.Time) {
	if removed := manager.CleanupExpiredSessions(sessionMaxIdle); removed > 0 {
		log.Info().Int("removed", removed).Msg("evicted idle sessions from memory")
	}

	if retention <= 0 {
		return
	}
	p, ok := persistence.(pruner)
	if !ok {
		return
	}
	pruned, err := p.PruneBefore(now.Add(-retention))
	if err != nil {
		log.Warn().Err(err).Msg("failed to prune stored sessions")
		return
	}
	if pruned > 0 {
		log.Info().Int64("pruned", pruned).Msg("deleted stored sessions past retention")
	}
}

// persistenceSyncRoutine periodically drops in-memory sessions whose stored
// copy has been removed behind the server's back.
func persistenceSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncOnce(manager, persistence)
		}
	}
}

func syncOnce(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Info().Str("session_id", sess.ID).Msg("pruned session from memory (stored copy deleted)")
		}
	}
	return pruned
}

// selfURL is the base URL the MCP proxy uses to reach this process
func selfURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// newHandler builds the full HTTP surface: REST, WebSocket and /mcp
func newHandler(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	apiServer.Mount("/mcp", mcp.NewClient(baseURL).HTTPHandler())
	return apiServer
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	s := settingsFromCommand(cmd)
	log.Info().Str("version", Version).Str("mode", "server").Msgf("starting %s", AppName)

	svcs, err := initializeServices(s)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(svcs.game)
	go hub.Run(ctx)

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	handler := newHandler(svcs.game, hub, selfURL(s.Host, s.Port))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	svcs.runBackground(ctx, s)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if s.Ngrok {
		go runNgrok(ctx, s, handler)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		svcs.close()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	svcs.close()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, s settings, handler http.Handler) {
	if s.NgrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
		log.Info().Str("domain", s.NgrokDomain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	log.Info().Msg("starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("websocket", ngrokURL+"/ws?session=<session_id>").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// apiAvailable reports whether a game server answers at baseURL
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses a game server already running
// at --host/--port; otherwise it starts an internal HTTP API bound to a random
// loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	s := settingsFromCommand(cmd)
	baseURL := selfURL(s.Host, s.Port)

	if apiAvailable(baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		svcs, err := initializeServices(s)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
		defer svcs.close()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		hub := websocket.NewHub(svcs.game)
		go hub.Run(ctx)
		svcs.runBackground(ctx, s)

		httpServer := &http.Server{Handler: api.NewServer(svcs.game, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		log.Info().Str("url", baseURL).Msg("internal HTTP server started")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
