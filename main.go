// Command gobang starts the five-in-a-row game server.
//
// It supports three commands:
//  1. "serve" (default) runs the HTTP server with the account API, the hall
//     and room WebSocket endpoints, operator views and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server that proxies a running gobang server
//  3. "version" prints version information
//
// Settings come from the environment (and an optional .env file); flags
// override the listen address, database path, web root and debug logging.
// An ngrok tunnel can be enabled for external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/gobang/api"
	"github.com/wricardo/gobang/config"
	"github.com/wricardo/gobang/game/matcher"
	"github.com/wricardo/gobang/game/presence"
	"github.com/wricardo/gobang/game/room"
	"github.com/wricardo/gobang/game/service"
	"github.com/wricardo/gobang/game/session"
	"github.com/wricardo/gobang/logging"
	"github.com/wricardo/gobang/store"
	"github.com/wricardo/gobang/transport/mcp"
	"github.com/wricardo/gobang/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Gobang Server"
)

func main() {
	if err := buildApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildApp assembles the command tree.
func buildApp() *cli.Command {
	return &cli.Command{
		Name:     "gobang",
		Usage:    AppName,
		Version:  Version,
		Commands: []*cli.Command{serveCommand(), mcpCommand(), versionCommand()},
		Flags:    serveFlags(),
		Action:   serve,
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Optional dotenv file"},
		&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides GOBANG_ADDR)"},
		&cli.StringFlag{Name: "db", Usage: "SQLite database path (overrides GOBANG_DB_PATH)"},
		&cli.StringFlag{Name: "web-root", Usage: "Static page directory (overrides GOBANG_WEB_ROOT)"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (or NGROK_ENABLED)"},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	return runHTTPServer(ctx, cfg, logger)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP server with API, WebSocket and MCP endpoint",
		Flags:  serveFlags(),
		Action: serve,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run an MCP stdio server for a running gobang server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8085", Usage: "Base URL of the gobang server"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client := mcp.NewClient(cmd.String("url"))
			return server.ServeStdio(client.GetMCPServer())
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
			return nil
		},
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String("env-file"))
	if err != nil {
		return config.Config{}, err
	}
	if cmd.IsSet("addr") {
		cfg.Addr = cmd.String("addr")
	}
	if cmd.IsSet("db") {
		cfg.DBPath = cmd.String("db")
	}
	if cmd.IsSet("web-root") {
		cfg.WebRoot = cmd.String("web-root")
	}
	if cmd.IsSet("debug") {
		cfg.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("ngrok") {
		cfg.NgrokEnabled = cmd.Bool("ngrok")
	}
	return cfg, cfg.Validate()
}

// app holds the wired server components.
type app struct {
	users   store.Store
	matcher *matcher.Matcher
	hub     *websocket.Hub
	handler http.Handler
}

// newApp wires the game core and the HTTP surface over users.
func newApp(cfg config.Config, users store.Store, logger *zap.Logger) *app {
	tracker := presence.NewTracker()
	rooms := room.NewManager(room.Deps{
		Presence:    tracker,
		Results:     users,
		BannedWords: cfg.BannedWords,
		Logger:      logger,
	})
	thresholds := matcher.Thresholds{High: cfg.HighTierScore, Super: cfg.SuperTierScore}
	m := matcher.New(thresholds, matcher.Deps{
		Users:    users,
		Rooms:    rooms,
		Presence: tracker,
		Logger:   logger,
	})

	gameService := service.NewGameService(service.Deps{
		Users:          users,
		Sessions:       session.NewManager(logger),
		Presence:       tracker,
		Rooms:          rooms,
		Matcher:        m,
		SessionTimeout: cfg.SessionTimeout,
		Logger:         logger,
	})

	hub := websocket.NewHub(logger)
	mcpClient := mcp.NewClient(localURL(cfg.Addr))

	apiServer := api.NewServer(gameService, websocket.NewHandler(hub, gameService, logger), api.Options{
		WebRoot: cfg.WebRoot,
		MCP:     mcpClient.GetMCPServer(),
		Logger:  logger,
	})

	return &app{users: users, matcher: m, hub: hub, handler: apiServer}
}

// localURL turns a listen address into a URL reachable from this host.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// runHTTPServer serves until SIGINT or SIGTERM, then shuts down gracefully.
func runHTTPServer(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	users, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer users.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, users, logger)
	a.matcher.Start(ctx)
	defer a.matcher.Stop()
	go a.hub.Run(ctx)

	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     a.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	errc := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", cfg.Addr),
			zap.String("db", cfg.DBPath),
			zap.String("web_root", cfg.WebRoot),
			zap.String("version", Version))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
			stop()
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, cfg, a.handler, logger)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")

	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done.
func serveNgrok(ctx context.Context, cfg config.Config, handler http.Handler, logger *zap.Logger) {
	logger.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.Info("using custom ngrok domain", zap.String("domain", cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	logger.Info("ngrok tunnel established", zap.String("url", tun.URL()))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}
