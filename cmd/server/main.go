package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/racekeeper/internal/command"
	"github.com/rpggio/racekeeper/internal/config"
	"github.com/rpggio/racekeeper/internal/domain/activity"
	"github.com/rpggio/racekeeper/internal/domain/definition"
	"github.com/rpggio/racekeeper/internal/domain/race"
	"github.com/rpggio/racekeeper/internal/domain/stats"
	"github.com/rpggio/racekeeper/internal/mcp"
	"github.com/rpggio/racekeeper/internal/notify"
	"github.com/rpggio/racekeeper/internal/player"
	"github.com/rpggio/racekeeper/internal/repository"
	"github.com/rpggio/racekeeper/internal/storage"
	"github.com/rpggio/racekeeper/internal/timer"
	"github.com/rpggio/racekeeper/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}
	backend, err := storage.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DB.Driver, err)
	}
	defer backend.Close()
	logger.Info("storage ready", "driver", backend.Driver, "path", cfg.DB.Path)

	if key := cfg.Auth.BootstrapKey; key != "" {
		err := backend.APIKeys.CreateKey(ctx, repository.HashAPIKey(key), cfg.Auth.BootstrapOperator, "bootstrap")
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("register bootstrap key: %w", err)
		}
	}

	activitySvc := activity.NewService(backend.Activity, logger)
	definitionSvc := definition.NewService(backend.Definitions, activitySvc, logger)
	statsSvc := stats.NewService(backend.Stats, logger)
	if err := definitionSvc.Load(ctx); err != nil {
		return err
	}
	if err := statsSvc.Load(ctx); err != nil {
		return err
	}
	defer flush(logger, definitionSvc, statsSvc)

	players := player.NewRegistry()
	gateway := &notify.Deferred{}
	raceSvc := race.NewService(race.Deps{
		Definitions: definitionSvc,
		Wins:        statsSvc,
		Activity:    activitySvc,
		Gateway:     gateway,
		Players:     players,
		Timers:      timer.Wall{},
		Logger:      logger,
	}, race.Timing{
		MinWait:   cfg.Race.MinWait(),
		AutoStart: cfg.Race.AutoStart(),
	})
	dispatcher := command.NewDispatcher(definitionSvc, raceSvc, statsSvc, players, logger)

	hub := transport.NewHub(transport.HubConfig{
		Commands: dispatcher,
		Races:    raceSvc,
		Presence: players,
		Logger:   logger,
	})
	defer hub.Close()
	gateway.Bind(notify.Multi{notify.NewLogGateway(logger), hub})

	services := mcp.Services{
		Definitions: definitionSvc,
		Races:       raceSvc,
		Stats:       statsSvc,
		Activity:    activitySvc,
		Commands:    dispatcher,
		Players:     players,
	}
	resolver := &repository.KeyResolver{Keys: backend.APIKeys}
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      resolver,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(logger, mcpServer)
	}

	auth := transport.StaticOperator(mcp.DefaultOperator)
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(resolver)
	}
	router := transport.NewRouter(transport.RouterOptions{
		Handler: mcp.NewHandler(services, logger),
		Hub:     hub,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		),
		Auth:   auth,
		Logger: logger,
	})
	runHTTPMode(logger, router, cfg.Server.Host, cfg.Server.Port)
	return nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run blocks until stdin closes or the context is cancelled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, handler http.Handler, host string, port int) {
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	waitForShutdown(logger, httpServer, serveErr)
}

type flusher interface {
	Flush(ctx context.Context) error
}

// flush persists in-memory state on the way out.
func flush(logger *slog.Logger, services ...flusher) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, svc := range services {
		if err := svc.Flush(ctx); err != nil {
			logger.Error("flush failed", "error", err)
		}
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, serveErr <-chan error) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serveErr:
		logger.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
