// Command plume runs the automated content scheduling service: keyword
// ingestion, topic uniqueness, schedule automation and on-demand generation
// over HTTP, with an optional MCP tool surface.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/veltaire/plume/autopilot"
	"github.com/veltaire/plume/keywords"
	"github.com/veltaire/plume/observability"
	"github.com/veltaire/plume/publish"
	"github.com/veltaire/plume/ratelimit"
	"github.com/veltaire/plume/store"
	"github.com/veltaire/plume/textgen"
	"github.com/veltaire/plume/topic"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging. Stdio MCP owns stdout, so logs move to stderr there.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logOut := os.Stdout
	if cfg.MCPTransport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Database.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("create db dir", "error", err)
			os.Exit(1)
		}
	}
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA foreign_keys=ON")
	if err := store.ApplySchema(db); err != nil {
		slog.Error("apply schema", "error", err)
		os.Exit(1)
	}
	if err := observability.ApplySchema(db); err != nil {
		slog.Error("apply event schema", "error", err)
		os.Exit(1)
	}

	// Wiring.
	st := store.NewStore(db)
	events := observability.NewEventLogger(db, logger)
	agg := keywords.NewAggregator(st, keywords.Config{}, logger)
	topics := topic.NewGenerator(st, topic.Constraints{}, logger)
	gen := textgen.NewOpenAI(textgen.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
	}, logger)
	publisher := publish.NewClient(publish.ClientConfig{
		BaseURL: cfg.BlogAPIURL,
		Token:   cfg.BlogAPIToken,
	}, logger)
	svc := autopilot.New(st, st, agg, topics, gen, publisher,
		autopilot.Config{
			Defaults: autopilot.Defaults{
				Timezone:   cfg.DefaultTimezone,
				TargetDay:  time.Weekday(cfg.DefaultTargetDay),
				TargetHour: cfg.DefaultHour,
			},
			StoreURL: cfg.StoreURL,
		}, logger,
		autopilot.WithEventLogger(events))
	limiter := ratelimit.New(ratelimit.Config{
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow,
	}, logger)
	limiter.StartSweeper(ctx.Done())

	// Event log retention.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := events.Cleanup(ctx, cfg.EventRetention); err != nil {
					slog.Warn("event cleanup", "error", err)
				} else if n > 0 {
					slog.Info("event cleanup", "removed", n)
				}
			}
		}
	}()

	// Optional MCP over stdio.
	if cfg.MCPTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "plume",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("mcp starting", "transport", "stdio")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp", "error", err)
			}
		}()
	}

	// Router.
	a := &api{svc: svc, st: st, keywords: agg, topics: topics, limiter: limiter, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute, // generation calls block on the model
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
