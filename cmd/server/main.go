package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/analysis"
	"github.com/rotor-modal/client/internal/api"
	"github.com/rotor-modal/client/internal/config"
	"github.com/rotor-modal/client/internal/history"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/results"
	"github.com/rotor-modal/client/internal/session"
	"github.com/rotor-modal/client/internal/storage"
	"github.com/rotor-modal/client/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "ModalClient.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Classification rules
	rules, err := results.LoadRules(cfg.Processing.ClassificationRules)
	if err != nil {
		fmt.Printf("Warning: failed to load classification rules, using defaults: %v\n", err)
		rules = results.DefaultRules()
	} else if cfg.Processing.ClassificationRules != "" {
		fmt.Printf("Classification rules loaded from %s\n", cfg.Processing.ClassificationRules)
	}
	interpreter := results.NewInterpreter(rules)

	client := analysis.NewClient(cfg.Backend.URL, cfg.Backend.Path, cfg.BackendTimeout())
	resultStore := results.NewStore()

	// Optional run history
	var historyStore *history.Store
	var historyReader api.HistoryReader
	if cfg.Storage.EnableHistory {
		historyStore, err = history.Open(cfg.Storage.HistoryDatabase)
		if err != nil {
			fmt.Printf("Warning: run history disabled: %v\n", err)
			historyStore = nil
		} else {
			historyReader = historyStore
		}
	}

	opts := []intake.Option{intake.WithTimeout(cfg.BackendTimeout())}
	if historyStore != nil {
		opts = append(opts, intake.WithCompletionHook(func(done intake.Completion) {
			run := history.NewRun(done.Displacement, done.Position, done.Result, interpreter, done.Duration)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := historyStore.Record(ctx, run); err != nil {
				fmt.Printf("[History] ERROR recording run: %v\n", err)
			}
		}))
	}

	// Initialize session manager
	sessionMgr := session.NewManager(fileStore, client, resultStore, opts...)
	sessionMgr.SetMaxSessions(cfg.Processing.MaxSessions)

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for range ticker.C {
			sessionMgr.CleanupOldSessions(cfg.SessionMaxAge())
		}
	}()

	renderer, err := web.NewRenderer()
	if err != nil {
		fmt.Printf("Failed to load templates: %v\n", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		Compression:      cfg.Processing.EnableCompression,
		CompressionLevel: cfg.Processing.CompressionLevel,
		BodyLimit:        cfg.Server.BodyLimit,
		CORS:             cfg.Server.EnableCORS,
		AllowOrigins:     cfg.Server.AllowOrigins,
	})

	deps := &api.Dependencies{
		Store:       fileStore,
		Sessions:    sessionMgr,
		Results:     resultStore,
		History:     historyReader,
		Interpreter: interpreter,
		Version:     Version,
		SessionAge:  cfg.SessionMaxAge(),
		WSMaxKB:     cfg.Advanced.WebSocketMaxMessageSize,
	}
	api.RegisterRoutes(e, api.NewHandlers(deps), deps)

	if err := web.RegisterStaticRoutes(e); err != nil {
		fmt.Printf("Warning: failed to register static routes: %v\n", err)
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	historyState := "disabled"
	if historyStore != nil {
		historyState = historyStore.Path()
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Rotor Modal Analysis Client                     ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Backend:   %-46s║\n", client.Endpoint)
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  History:   %-46s║\n", historyState)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
	fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Warning: shutdown: %v\n", err)
	}
	sessionMgr.Close()
	if historyStore != nil {
		historyStore.Close()
	}
}
