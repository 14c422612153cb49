package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"fitstake/auth"
	"fitstake/infrastructure/httpapi"
	"fitstake/infrastructure/ws"
	"fitstake/moderation"
	"fitstake/observability"
	"fitstake/repositories"
	"fitstake/runtime"
	"fitstake/runtime/workers"
	"fitstake/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := observability.NewLogger(config.LogLevel)

	// 2. Database (BadgerDB) and search index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.SearchIndexPath))
	if err != nil {
		return exitRuntime, fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation wordlists (embedded)
	censored, err := runtime.LoadCensoredWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("wordlist loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(censored.Words, config.ModerationCharReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderator setup failed: %w", err)
	}
	log.Info("Moderation ready", "languages", censored.Languages, "words", len(censored.Words))

	// 4. Core components
	stats := observability.NewDispatchStats()
	registry := runtime.NewRegistry()
	notificationRepository := repositories.NewNotificationRepository(db, log, config.LimitNotifications)
	communityRepository := repositories.NewCommunityRepository(db, log)
	challengeRepository := repositories.NewChallengeRepository(db, log)
	searchRepository := repositories.NewSearchRepository(blugeWriter, log)
	dispatcher := runtime.NewDispatcher(log, registry, notificationRepository, stats)

	challengeService := services.NewChallengeService(log, challengeRepository, communityRepository, searchRepository, dispatcher, moderator)
	notificationService := services.NewNotificationService(notificationRepository)
	workoutService := services.NewWorkoutService(log)

	tokens := auth.NewTokenManager(config.JWTSecret, "fitstake", config.TokenDuration)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewHeartbeatWorker(log, registry, stats))
	go sup.Run(ctx)

	// 7. HTTP server (REST + websocket upgrade)
	wsHandler := ws.NewHandler(log, registry, tokens, workoutService, config.SendBufferSize)
	api := httpapi.NewServer(log, challengeService, notificationService, registry, stats, tokens)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.Router(wsHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return exitOK, nil
}
