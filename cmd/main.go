package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"failly/auth"
	"failly/domain/event"
	"failly/infrastructure/httpapi"
	"failly/infrastructure/ws"
	"failly/moderation"
	"failly/observability"
	"failly/repositories"
	"failly/runtime"
	"failly/runtime/workers"
	"failly/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close included)
// executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & moderation
	userRepository := repositories.NewUserRepository(db, log)
	postRepository := repositories.NewPostRepository(db, log, config.LimitPosts)

	censoredChar, err := characterRune(config.CensoredChar)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(censoredWords(config.CensoredWords), censoredChar)
	if err != nil {
		return fmt.Errorf("building moderator: %w", err)
	}

	// 4. Engine, monitoring & supervision
	telemetryChan := make(chan event.Telemetry, config.BufferSize)
	engine := runtime.NewEngine(log, userRepository, moderator, telemetryChan)
	monitoring := observability.NewMonitoringManager(log)

	supervisor := workers.NewSupervisor(log, telemetryChan, config.RestartInterval)
	supervisor.Add(
		workers.NewTelemetryWorker(log, telemetryChan, []event.Handler{monitoring}),
		workers.NewReporterWorker(log, monitoring, engine, config.ReportInterval),
	)

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go supervisor.Run(ctx)

	// 6. HTTP & websocket surface
	tokens := auth.NewTokenManager(config.JwtSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens, log)
	postService := services.NewPostService(postRepository, engine, log)

	wsServer := ws.NewServer(log, engine, config.SessionBufferSize)
	apiServer := httpapi.NewServer(log, authService, postService, tokens, engine, monitoring)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(apiServer.Router(wsServer))

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handler}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	supervisor.Stop()
	return nil
}

func censoredWords(raw string) []string {
	if raw == "" {
		return nil
	}
	var words []string
	for _, w := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(w); trimmed != "" {
			words = append(words, trimmed)
		}
	}
	return words
}

func characterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CENSORED_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
