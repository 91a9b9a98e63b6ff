package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/lychee-technology/indexsync"
	"github.com/lychee-technology/indexsync/factory"
	"github.com/lychee-technology/indexsync/internal"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP intake the host platform calls after each mutation.
type Server struct {
	observer indexsync.ChangeObserver
	health   func(ctx context.Context) error
	metrics  indexsync.MetricsConfig
	mux      *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(observer indexsync.ChangeObserver, health func(ctx context.Context) error, metrics indexsync.MetricsConfig) *Server {
	return &Server{
		observer: observer,
		health:   health,
		metrics:  metrics,
		mux:      http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc(mutationPrefix, s.handleMutation)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics.Enabled {
		s.mux.Handle(s.metrics.Path, promhttp.Handler())
	}
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	config := indexsync.DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if config, err = indexsync.LoadConfig(path); err != nil {
			sugar.Fatalf("failed to load config: %v", err)
		}
	}
	applyEnvOverrides(config)
	if err := config.Validate(); err != nil {
		sugar.Fatalf("invalid config: %v", err)
	}

	configured, err := newLogger(config.Logging)
	if err != nil {
		sugar.Fatalf("failed to build logger: %v", err)
	}
	defer configured.Sync()
	zap.ReplaceGlobals(configured)
	sugar = configured.Sugar()

	ctx := context.Background()
	pool, err := factory.NewPoolFromConfig(ctx, config.Database)
	if err != nil {
		sugar.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	bus := internal.NewEventBus(config.Dispatch.HistorySize)
	for _, channel := range []indexsync.Channel{indexsync.ChannelEntityUpdate, indexsync.ChannelAttributeUpdate} {
		if err := bus.Subscribe(channel, internal.NewLoggingEventHandler()); err != nil {
			sugar.Fatalf("failed to subscribe to %s: %v", channel, err)
		}
	}

	observer, err := factory.NewObserverWithConfig(config, pool, bus)
	if err != nil {
		sugar.Fatalf("failed to build change observer: %v", err)
	}

	health := func(ctx context.Context) error {
		return internal.PostgresHealthCheck(ctx, pool, config.Database.Timeout)
	}

	server := NewServer(observer, health, config.Metrics)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", fmt.Errorf("listen on %s: %w", port, err))
	}
}
