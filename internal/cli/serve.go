package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"history-quiz/internal/app"
	"history-quiz/internal/config"
	"history-quiz/internal/infra/memory"
	redisinfra "history-quiz/internal/infra/redis"
	"history-quiz/internal/metrics"
	transport "history-quiz/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the websocket server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	banks, err := b.bankRepository(cfg)
	if err != nil {
		return err
	}
	if _, err := loadBank(ctx, banks, cfg.Quiz.Bank); err != nil {
		return err
	}

	var store app.SessionRepository
	if b.redis != nil {
		store = redisinfra.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		store = memory.NewSessionStore()
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)
	service := app.NewQuizService(store, banks,
		app.WithCountdown(cfg.Quiz.Countdown),
		app.WithObserver(recorder),
	)
	wsHandler := transport.NewWSHandler(service, cfg.Quiz.Bank)
	router := transport.NewRouter(service, wsHandler, registry)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handlers.LoggingHandler(os.Stderr, router),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		glog.Infof("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		glog.Info("shutting down server...")
	case <-ctx.Done():
		glog.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
