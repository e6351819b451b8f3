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

	"github.com/rolling-scopes/rsschool-tasks-backend/internal/api"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/config"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/lifecycle"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/stats"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := cfg.NewLogger()

	ctx := context.Background()
	db, closer, err := database.Open(ctx, cfg.StoreOptions())
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Errorf("db close: %v", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	manager := lifecycle.NewManager(logger, db, statsUpdater)

	srv := api.NewTasksApp(mux, logger, db, manager, statsUpdater, cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Infof("received signal: %s", sig)
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server: %v", err)
		}
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Errorf("HTTP server shutdown: %v", err)
		return
	}

	logger.Info("shutdown complete")
}
