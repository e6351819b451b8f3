package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/api"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/config"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/database"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/lambda"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/lifecycle"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/stats"
)

// Configuration comes from TASKS_* environment variables; the function
// receives no command line.
func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := cfg.NewLogger()

	db, closer, err := database.Open(context.Background(), cfg.StoreOptions())
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	// the connection is reused across invocations of a warm environment
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Errorf("db close: %v", err)
		}
	}()

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(nil)
	manager := lifecycle.NewManager(logger, db, statsUpdater)
	app := api.NewTasksApp(mux, logger, db, manager, statsUpdater, cfg)

	awslambda.Start(lambda.NewAdapter(app.Handler(), logger).Handle)
}
