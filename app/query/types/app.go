package types

import (
	"context"
	"net/http"
	"time"

	"github.com/utxolens/soprx/pkg/db/metrics"
	"go.uber.org/zap"
)

type App struct {
	MetricsDB *metrics.DB
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
	// CacheTTL bounds how long range query results stay cached.
	CacheTTL time.Duration
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.MetricsDB.Close(); err != nil {
		a.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Failed to shutdown server", zap.Error(err))
	}
}
