package query

import (
	"context"
	"time"

	"github.com/utxolens/soprx/app/query/types"
	"github.com/utxolens/soprx/pkg/db/metrics"
	"github.com/utxolens/soprx/pkg/logging"
	"github.com/utxolens/soprx/pkg/utils"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	metricsDb, dbErr := metrics.New(ctx, logger)
	if dbErr != nil {
		logger.Fatal("Unable to initialize metrics database", zap.Error(dbErr))
	}

	if err := metricsDb.InitializeDB(ctx); err != nil {
		logger.Fatal("Unable to initialize metrics database tables", zap.Error(err))
	}

	cacheTTL := time.Duration(utils.EnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second

	return &types.App{
		MetricsDB: metricsDb,
		Logger:    logger,
		CacheTTL:  cacheTTL,
	}
}
