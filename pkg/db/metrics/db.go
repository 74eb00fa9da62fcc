// Package metrics owns the four derived tables of the aSOPR pipeline
// (creation index, spend index, price series, daily metric) plus the stage
// checkpoint table, all in one ClickHouse database. The ledger itself lives
// in a separate database and is only ever read through cross-database
// INSERT ... SELECT and join queries.
package metrics

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/clickhouse"
	"github.com/utxolens/soprx/pkg/utils"
)

// DB is the single writer for all tables in the metrics database.
type DB struct {
	clickhouse.Client
	Name     string
	LedgerDB string
}

// New connects to ClickHouse and ensures the metrics database exists.
// Callers run InitializeDB before first use.
func New(ctx context.Context, logger *zap.Logger) (*DB, error) {
	name := utils.Env("METRICS_DB", "soprx")
	ledger := utils.Env("LEDGER_DB", "ledger")

	client, err := clickhouse.New(ctx, logger, name)
	if err != nil {
		return nil, err
	}

	db := &DB{Client: client, Name: name, LedgerDB: ledger}

	if err := db.CreateDbIfNotExists(ctx, name); err != nil {
		return nil, fmt.Errorf("create metrics database: %w", err)
	}

	return db, nil
}

// InitializeDB creates all owned tables if they do not exist.
func (db *DB) InitializeDB(ctx context.Context) error {
	inits := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"utxo_index", db.initCreationIndex},
		{"spend_index", db.initSpendIndex},
		{"daily_prices", db.initDailyPrices},
		{"sopr_daily", db.initDailyMetrics},
		{"stage_runs", db.initStageRuns},
	}
	for _, init := range inits {
		if err := init.fn(ctx); err != nil {
			return fmt.Errorf("init %s: %w", init.name, err)
		}
	}
	return nil
}

// DatabaseName returns the metrics database name.
func (db *DB) DatabaseName() string { return db.Name }

// LedgerDatabase returns the external ledger database name.
func (db *DB) LedgerDatabase() string { return db.LedgerDB }
