// Package rebuild is the operator CLI for bulk builds: full creation and
// spend index rebuilds, metric history backfills, and CSV price loads.
package rebuild

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/utxolens/soprx/pkg/db/metrics"
	"github.com/utxolens/soprx/pkg/db/models"
	"github.com/utxolens/soprx/pkg/logging"
	"github.com/utxolens/soprx/pkg/rebuild"
	"github.com/utxolens/soprx/pkg/sopr"
	"github.com/utxolens/soprx/pkg/utils"
)

type App struct {
	Logger *zap.Logger
	DB     *metrics.DB
	Engine *rebuild.Engine

	target string
	start  time.Time
	dust   uint64
	file   string
}

// Initialize parses flags, connects to the database and returns the app.
func Initialize(ctx context.Context, args []string) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	fs := flag.NewFlagSet("rebuild", flag.ExitOnError)
	target := fs.String("target", "", "what to rebuild: creation, spend, metric or prices")
	startStr := fs.String("start", utils.Env("UTXO_START_DATE", "2019-01-01"), "ledger scan start date (YYYY-MM-DD)")
	dust := fs.Uint64("dust", utils.EnvUint64("DUST_THRESHOLD", sopr.DefaultDustThreshold), "dust threshold in base units, outputs at or below are skipped")
	workers := fs.Int("workers", 4, "concurrent month buckets")
	file := fs.String("file", "", "CSV file for -target=prices (date,open,high,low,close,volume)")
	if err := fs.Parse(args); err != nil {
		logger.Fatal("Unable to parse flags", zap.Error(err))
	}

	if *target == "" {
		fs.Usage()
		logger.Fatal("Missing -target")
	}

	start, err := time.Parse(sopr.DateLayout, *startStr)
	if err != nil {
		logger.Fatal("Invalid -start date", zap.String("start", *startStr), zap.Error(err))
	}

	metricsDb, dbErr := metrics.New(ctx, logger)
	if dbErr != nil {
		logger.Fatal("Unable to initialize metrics database", zap.Error(dbErr))
	}

	if err := metricsDb.InitializeDB(ctx); err != nil {
		logger.Fatal("Unable to initialize metrics database tables", zap.Error(err))
	}

	return &App{
		Logger: logger,
		DB:     metricsDb,
		Engine: &rebuild.Engine{
			Logger:       logger,
			DB:           metricsDb,
			Workers:      *workers,
			LookbackDays: utils.EnvInt("LOOKBACK_DAYS", sopr.DefaultLookbackDays),
		},
		target: *target,
		start:  start,
		dust:   *dust,
		file:   *file,
	}
}

// Run executes the selected rebuild and returns when it completes.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	switch a.target {
	case "creation":
		return a.Engine.RebuildCreationIndex(ctx, a.start, a.dust)
	case "spend":
		return a.Engine.RebuildSpendIndex(ctx, a.start)
	case "metric":
		return a.Engine.RebuildDailyMetrics(ctx)
	case "prices":
		return a.loadPrices(ctx)
	default:
		return fmt.Errorf("unknown target %q, want creation, spend, metric or prices", a.target)
	}
}

// loadPrices bulk-loads a daily OHLCV CSV into the price table. Re-loading
// the same file is harmless; the table keeps one row per date.
func (a *App) loadPrices(ctx context.Context) error {
	if a.file == "" {
		return fmt.Errorf("-target=prices requires -file")
	}

	f, err := os.Open(a.file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	rows, err := parsePriceCSV(f)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no price rows in %s", a.file)
	}

	if err := a.DB.InsertPrices(ctx, rows); err != nil {
		return err
	}

	a.Logger.Info("Price load complete",
		zap.String("file", a.file),
		zap.Int("rows", len(rows)),
		zap.Time("first", rows[0].Date),
		zap.Time("last", rows[len(rows)-1].Date))
	return nil
}

// parsePriceCSV reads date,open,high,low,close,volume rows. A header line is
// detected by a non-parseable first field and skipped.
func parsePriceCSV(r io.Reader) ([]*models.PriceObservation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	var rows []*models.PriceObservation
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		date, err := time.Parse(sopr.DateLayout, record[0])
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid date %q", line, record[0])
		}

		fields := [5]float64{}
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", line, record[i+1])
			}
			fields[i] = v
		}

		rows = append(rows, &models.PriceObservation{
			Date:   date,
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		})
	}
	return rows, nil
}
