package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/utxolens/soprx/pkg/db/models"
)

// initStageRuns creates the stage_runs checkpoint table. One row per
// (run_date, stage); re-marking a stage replaces the row.
func (db *DB) initStageRuns(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			%s
		) ENGINE = ReplacingMergeTree(completed_at)
		ORDER BY (run_date, stage)
	`, db.Name, models.StageRunTableName, models.ColumnsToSchemaSQL(models.StageRunColumns))
	return db.Exec(ctx, query)
}

// MarkStage records the successful commit of a stage for a date.
func (db *DB) MarkStage(ctx context.Context, date time.Time, stage, detail string) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."%s" (run_date, stage, completed_at, detail)
		VALUES (?, ?, ?, ?)
	`, db.Name, models.StageRunTableName)
	if err := db.Exec(ctx, query, date, stage, time.Now().UTC(), detail); err != nil {
		return fmt.Errorf("mark stage %s for %s: %w", stage, date.Format("2006-01-02"), err)
	}
	return nil
}

// StageCompleted reports whether the stage has committed for the date.
func (db *DB) StageCompleted(ctx context.Context, date time.Time, stage string) (bool, error) {
	query := fmt.Sprintf(
		`SELECT count() FROM "%s"."%s" FINAL WHERE run_date = toDate(?) AND stage = ?`,
		db.Name, models.StageRunTableName,
	)
	var count uint64
	if err := db.QueryRow(ctx, query, date, stage).Scan(&count); err != nil {
		return false, fmt.Errorf("check stage %s for %s: %w", stage, date.Format("2006-01-02"), err)
	}
	return count > 0, nil
}
