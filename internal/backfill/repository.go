package backfill

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/store"
)

const repositoryTimeout = 5 * time.Second

// Repository persists backfill runs in etl_backfill_runs. It doubles as a Reporter.
type Repository struct {
	db  *store.Database
	log *logger.Logger
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database, log *logger.Logger) *Repository {
	return &Repository{db: db, log: logger.OrNop(log).Component("backfill.runlog")}
}

// StartRun inserts the row for a new run.
func (r *Repository) StartRun(ctx context.Context, run Run) error {
	query := `
		INSERT INTO etl_backfill_runs (run_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id) DO NOTHING
	`
	if _, err := r.db.DB().ExecContext(ctx, query,
		run.ID, run.Start.String(), run.End.String(), string(RunStatusRunning),
	); err != nil {
		return fmt.Errorf("insert backfill run: %w", err)
	}
	return nil
}

// FinishRun records the final counts. A run that never started is inserted.
func (r *Repository) FinishRun(ctx context.Context, s *Summary) error {
	query := `
		INSERT INTO etl_backfill_runs (
			run_id, start_date, end_date, status, processed, skipped, failed, failed_dates,
			validation_checked, validation_failed, started_at, finished_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			processed = EXCLUDED.processed,
			skipped = EXCLUDED.skipped,
			failed = EXCLUDED.failed,
			failed_dates = EXCLUDED.failed_dates,
			validation_checked = EXCLUDED.validation_checked,
			validation_failed = EXCLUDED.validation_failed,
			finished_at = EXCLUDED.finished_at
	`
	failed := s.FailedDates
	if failed == nil {
		failed = []string{}
	}
	if _, err := r.db.DB().ExecContext(ctx, query,
		s.RunID, s.Start, s.End, string(s.Status), s.Processed, s.Skipped, s.Failed, pq.StringArray(failed),
		s.Validation.Checked, s.Validation.Failed, s.StartedAt, s.FinishedAt,
	); err != nil {
		return fmt.Errorf("record backfill run: %w", err)
	}
	return nil
}

// ListRecentRuns returns the most recent runs, newest first.
func (r *Repository) ListRecentRuns(ctx context.Context, limit int) ([]*Summary, error) {
	query := `
		SELECT run_id, start_date, end_date, status, processed, skipped, failed, failed_dates,
			validation_checked, validation_failed, started_at, finished_at
		FROM etl_backfill_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list backfill runs: %w", err)
	}
	defer rows.Close()

	var runs []*Summary
	for rows.Next() {
		var (
			s          Summary
			status     string
			start, end time.Time
			failed     pq.StringArray
			finished   sql.NullTime
		)
		if err := rows.Scan(&s.RunID, &start, &end, &status, &s.Processed, &s.Skipped, &s.Failed, &failed,
			&s.Validation.Checked, &s.Validation.Failed, &s.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan backfill run: %w", err)
		}
		s.Status = RunStatus(status)
		s.Start = gameday.New(start).String()
		s.End = gameday.New(end).String()
		s.FailedDates = []string(failed)
		s.Validation.Passed = s.Validation.Checked - s.Validation.Failed
		if finished.Valid {
			s.FinishedAt = finished.Time
		}
		runs = append(runs, &s)
	}
	return runs, rows.Err()
}

func (r *Repository) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), repositoryTimeout)
}

func (r *Repository) OnRunStart(ctx context.Context, run Run) {
	ctx, cancel := r.detached(ctx)
	defer cancel()
	if err := r.StartRun(ctx, run); err != nil {
		r.log.Warn("run log unavailable", "run_id", run.ID, "error", err)
	}
}

func (r *Repository) OnRunComplete(ctx context.Context, s *Summary) {
	ctx, cancel := r.detached(ctx)
	defer cancel()
	if err := r.FinishRun(ctx, s); err != nil {
		r.log.Warn("run log unavailable", "run_id", s.RunID, "error", err)
	}
}

func (r *Repository) OnDateStart(context.Context, gameday.Date, int, int) {}
func (r *Repository) OnDateSkipped(context.Context, gameday.Date)         {}
func (r *Repository) OnDateComplete(context.Context, gameday.Date, int)   {}
func (r *Repository) OnDateFailed(context.Context, gameday.Date, error)   {}
func (r *Repository) OnCooldown(context.Context, int, time.Duration)      {}
