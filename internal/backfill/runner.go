package backfill

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/fortuna/courtlake/internal/client"
	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/silver"
)

const (
	progressEvery = 50
	skipLogEvery  = 100
)

// Pipeline is the per-date work the runner drives.
type Pipeline interface {
	InitSchema(ctx context.Context) error
	RefreshDimensions(ctx context.Context) error
	RunDate(ctx context.Context, date gameday.Date) error
	IsDone(date gameday.Date) (bool, error)
}

// Settings tunes the date-level retry loop.
type Settings struct {
	MaxAttempts   int
	BaseBackoff   time.Duration
	RetryJitter   time.Duration
	Cooldown      time.Duration
	CooldownAfter int
	DelayMin      time.Duration
	DelayMax      time.Duration

	// Force re-runs dates that are already done.
	Force bool
	// LoadDims refreshes every dimension before the first date.
	LoadDims bool
}

// DefaultSettings mirrors the provider's observed tolerance.
func DefaultSettings() Settings {
	return Settings{
		MaxAttempts:   5,
		BaseBackoff:   30 * time.Second,
		RetryJitter:   5 * time.Second,
		Cooldown:      120 * time.Second,
		CooldownAfter: 3,
		DelayMin:      time.Second,
		DelayMax:      2500 * time.Millisecond,
	}
}

// Runner walks a date range one date at a time.
type Runner struct {
	pipeline Pipeline
	settings Settings
	report   *silver.Report
	reporter Reporter
	log      *logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
	rand  func() float64
	newID func() string
}

type Option func(*Runner)

// WithReporter attaches lifecycle callbacks.
func WithReporter(r Reporter) Option {
	return func(rn *Runner) { rn.reporter = r }
}

// WithSleep replaces the context-aware sleep, for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(rn *Runner) { rn.sleep = fn }
}

// WithRand replaces the uniform [0,1) source used for jitter and pacing.
func WithRand(fn func() float64) Option {
	return func(rn *Runner) { rn.rand = fn }
}

// NewRunner builds a runner. report is the run-scoped validation accumulator; it is
// logged and reset at the end of every run.
func NewRunner(p Pipeline, settings Settings, report *silver.Report, log *logger.Logger, opts ...Option) *Runner {
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 1
	}
	if settings.CooldownAfter <= 0 {
		settings.CooldownAfter = DefaultSettings().CooldownAfter
	}
	r := &Runner{
		pipeline: p,
		settings: settings,
		report:   report,
		reporter: MultiReporter(nil),
		log:      logger.OrNop(log).Component("backfill"),
		sleep:    client.Sleep,
		rand:     rand.Float64,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RetryWait is the pause before attempt n (n >= 2): base·2^(n-2) + u·jitter.
func RetryWait(s Settings, attempt int, u float64) time.Duration {
	if attempt < 2 {
		return 0
	}
	return s.BaseBackoff*time.Duration(1<<(attempt-2)) + time.Duration(u*float64(s.RetryJitter))
}

// InterDateDelay is a uniform pick from [DelayMin, DelayMax].
func InterDateDelay(s Settings, u float64) time.Duration {
	if s.DelayMax <= s.DelayMin {
		return s.DelayMin
	}
	return s.DelayMin + time.Duration(u*float64(s.DelayMax-s.DelayMin))
}

// Run processes every date in [start, end]. Per-date failures are recorded, never returned;
// the error is non-nil only for a failed setup step or cancellation, in which case the
// summary covers the dates handled so far.
func (r *Runner) Run(ctx context.Context, start, end gameday.Date) (*Summary, error) {
	dates := gameday.Range(start, end)
	run := Run{ID: r.newID(), Start: dates[0], End: dates[len(dates)-1], Total: len(dates)}
	summary := &Summary{
		RunID:       run.ID,
		Start:       run.Start.String(),
		End:         run.End.String(),
		Status:      RunStatusRunning,
		Total:       run.Total,
		FailedDates: []string{},
		StartedAt:   time.Now().UTC(),
	}

	log := r.log.With("run_id", run.ID)
	log.Info("backfill starting", "start", summary.Start, "end", summary.End, "dates", run.Total,
		"force", r.settings.Force, "dims", r.settings.LoadDims)
	// The run log lives in the warehouse, so reporters hear about the run once the schema exists.
	initErr := r.pipeline.InitSchema(ctx)
	r.reporter.OnRunStart(ctx, run)
	if initErr != nil {
		return r.finish(ctx, log, summary, RunStatusFailed), fmt.Errorf("init schema: %w", initErr)
	}
	if r.settings.LoadDims {
		if err := r.pipeline.RefreshDimensions(ctx); err != nil {
			return r.finish(ctx, log, summary, statusFor(ctx)), fmt.Errorf("refresh dimensions: %w", err)
		}
	}

	consecutive := 0
	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, log, summary, RunStatusCancelled), err
		}

		if r.shouldSkip(log, date) {
			summary.Skipped++
			r.reporter.OnDateSkipped(ctx, date)
			if summary.Skipped%skipLogEvery == 0 {
				log.Info("skipping already-processed dates", "position", i+1, "total", run.Total, "skipped", summary.Skipped)
			}
		} else {
			r.reporter.OnDateStart(ctx, date, i, run.Total)
			log.Info("processing date", "date", date.String(), "position", i+1, "total", run.Total)

			attempts, err := r.runWithRetry(ctx, log, date)
			if etlerr.IsCancellation(err) || ctx.Err() != nil {
				return r.finish(ctx, log, summary, RunStatusCancelled), ctx.Err()
			}

			if err == nil {
				summary.Processed++
				consecutive = 0
				r.reporter.OnDateComplete(ctx, date, attempts)
				if summary.Processed%progressEvery == 0 {
					log.Info("backfill progress",
						"processed", summary.Processed,
						"skipped", summary.Skipped,
						"failed", summary.Failed,
						"position", i+1,
						"total", run.Total,
					)
				}
			} else {
				summary.Failed++
				summary.FailedDates = append(summary.FailedDates, date.String())
				consecutive++
				log.Error("giving up on date", "date", date.String(), "attempts", attempts, "error", err)
				r.reporter.OnDateFailed(ctx, date, err)

				if consecutive >= r.settings.CooldownAfter {
					log.Warn("consecutive failures, provider may be rate-limiting; cooling down",
						"consecutive_failures", consecutive, "pause", r.settings.Cooldown)
					r.reporter.OnCooldown(ctx, consecutive, r.settings.Cooldown)
					if err := r.sleep(ctx, r.settings.Cooldown); err != nil {
						return r.finish(ctx, log, summary, RunStatusCancelled), err
					}
				}
			}
		}

		if i < len(dates)-1 {
			if err := r.sleep(ctx, InterDateDelay(r.settings, r.rand())); err != nil {
				return r.finish(ctx, log, summary, RunStatusCancelled), err
			}
		}
	}

	return r.finish(ctx, log, summary, RunStatusCompleted), nil
}

func (r *Runner) shouldSkip(log *logger.Logger, date gameday.Date) bool {
	if r.settings.Force {
		return false
	}
	done, err := r.pipeline.IsDone(date)
	if err != nil {
		log.Warn("completion check failed, processing date", "date", date.String(), "error", err)
		return false
	}
	return done
}

// runWithRetry returns the number of attempts made and the last error.
func (r *Runner) runWithRetry(ctx context.Context, log *logger.Logger, date gameday.Date) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= r.settings.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := RetryWait(r.settings, attempt, r.rand())
			log.Warn("retrying date",
				"date", date.String(),
				"attempt", attempt,
				"max_attempts", r.settings.MaxAttempts,
				"class", etlerr.Classify(lastErr).String(),
				"wait", wait,
				"error", lastErr,
			)
			if err := r.sleep(ctx, wait); err != nil {
				return attempt - 1, err
			}
		}

		err := r.pipeline.RunDate(ctx, date)
		if err == nil {
			return attempt, nil
		}
		if etlerr.IsCancellation(err) || ctx.Err() != nil {
			return attempt, err
		}
		lastErr = err
	}
	return r.settings.MaxAttempts, etlerr.New(etlerr.Fatal, "backfill "+date.String(),
		fmt.Errorf("%w after %d attempts: %w", etlerr.ErrExhaustedRetries, r.settings.MaxAttempts, lastErr))
}

func (r *Runner) finish(ctx context.Context, log *logger.Logger, summary *Summary, status RunStatus) *Summary {
	summary.Status = status
	summary.FinishedAt = time.Now().UTC()
	summary.Validation = r.report.Summary()

	log.Info("backfill finished",
		"status", string(status),
		"total", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"elapsed", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second),
	)
	if preview := summary.FailedDatesPreview(); preview != "" {
		log.Warn("failed dates", "dates", preview)
	}

	r.report.Log(log)
	r.report.Reset()

	r.reporter.OnRunComplete(ctx, summary)
	return summary
}

func statusFor(ctx context.Context) RunStatus {
	if ctx.Err() != nil {
		return RunStatusCancelled
	}
	return RunStatusFailed
}
