package backfill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/silver"
)

// RunStatus is the lifecycle state of a backfill run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// maxListedFailures caps how many failed dates the summary log spells out.
const maxListedFailures = 30

// Run identifies one invocation of Runner.Run.
type Run struct {
	ID    string       `json:"run_id"`
	Start gameday.Date `json:"-"`
	End   gameday.Date `json:"-"`
	Total int          `json:"total_dates"`
}

// Summary is the aggregate outcome of a run.
type Summary struct {
	RunID       string         `json:"run_id"`
	Start       string         `json:"start_date"`
	End         string         `json:"end_date"`
	Status      RunStatus      `json:"status"`
	Total       int            `json:"total_dates"`
	Processed   int            `json:"processed"`
	Skipped     int            `json:"skipped"`
	Failed      int            `json:"failed"`
	FailedDates []string       `json:"failed_dates"`
	Validation  silver.Summary `json:"validation"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
}

// Copy returns a deep copy to prevent external mutation.
func (s *Summary) Copy() *Summary {
	if s == nil {
		return nil
	}
	cpy := *s
	cpy.FailedDates = append([]string(nil), s.FailedDates...)
	return &cpy
}

// FailedDatesPreview renders at most the first 30 failed dates, then "and N more".
func (s *Summary) FailedDatesPreview() string {
	if len(s.FailedDates) == 0 {
		return ""
	}
	if len(s.FailedDates) <= maxListedFailures {
		return strings.Join(s.FailedDates, ", ")
	}
	return fmt.Sprintf("%s ... and %d more",
		strings.Join(s.FailedDates[:maxListedFailures], ", "), len(s.FailedDates)-maxListedFailures)
}

// Reporter receives lifecycle callbacks from the runner. Implementations must not block for long;
// the context may already be cancelled when OnRunComplete fires.
type Reporter interface {
	OnRunStart(ctx context.Context, run Run)
	OnDateStart(ctx context.Context, date gameday.Date, index, total int)
	OnDateSkipped(ctx context.Context, date gameday.Date)
	OnDateComplete(ctx context.Context, date gameday.Date, attempts int)
	OnDateFailed(ctx context.Context, date gameday.Date, err error)
	OnCooldown(ctx context.Context, consecutiveFailures int, pause time.Duration)
	OnRunComplete(ctx context.Context, summary *Summary)
}

// MultiReporter fans callbacks out to every non-nil reporter, in order.
type MultiReporter []Reporter

func (m MultiReporter) OnRunStart(ctx context.Context, run Run) {
	for _, r := range m {
		if r != nil {
			r.OnRunStart(ctx, run)
		}
	}
}

func (m MultiReporter) OnDateStart(ctx context.Context, date gameday.Date, index, total int) {
	for _, r := range m {
		if r != nil {
			r.OnDateStart(ctx, date, index, total)
		}
	}
}

func (m MultiReporter) OnDateSkipped(ctx context.Context, date gameday.Date) {
	for _, r := range m {
		if r != nil {
			r.OnDateSkipped(ctx, date)
		}
	}
}

func (m MultiReporter) OnDateComplete(ctx context.Context, date gameday.Date, attempts int) {
	for _, r := range m {
		if r != nil {
			r.OnDateComplete(ctx, date, attempts)
		}
	}
}

func (m MultiReporter) OnDateFailed(ctx context.Context, date gameday.Date, err error) {
	for _, r := range m {
		if r != nil {
			r.OnDateFailed(ctx, date, err)
		}
	}
}

func (m MultiReporter) OnCooldown(ctx context.Context, consecutiveFailures int, pause time.Duration) {
	for _, r := range m {
		if r != nil {
			r.OnCooldown(ctx, consecutiveFailures, pause)
		}
	}
}

func (m MultiReporter) OnRunComplete(ctx context.Context, summary *Summary) {
	for _, r := range m {
		if r != nil {
			r.OnRunComplete(ctx, summary.Copy())
		}
	}
}
