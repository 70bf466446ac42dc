package rest

import (
	"context"
	"sync"
	"time"

	"github.com/fortuna/courtlake/internal/backfill"
	"github.com/fortuna/courtlake/internal/gameday"
)

// States reported by StatusTracker.
const (
	StateIdle        = "idle"
	StateRunning     = "running"
	StateCoolingDown = "cooling_down"
)

// Status is a point-in-time view of the backfill.
type Status struct {
	State         string            `json:"state"`
	RunID         string            `json:"run_id,omitempty"`
	Start         string            `json:"start_date,omitempty"`
	End           string            `json:"end_date,omitempty"`
	Total         int               `json:"total_dates"`
	Position      int               `json:"position"`
	CurrentDate   string            `json:"current_date,omitempty"`
	Processed     int               `json:"processed"`
	Skipped       int               `json:"skipped"`
	Failed        int               `json:"failed"`
	LastError     string            `json:"last_error,omitempty"`
	CooldownUntil *time.Time        `json:"cooldown_until,omitempty"`
	StartedAt     *time.Time        `json:"started_at,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
	LastRun       *backfill.Summary `json:"last_run,omitempty"`
}

// StatusTracker keeps the live status of the current run in memory. It implements
// backfill.Reporter.
type StatusTracker struct {
	mu     sync.RWMutex
	status Status
	now    func() time.Time
}

func NewStatusTracker() *StatusTracker {
	t := &StatusTracker{now: time.Now}
	t.status = Status{State: StateIdle, UpdatedAt: t.now().UTC()}
	return t
}

// Snapshot returns a copy of the current status.
func (t *StatusTracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.status
	if s.LastRun != nil {
		s.LastRun = s.LastRun.Copy()
	}
	return s
}

func (t *StatusTracker) update(fn func(s *Status)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.status)
	t.status.UpdatedAt = t.now().UTC()
}

func (t *StatusTracker) OnRunStart(_ context.Context, run backfill.Run) {
	t.update(func(s *Status) {
		started := t.now().UTC()
		*s = Status{
			State:     StateRunning,
			RunID:     run.ID,
			Start:     run.Start.String(),
			End:       run.End.String(),
			Total:     run.Total,
			StartedAt: &started,
			LastRun:   s.LastRun,
		}
	})
}

func (t *StatusTracker) OnDateStart(_ context.Context, date gameday.Date, index, _ int) {
	t.update(func(s *Status) {
		s.State = StateRunning
		s.CooldownUntil = nil
		s.Position = index + 1
		s.CurrentDate = date.String()
	})
}

func (t *StatusTracker) OnDateSkipped(_ context.Context, _ gameday.Date) {
	t.update(func(s *Status) {
		s.Skipped++
		s.Position = s.Processed + s.Skipped + s.Failed
	})
}

func (t *StatusTracker) OnDateComplete(_ context.Context, _ gameday.Date, _ int) {
	t.update(func(s *Status) {
		s.Processed++
		s.CurrentDate = ""
	})
}

func (t *StatusTracker) OnDateFailed(_ context.Context, date gameday.Date, err error) {
	t.update(func(s *Status) {
		s.Failed++
		s.CurrentDate = ""
		s.LastError = date.String() + ": " + err.Error()
	})
}

func (t *StatusTracker) OnCooldown(_ context.Context, _ int, pause time.Duration) {
	t.update(func(s *Status) {
		until := t.now().Add(pause).UTC()
		s.State = StateCoolingDown
		s.CooldownUntil = &until
	})
}

func (t *StatusTracker) OnRunComplete(_ context.Context, summary *backfill.Summary) {
	t.update(func(s *Status) {
		s.State = string(summary.Status)
		s.CurrentDate = ""
		s.CooldownUntil = nil
		s.Processed = summary.Processed
		s.Skipped = summary.Skipped
		s.Failed = summary.Failed
		s.LastRun = summary.Copy()
	})
}
