package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortuna/courtlake/internal/api/rest"
	"github.com/fortuna/courtlake/internal/backfill"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/publisher"
	"github.com/fortuna/courtlake/internal/store/repository"
)

var (
	backfillStart      string
	backfillEnd        string
	backfillSeason     int
	backfillForce      bool
	backfillDims       bool
	backfillStatusAddr string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Process a date range through bronze, silver and gold",
	Long: `Backfill walks every date in the range, skipping dates that are already done.
Each date is retried with exponential backoff; repeated failures trigger a cooldown.
Interrupting the command stops after the current step and prints the partial summary.`,
	Example: `  courtlake backfill --season 2023 --dims
  courtlake backfill --start 2024-01-01 --end 2024-01-31 --status-addr :8089`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := backfillRange(backfillSeason, backfillStart, backfillEnd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		e, err := newEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		runLog := backfill.NewRepository(e.db, e.log)
		reporters := backfill.MultiReporter{&logReporter{w: out}, runLog}

		var pub *publisher.RedisPublisher
		if e.cfg.RedisURL != "" {
			pub, err = publisher.NewRedisPublisher(e.cfg.RedisURL, e.log)
			if err != nil {
				e.log.Warn("event stream disabled", "error", err)
				pub = nil
			} else {
				defer pub.Close()
				reporters = append(reporters, pub)
			}
		}

		if backfillStatusAddr != "" {
			tracker := rest.NewStatusTracker()
			reporters = append(reporters, tracker)

			handler := rest.NewHandler(tracker, runLog, repository.NewSummaryRepository(e.db), e.db, e.log)
			if pub != nil {
				handler.SetLatestRuns(pub)
			}
			srv := rest.NewServer(backfillStatusAddr, handler, e.log)
			go func() {
				if err := srv.Start(); err != nil {
					e.log.Error("status server stopped", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
		}

		settings := backfill.Settings{
			MaxAttempts:   e.cfg.Backfill.MaxAttempts,
			BaseBackoff:   e.cfg.Backfill.BaseBackoff,
			RetryJitter:   e.cfg.Backfill.RetryJitter,
			Cooldown:      e.cfg.Backfill.Cooldown,
			CooldownAfter: e.cfg.Backfill.CooldownAfter,
			DelayMin:      e.cfg.Backfill.DelayMin,
			DelayMax:      e.cfg.Backfill.DelayMax,
			Force:         backfillForce,
			LoadDims:      backfillDims,
		}
		runner := backfill.NewRunner(e.pipeline(), settings, e.report, e.log, backfill.WithReporter(reporters))

		summary, err := runner.Run(ctx, start, end)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "backfill interrupted; rerun the same command to resume")
				return nil
			}
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d dates failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

// backfillRange resolves --season or --start/--end into an inclusive range.
func backfillRange(season int, start, end string) (gameday.Date, gameday.Date, error) {
	switch {
	case season != 0 && (start != "" || end != ""):
		return gameday.Date{}, gameday.Date{}, errors.New("use either --season or --start/--end, not both")
	case season != 0:
		if season < 1946 {
			return gameday.Date{}, gameday.Date{}, fmt.Errorf("invalid season %d", season)
		}
		s, e := gameday.SeasonWindow(season)
		return s, e, nil
	case start != "" && end != "":
		s, err := gameday.Parse(start)
		if err != nil {
			return gameday.Date{}, gameday.Date{}, fmt.Errorf("invalid --start: %w", err)
		}
		e, err := gameday.Parse(end)
		if err != nil {
			return gameday.Date{}, gameday.Date{}, fmt.Errorf("invalid --end: %w", err)
		}
		if e.Before(s) {
			return gameday.Date{}, gameday.Date{}, fmt.Errorf("--end %s is before --start %s", e, s)
		}
		return s, e, nil
	default:
		return gameday.Date{}, gameday.Date{}, errors.New("specify --season, or both --start and --end")
	}
}

// logReporter prints human-readable progress lines.
type logReporter struct {
	w io.Writer
}

func (c *logReporter) OnRunStart(_ context.Context, run backfill.Run) {
	fmt.Fprintf(c.w, "Starting backfill %s: %s to %s (%d dates)\n", run.ID, run.Start, run.End, run.Total)
}

func (c *logReporter) OnDateStart(_ context.Context, date gameday.Date, index, total int) {
	fmt.Fprintf(c.w, "[%d/%d] %s\n", index+1, total, date)
}

func (c *logReporter) OnDateSkipped(context.Context, gameday.Date) {}

func (c *logReporter) OnDateComplete(_ context.Context, date gameday.Date, attempts int) {
	if attempts > 1 {
		fmt.Fprintf(c.w, "  %s done after %d attempts\n", date, attempts)
	}
}

func (c *logReporter) OnDateFailed(_ context.Context, date gameday.Date, err error) {
	fmt.Fprintf(c.w, "  %s FAILED: %v\n", date, err)
}

func (c *logReporter) OnCooldown(_ context.Context, consecutive int, pause time.Duration) {
	fmt.Fprintf(c.w, "  %d consecutive failures, cooling down for %s\n", consecutive, pause)
}

func (c *logReporter) OnRunComplete(_ context.Context, s *backfill.Summary) {
	fmt.Fprintf(c.w, "Backfill %s: %d processed, %d skipped, %d failed of %d dates\n",
		s.Status, s.Processed, s.Skipped, s.Failed, s.Total)
	fmt.Fprintf(c.w, "Validation: %d checked, %d passed, %d failed\n",
		s.Validation.Checked, s.Validation.Passed, s.Validation.Failed)
	if preview := s.FailedDatesPreview(); preview != "" {
		fmt.Fprintf(c.w, "Failed dates: %s\n", preview)
	}
}

func init() {
	f := backfillCmd.Flags()
	f.StringVar(&backfillStart, "start", "", "first date (YYYY-MM-DD)")
	f.StringVar(&backfillEnd, "end", "", "last date, inclusive (YYYY-MM-DD)")
	f.IntVar(&backfillSeason, "season", 0, "season start year; 2023 covers 2023-10-01 to 2024-06-30")
	f.BoolVar(&backfillForce, "force", false, "reprocess dates that are already done")
	f.BoolVar(&backfillDims, "dims", false, "refresh teams, players, games and team stats first")
	f.StringVar(&backfillStatusAddr, "status-addr", "", "serve live status on this address, e.g. :8089")
}
