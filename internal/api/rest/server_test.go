package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtlake/internal/backfill"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/publisher"
	"github.com/fortuna/courtlake/internal/store"
)

type fakeRuns struct {
	runs  []*backfill.Summary
	err   error
	limit int
}

func (f *fakeRuns) ListRecentRuns(_ context.Context, limit int) ([]*backfill.Summary, error) {
	f.limit = limit
	return f.runs, f.err
}

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(context.Context) error { return f.err }

type fakeSummaries struct {
	season int
	err    error
}

func (f *fakeSummaries) TeamSeason(_ context.Context, seasonID int) ([]*store.TeamSeasonSummary, error) {
	f.season = seasonID
	return []*store.TeamSeasonSummary{{SeasonID: seasonID, Abbreviation: "ATL", Wins: 8}}, f.err
}

func (f *fakeSummaries) PlayerGame(_ context.Context, gameID string) ([]*store.PlayerGameSummary, error) {
	if gameID != "0022300571" {
		return nil, f.err
	}
	return []*store.PlayerGameSummary{{GameID: gameID, PlayerID: 2544, FullName: "LeBron James", ShotAttempts: 20}}, f.err
}

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthCheck(t *testing.T) {
	t.Run("no warehouse", func(t *testing.T) {
		rec, body := serve(t, NewHandler(NewStatusTracker(), nil, nil, nil, nil), "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("warehouse down", func(t *testing.T) {
		rec, body := serve(t, NewHandler(NewStatusTracker(), nil, nil, fakeDB{err: errors.New("refused")}, nil), "/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "refused", body["details"])
	})
}

func TestBackfillStatusFollowsRun(t *testing.T) {
	tracker := NewStatusTracker()
	h := NewHandler(tracker, nil, nil, nil, nil)
	ctx := context.Background()
	start := gameday.Of(2024, 1, 1)

	_, body := serve(t, h, "/api/v1/backfill/status")
	assert.Equal(t, StateIdle, body["state"])

	tracker.OnRunStart(ctx, backfill.Run{ID: "run-1", Start: start, End: start.AddDays(3), Total: 4})
	tracker.OnDateSkipped(ctx, start)
	tracker.OnDateStart(ctx, start.AddDays(1), 1, 4)

	_, body = serve(t, h, "/api/v1/backfill/status")
	assert.Equal(t, StateRunning, body["state"])
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, "2024-01-02", body["current_date"])
	assert.EqualValues(t, 2, body["position"])
	assert.EqualValues(t, 1, body["skipped"])

	tracker.OnDateFailed(ctx, start.AddDays(1), errors.New("timed out"))
	tracker.OnCooldown(ctx, 3, time.Minute)

	snap := tracker.Snapshot()
	assert.Equal(t, StateCoolingDown, snap.State)
	require.NotNil(t, snap.CooldownUntil)
	assert.Equal(t, "2024-01-02: timed out", snap.LastError)
	assert.Equal(t, 1, snap.Failed)

	tracker.OnDateStart(ctx, start.AddDays(2), 2, 4)
	assert.Nil(t, tracker.Snapshot().CooldownUntil)
	tracker.OnDateComplete(ctx, start.AddDays(2), 1)

	tracker.OnRunComplete(ctx, &backfill.Summary{RunID: "run-1", Status: backfill.RunStatusCancelled, Processed: 1, Skipped: 1, Failed: 1})
	snap = tracker.Snapshot()
	assert.Equal(t, "cancelled", snap.State)
	require.NotNil(t, snap.LastRun)
	assert.Equal(t, "run-1", snap.LastRun.RunID)

	// A new run keeps the previous summary until it finishes.
	tracker.OnRunStart(ctx, backfill.Run{ID: "run-2", Start: start, End: start, Total: 1})
	snap = tracker.Snapshot()
	assert.Zero(t, snap.Processed)
	assert.Equal(t, "run-1", snap.LastRun.RunID)
}

func TestBackfillRuns(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		runs := &fakeRuns{runs: []*backfill.Summary{{RunID: "a"}, {RunID: "b"}}}
		rec, body := serve(t, NewHandler(NewStatusTracker(), runs, nil, nil, nil), "/api/v1/backfill/runs")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, body["count"])
		assert.Equal(t, defaultRunLimit, runs.limit)
	})

	t.Run("limit is capped", func(t *testing.T) {
		runs := &fakeRuns{}
		rec, body := serve(t, NewHandler(NewStatusTracker(), runs, nil, nil, nil), "/api/v1/backfill/runs?limit=5000")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, maxRunLimit, runs.limit)
		assert.Equal(t, []interface{}{}, body["runs"])
	})

	t.Run("bad limit", func(t *testing.T) {
		rec, _ := serve(t, NewHandler(NewStatusTracker(), &fakeRuns{}, nil, nil, nil), "/api/v1/backfill/runs?limit=-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no warehouse", func(t *testing.T) {
		rec, _ := serve(t, NewHandler(NewStatusTracker(), nil, nil, nil, nil), "/api/v1/backfill/runs")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("query error", func(t *testing.T) {
		rec, body := serve(t, NewHandler(NewStatusTracker(), &fakeRuns{err: errors.New("boom")}, nil, nil, nil), "/api/v1/backfill/runs")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "boom", body["details"])
	})
}

type fakeLatest struct{ err error }

func (f fakeLatest) LatestRun(context.Context) (*backfill.Summary, error) { return nil, f.err }

func TestLatestRun(t *testing.T) {
	t.Run("from event stream", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		pub := publisher.NewRedisStreamPublisher(client, nil)

		h := NewHandler(NewStatusTracker(), nil, nil, nil, nil)
		h.SetLatestRuns(pub)

		rec, body := serve(t, h, "/api/v1/backfill/latest")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No finished run", body["error"])

		pub.OnRunComplete(context.Background(), &backfill.Summary{RunID: "run-9", Status: backfill.RunStatusCompleted, Processed: 4})
		rec, body = serve(t, h, "/api/v1/backfill/latest")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "run-9", body["run_id"])
		assert.EqualValues(t, 4, body["processed"])
	})

	t.Run("without redis", func(t *testing.T) {
		rec, _ := serve(t, NewHandler(NewStatusTracker(), nil, nil, nil, nil), "/api/v1/backfill/latest")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("read error", func(t *testing.T) {
		h := NewHandler(NewStatusTracker(), nil, nil, nil, nil)
		h.SetLatestRuns(fakeLatest{err: errors.New("connection refused")})
		rec, body := serve(t, h, "/api/v1/backfill/latest")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "connection refused", body["details"])
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSummaries(t *testing.T) {
	get := func(h *Handler, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		NewRouter(h, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("team season", func(t *testing.T) {
		sums := &fakeSummaries{}
		rec := get(NewHandler(NewStatusTracker(), nil, sums, nil, nil), "/api/v1/seasons/2023/teams")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2023, sums.season)

		var teams []store.TeamSeasonSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
		require.Len(t, teams, 1)
		assert.Equal(t, "ATL", teams[0].Abbreviation)
	})

	t.Run("non-numeric season is not routed", func(t *testing.T) {
		rec := get(NewHandler(NewStatusTracker(), nil, &fakeSummaries{}, nil, nil), "/api/v1/seasons/abc/teams")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("player game", func(t *testing.T) {
		rec := get(NewHandler(NewStatusTracker(), nil, &fakeSummaries{}, nil, nil), "/api/v1/games/0022300571/players")
		require.Equal(t, http.StatusOK, rec.Code)
		var lines []store.PlayerGameSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
		assert.Equal(t, 20, lines[0].ShotAttempts)
	})

	t.Run("unknown game", func(t *testing.T) {
		rec := get(NewHandler(NewStatusTracker(), nil, &fakeSummaries{}, nil, nil), "/api/v1/games/nope/players")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("query error", func(t *testing.T) {
		rec := get(NewHandler(NewStatusTracker(), nil, &fakeSummaries{err: errors.New("boom")}, nil, nil), "/api/v1/seasons/2023/teams")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("no warehouse", func(t *testing.T) {
		rec := get(NewHandler(NewStatusTracker(), nil, nil, nil, nil), "/api/v1/seasons/2023/teams")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}
