package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtlake/internal/backfill"
	"github.com/fortuna/courtlake/internal/gameday"
)

func newTestPublisher(t *testing.T) (*RedisPublisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStreamPublisher(client, nil), client
}

func readEvents(t *testing.T, client *redis.Client) []Event {
	t.Helper()
	msgs, err := client.XRange(context.Background(), EventStream, "-", "+").Result()
	require.NoError(t, err)

	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["data"].(string)
		require.True(t, ok)
		require.Contains(t, msg.Values, "timestamp")

		var ev Event
		require.NoError(t, json.Unmarshal([]byte(raw), &ev))
		events = append(events, ev)
	}
	return events
}

func TestPublisherStreamsRunLifecycle(t *testing.T) {
	pub, client := newTestPublisher(t)
	ctx := context.Background()
	date := gameday.Of(2024, 1, 15)

	pub.OnRunStart(ctx, backfill.Run{ID: "run-1", Start: date, End: date.AddDays(1), Total: 2})
	pub.OnDateStart(ctx, date, 0, 2)
	pub.OnDateComplete(ctx, date, 2)
	pub.OnDateFailed(ctx, date.AddDays(1), errors.New("429 Too Many Requests"))
	pub.OnCooldown(ctx, 3, 2*time.Minute)
	pub.OnRunComplete(ctx, &backfill.Summary{RunID: "run-1", Status: backfill.RunStatusCompleted, Processed: 1, Failed: 1})

	events := readEvents(t, client)
	require.Len(t, events, 6)

	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
		assert.Equal(t, "run-1", ev.RunID, ev.Type)
	}
	assert.Equal(t, []string{
		EventRunStarted, EventDateStarted, EventDateCompleted, EventDateFailed, EventCooldown, EventRunCompleted,
	}, types)

	assert.Equal(t, 1, events[1].Position)
	assert.Equal(t, 2, events[2].Attempts)
	assert.Equal(t, "2024-01-16", events[3].Date)
	assert.Equal(t, "throttled", events[3].Class)
	assert.Equal(t, 120.0, events[4].PauseSeconds)
	require.NotNil(t, events[5].Summary)
	assert.Equal(t, 1, events[5].Summary.Processed)
}

func TestPublisherStoresLatestRun(t *testing.T) {
	pub, _ := newTestPublisher(t)
	ctx := context.Background()

	latest, err := pub.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	pub.OnRunComplete(ctx, &backfill.Summary{RunID: "run-2", Status: backfill.RunStatusCancelled, FailedDates: []string{"2024-01-15"}})

	latest, err = pub.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, backfill.RunStatusCancelled, latest.Status)
	assert.Equal(t, []string{"2024-01-15"}, latest.FailedDates)
}

func TestPublisherPublishesAfterCancellation(t *testing.T) {
	pub, client := newTestPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub.OnRunComplete(ctx, &backfill.Summary{RunID: "run-3", Status: backfill.RunStatusCancelled})
	assert.Len(t, readEvents(t, client), 1)
}

func TestPublisherSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	pub := NewRedisStreamPublisher(client, nil)
	mr.Close()

	assert.NotPanics(t, func() {
		pub.OnDateSkipped(context.Background(), gameday.Of(2024, 1, 15))
	})
}

func TestNewRedisPublisherRejectsBadURL(t *testing.T) {
	_, err := NewRedisPublisher("not a url", nil)
	require.Error(t, err)
}
