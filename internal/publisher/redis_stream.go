package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/courtlake/internal/backfill"
	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/gameday"
	"github.com/fortuna/courtlake/internal/logger"
)

const (
	// EventStream receives one entry per backfill lifecycle event.
	EventStream = "courtlake.backfill.events"
	// LatestRunKey holds the JSON summary of the last finished run.
	LatestRunKey = "courtlake.backfill.latest"

	publishTimeout = 5 * time.Second
)

// Event types.
const (
	EventRunStarted    = "run_started"
	EventDateStarted   = "date_started"
	EventDateSkipped   = "date_skipped"
	EventDateCompleted = "date_completed"
	EventDateFailed    = "date_failed"
	EventCooldown      = "cooldown"
	EventRunCompleted  = "run_completed"
)

// Event is the payload stored in the stream's "data" field.
type Event struct {
	Type                string            `json:"type"`
	RunID               string            `json:"run_id"`
	Date                string            `json:"date,omitempty"`
	Position            int               `json:"position,omitempty"`
	Total               int               `json:"total,omitempty"`
	Attempts            int               `json:"attempts,omitempty"`
	Error               string            `json:"error,omitempty"`
	Class               string            `json:"class,omitempty"`
	ConsecutiveFailures int               `json:"consecutive_failures,omitempty"`
	PauseSeconds        float64           `json:"pause_seconds,omitempty"`
	Summary             *backfill.Summary `json:"summary,omitempty"`
}

// RedisPublisher streams backfill events to Redis. Publishing is best effort: failures are
// logged and never interrupt the run.
type RedisPublisher struct {
	client *redis.Client
	log    *logger.Logger

	mu    sync.Mutex
	runID string
}

// NewRedisPublisher connects to redisURL and verifies the connection.
func NewRedisPublisher(redisURL string, log *logger.Logger) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStreamPublisher(client, log), nil
}

// NewRedisStreamPublisher creates a publisher from an existing client
func NewRedisStreamPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		log:    logger.OrNop(log).Component("publisher"),
	}
}

// Close closes the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// Publish appends ev to the event stream.
func (rp *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: EventStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}

// LatestRun returns the summary stored by the last finished run, or nil when there is none.
func (rp *RedisPublisher) LatestRun(ctx context.Context) (*backfill.Summary, error) {
	raw, err := rp.client.Get(ctx, LatestRunKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s backfill.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode latest run: %w", err)
	}
	return &s, nil
}

func (rp *RedisPublisher) currentRun() string {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.runID
}

func (rp *RedisPublisher) emit(ctx context.Context, ev Event) {
	// Terminal events must go out even after the run's context was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if ev.RunID == "" {
		ev.RunID = rp.currentRun()
	}
	if err := rp.Publish(ctx, ev); err != nil {
		rp.log.Warn("event publish failed", "type", ev.Type, "date", ev.Date, "error", err)
	}
}

func (rp *RedisPublisher) OnRunStart(ctx context.Context, run backfill.Run) {
	rp.mu.Lock()
	rp.runID = run.ID
	rp.mu.Unlock()

	rp.emit(ctx, Event{Type: EventRunStarted, RunID: run.ID, Total: run.Total})
}

func (rp *RedisPublisher) OnDateStart(ctx context.Context, date gameday.Date, index, total int) {
	rp.emit(ctx, Event{Type: EventDateStarted, Date: date.String(), Position: index + 1, Total: total})
}

func (rp *RedisPublisher) OnDateSkipped(ctx context.Context, date gameday.Date) {
	rp.emit(ctx, Event{Type: EventDateSkipped, Date: date.String()})
}

func (rp *RedisPublisher) OnDateComplete(ctx context.Context, date gameday.Date, attempts int) {
	rp.emit(ctx, Event{Type: EventDateCompleted, Date: date.String(), Attempts: attempts})
}

func (rp *RedisPublisher) OnDateFailed(ctx context.Context, date gameday.Date, err error) {
	rp.emit(ctx, Event{
		Type:  EventDateFailed,
		Date:  date.String(),
		Error: err.Error(),
		Class: etlerr.Classify(err).String(),
	})
}

func (rp *RedisPublisher) OnCooldown(ctx context.Context, consecutiveFailures int, pause time.Duration) {
	rp.emit(ctx, Event{Type: EventCooldown, ConsecutiveFailures: consecutiveFailures, PauseSeconds: pause.Seconds()})
}

func (rp *RedisPublisher) OnRunComplete(ctx context.Context, summary *backfill.Summary) {
	rp.emit(ctx, Event{Type: EventRunCompleted, RunID: summary.RunID, Summary: summary})

	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := rp.client.Set(ctx, LatestRunKey, data, 0).Err(); err != nil {
		rp.log.Warn("latest run not stored", "run_id", summary.RunID, "error", err)
	}
}
