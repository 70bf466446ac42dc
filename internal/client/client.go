// Package client paces, caps and retries calls to the upstream provider.
package client

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/fortuna/courtlake/internal/etlerr"
	"github.com/fortuna/courtlake/internal/logger"
	"github.com/fortuna/courtlake/internal/provider"
)

// Config tunes pacing and retries.
type Config struct {
	MaxConcurrent   int
	MaxAttempts     int
	BaseBackoff     time.Duration
	BackoffJitter   time.Duration
	ThrottleFloor   time.Duration
	InterCallDelay  time.Duration
	InterCallJitter time.Duration
	// MaxRPS caps the request start rate across all permits. Zero disables it.
	MaxRPS float64
}

// DefaultConfig matches the provider's tolerated request rate.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:   3,
		MaxAttempts:     5,
		BaseBackoff:     2 * time.Second,
		BackoffJitter:   time.Second,
		ThrottleFloor:   30 * time.Second,
		InterCallDelay:  600 * time.Millisecond,
		InterCallJitter: 400 * time.Millisecond,
	}
}

// Client wraps a provider.Transport with a concurrency cap, pacing and classified retries.
// It is itself a provider.Transport and is safe for concurrent use.
type Client struct {
	next    provider.Transport
	cfg     Config
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     *logger.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// Option customises a Client.
type Option func(*Client)

// WithSleep replaces the wait function (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithJitter replaces the uniform [0,1) source (tests).
func WithJitter(fn func() float64) Option {
	return func(c *Client) { c.jitter = fn }
}

// New wraps next.
func New(next provider.Transport, cfg Config, log *logger.Logger, opts ...Option) *Client {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	c := &Client{
		next:   next,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		log:    logger.OrNop(log).Component("client"),
		sleep:  Sleep,
		jitter: rand.Float64,
	}
	if cfg.MaxRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch implements provider.Transport.
func (c *Client) Fetch(ctx context.Context, req provider.Request) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		body, err := c.attempt(ctx, req)
		if err == nil {
			return body, nil
		}
		if etlerr.IsCancellation(err) || ctx.Err() != nil {
			return nil, err
		}

		class := etlerr.Classify(err)
		if !class.Retryable() {
			return nil, err
		}
		lastErr = err

		if attempt == c.cfg.MaxAttempts {
			break
		}

		wait := Backoff(c.cfg, attempt, class, c.jitter())
		c.log.Warn("upstream call failed, backing off",
			"request", req.String(),
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"class", class.String(),
			"wait", wait.String(),
			"error", err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, etlerr.New(etlerr.Fatal, "fetch "+req.String(),
		fmt.Errorf("%w after %d attempts: %w", etlerr.ErrExhaustedRetries, c.cfg.MaxAttempts, lastErr))
}

// attempt holds a permit for the call and, on success, for the post-call pause.
func (c *Client) attempt(ctx context.Context, req provider.Request) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	pause := c.cfg.InterCallDelay + time.Duration(c.jitter()*float64(c.cfg.InterCallJitter))
	if err := c.sleep(ctx, pause); err != nil {
		return nil, err
	}
	return body, nil
}

// Backoff returns the wait before retry number attempt (1-based) given a uniform sample u in [0,1).
// Throttled failures wait at least ThrottleFloor per attempt.
func Backoff(cfg Config, attempt int, class etlerr.Class, u float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := math.Pow(2, float64(attempt-1))
	wait := time.Duration(float64(cfg.BaseBackoff)*exp) + time.Duration(u*float64(cfg.BackoffJitter))

	if class == etlerr.Throttled {
		floor := cfg.ThrottleFloor * time.Duration(attempt)
		if wait < floor {
			wait = floor
		}
	}
	return wait
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
