package etlerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

type aggErr struct{ class Class }

func (a aggErr) Error() string { return "aggregate" }
func (a aggErr) Class() Class  { return a.class }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"explicit class wins", New(DataShape, "decode", errors.New("429 in body")), DataShape},
		{"status 429", statusErr(429), Throttled},
		{"status 503", statusErr(503), Throttled},
		{"status 500", statusErr(500), Transient},
		{"status 408", statusErr(408), Transient},
		{"status 404", statusErr(404), Fatal},
		{"wrapped status", fmt.Errorf("fetch: %w", statusErr(429)), Throttled},
		{"net timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, Throttled},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), Throttled},
		{"text 429", errors.New("upstream said 429"), Throttled},
		{"text too many requests", errors.New("Too Many Requests"), Throttled},
		{"text timed out", errors.New("read timed out"), Throttled},
		{"unknown", errors.New("boom"), Transient},
		{"aggregate", aggErr{class: Throttled}, Throttled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Transient.Retryable())
	assert.True(t, Throttled.Retryable())
	assert.False(t, DataShape.Retryable())
	assert.False(t, Integrity.Retryable())
	assert.False(t, Fatal.Retryable())
}

func TestIsCancellation(t *testing.T) {
	assert.True(t, IsCancellation(context.Canceled))
	assert.True(t, IsCancellation(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, IsCancellation(errors.New("nope")))
}

func TestErrorMessage(t *testing.T) {
	err := New(Fatal, "client.fetch", ErrExhaustedRetries)
	assert.Equal(t, "client.fetch: fatal: exhausted retries", err.Error())
	assert.ErrorIs(t, err, ErrExhaustedRetries)
}
