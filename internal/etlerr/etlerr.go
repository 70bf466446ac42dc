// Package etlerr classifies pipeline failures so callers can decide whether to retry.
package etlerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Class is the failure taxonomy shared by every layer.
type Class int

const (
	// Transient failures are retried with plain exponential backoff.
	Transient Class = iota
	// Throttled failures are retried with a longer floor.
	Throttled
	// DataShape means a payload was missing an expected key. Never retried.
	DataShape
	// Integrity means the relational store rejected a write.
	Integrity
	// Fatal failures end the operation.
	Fatal
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Throttled:
		return "throttled"
	case DataShape:
		return "data_shape"
	case Integrity:
		return "integrity"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Retryable reports whether a failure of this class may be retried.
func (c Class) Retryable() bool {
	return c == Transient || c == Throttled
}

// ErrExhaustedRetries is wrapped by the final error once every attempt has failed.
var ErrExhaustedRetries = errors.New("exhausted retries")

// Error carries an explicit classification.
type Error struct {
	Class Class
	Op    string
	Err   error
}

// New wraps err with a class and an operation name.
func New(class Class, op string, err error) *Error {
	return &Error{Class: class, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(class Class, op, format string, args ...interface{}) *Error {
	return &Error{Class: class, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// classifier is implemented by aggregate errors that pick their own class.
// It is consulted before any wrapped *Error.
type classifier interface {
	Class() Class
}

// IsCancellation reports whether err stems from context cancellation or deadline.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Classify maps err onto the taxonomy. Structured signals are checked before message text.
func Classify(err error) Class {
	if err == nil {
		return Transient
	}

	var agg classifier
	if errors.As(err, &agg) {
		return agg.Class()
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Class
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return classifyStatus(sc.StatusCode())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Throttled
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return Throttled
	}

	return classifyText(err.Error())
}

func classifyStatus(code int) Class {
	switch {
	case code == 429 || code == 503:
		return Throttled
	case code == 408 || code >= 500:
		return Transient
	case code >= 400:
		return Fatal
	default:
		return Transient
	}
}

var throttleMarkers = []string{
	"429",
	"too many requests",
	"timed out",
	"timeout",
	"connection reset",
	"connection aborted",
}

func classifyText(msg string) Class {
	lower := strings.ToLower(msg)
	for _, marker := range throttleMarkers {
		if strings.Contains(lower, marker) {
			return Throttled
		}
	}
	return Transient
}
