// Package store implements C1, the GraphStore adapter: it wraps a
// pkg/ports.GraphDriver with the row-cap and per-call timeout enforcement,
// and the Timeout/QueryError/Unavailable error classification, that
// SPEC_FULL.md places in the core regardless of which driver is plugged
// in underneath.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// GraphStore is C1. It is safe for concurrent use across requests: each
// call opens an independent transaction against the driver and shares no
// mutable state.
type GraphStore struct {
	driver ports.GraphDriver
	rowCap int
	// onTruncate, when set, is invoked whenever a result was truncated to
	// RowCap. Callers pass a closure that appends a warning to the
	// request's Context rather than exposing Context to this package.
	onTruncate func(rowsReturned int)
}

// Option configures a GraphStore.
type Option func(*GraphStore)

// WithRowCap overrides the default row cap (100).
func WithRowCap(n int) Option {
	return func(s *GraphStore) {
		if n > 0 {
			s.rowCap = n
		}
	}
}

func New(driver ports.GraphDriver, opts ...Option) *GraphStore {
	s := &GraphStore{driver: driver, rowCap: domain.DefaultRowCap}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunQuery executes statement with a deadline of timeoutMs, truncates the
// result to the store's row cap (invoking onTruncate on truncation), and
// classifies driver failures.
//
// onTruncate is supplied per-call so a single GraphStore instance can serve
// many concurrent requests, each appending truncation warnings to its own
// Context.
func (s *GraphStore) RunQuery(ctx context.Context, statement string, params map[string]domain.Value, timeoutMs int, onTruncate func(rowsReturned int)) ([]ports.Record, error) {
	if timeoutMs <= 0 {
		timeoutMs = domain.DefaultEvalTimeoutMs
	}
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	records, err := s.driver.RunQuery(callCtx, statement, params)
	if err != nil {
		return nil, classify(callCtx, err)
	}

	if len(records) > s.rowCap {
		truncated := records[:s.rowCap]
		if onTruncate != nil {
			onTruncate(len(records))
		} else if s.onTruncate != nil {
			s.onTruncate(len(records))
		}
		return truncated, nil
	}

	return records, nil
}

// classify maps a raw driver error onto the Timeout/QueryError/Unavailable
// taxonomy from SPEC_FULL.md §7.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.EngineError{Kind: domain.ErrEvaluatorTimeout, Message: err.Error()}
	}

	var unavailable UnavailableError
	if errors.As(err, &unavailable) {
		return &domain.EngineError{Kind: domain.ErrUnavailable, Message: err.Error()}
	}

	return &domain.EngineError{Kind: domain.ErrQueryError, Message: err.Error()}
}

// UnavailableError is the sentinel drivers should wrap connection-level
// failures in so GraphStore can classify them as Unavailable rather than
// QueryError.
type UnavailableError struct{ Cause error }

func (e UnavailableError) Error() string { return "graph driver unavailable: " + e.Cause.Error() }
func (e UnavailableError) Unwrap() error { return e.Cause }
