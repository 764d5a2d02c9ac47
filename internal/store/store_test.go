package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/internal/store"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

type stubDriver struct {
	records []ports.Record
	err     error
	delay   time.Duration
}

func (d *stubDriver) RunQuery(ctx context.Context, statement string, params map[string]domain.Value) ([]ports.Record, error) {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return d.records, d.err
}

func records(n int) []ports.Record {
	out := make([]ports.Record, n)
	for i := range out {
		out[i] = ports.Record{"i": domain.Int(int64(i))}
	}
	return out
}

func TestGraphStore_TruncatesToRowCap(t *testing.T) {
	gs := store.New(&stubDriver{records: records(150)}, store.WithRowCap(100))
	var truncatedTo int
	out, err := gs.RunQuery(context.Background(), "MATCH (n) RETURN n", nil, 500, func(n int) { truncatedTo = n })
	require.NoError(t, err)
	assert.Len(t, out, 100)
	assert.Equal(t, 150, truncatedTo)
}

func TestGraphStore_UnderCapNoTruncation(t *testing.T) {
	gs := store.New(&stubDriver{records: records(3)})
	called := false
	out, err := gs.RunQuery(context.Background(), "MATCH (n) RETURN n", nil, 500, func(int) { called = true })
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.False(t, called)
}

func TestGraphStore_TimeoutClassification(t *testing.T) {
	gs := store.New(&stubDriver{delay: 50 * time.Millisecond})
	_, err := gs.RunQuery(context.Background(), "MATCH (n) RETURN n", nil, 5, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEvaluatorTimeout))
}

func TestGraphStore_UnavailableClassification(t *testing.T) {
	gs := store.New(&stubDriver{err: store.UnavailableError{Cause: errors.New("connection refused")}})
	_, err := gs.RunQuery(context.Background(), "MATCH (n) RETURN n", nil, 500, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestGraphStore_QueryErrorClassification(t *testing.T) {
	gs := store.New(&stubDriver{err: errors.New("syntax error near MATCH")})
	_, err := gs.RunQuery(context.Background(), "MATCH (n) RETURN n", nil, 500, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQueryError))
}
