package luasandbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/pkg/adapters/luasandbox"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

func TestSandbox_SimpleArithmetic(t *testing.T) {
	s := luasandbox.New()
	res := s.Eval(context.Background(), "1 + 2", nil, 100)
	require.Equal(t, ports.EvalOk, res.Status)
	assert.Equal(t, int64(3), res.Value.AsInt())
}

func TestSandbox_VariableAccess(t *testing.T) {
	s := luasandbox.New()
	vars := map[string]domain.Value{"flag": domain.Bool(true)}
	res := s.Eval(context.Background(), "flag == true", vars, 100)
	require.Equal(t, ports.EvalOk, res.Status)
	assert.True(t, res.Value.AsBool())
}

func TestSandbox_DunderRejected(t *testing.T) {
	s := luasandbox.New()
	res := s.Eval(context.Background(), "__index", nil, 100)
	assert.Equal(t, ports.EvalDenied, res.Status)
}

func TestSandbox_TimeoutOnInfiniteLoop(t *testing.T) {
	s := luasandbox.New()
	res := s.Eval(context.Background(), "(function() local i = 0 while true do i = i + 1 end return i end)()", nil, 50)
	assert.Equal(t, ports.EvalTimeout, res.Status)
}

func TestSandbox_FilesystemLibraryUnavailable(t *testing.T) {
	s := luasandbox.New()
	res := s.Eval(context.Background(), "io.open('/etc/passwd')", nil, 100)
	assert.Equal(t, ports.EvalError, res.Status)
}

func TestSandbox_SumAndSortedBuiltins(t *testing.T) {
	s := luasandbox.New()
	res := s.Eval(context.Background(), "sum({1, 2, 3})", nil, 100)
	require.Equal(t, ports.EvalOk, res.Status)
	assert.Equal(t, int64(6), res.Value.AsInt())

	res = s.Eval(context.Background(), "sorted({3, 1, 2})[1]", nil, 100)
	require.Equal(t, ports.EvalOk, res.Status)
	assert.Equal(t, int64(1), res.Value.AsInt())
}

func TestSandbox_ListRoundTrip(t *testing.T) {
	s := luasandbox.New()
	vars := map[string]domain.Value{
		"items": domain.List([]domain.Value{domain.Int(1), domain.Int(2), domain.Int(3)}),
	}
	res := s.Eval(context.Background(), "len(items)", vars, 100)
	require.Equal(t, ports.EvalOk, res.Status)
	assert.Equal(t, int64(3), res.Value.AsInt())
}
