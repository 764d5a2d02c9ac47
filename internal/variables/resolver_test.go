package variables_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/internal/store"
	"github.com/flowcoreio/flowcore/internal/template"
	"github.com/flowcoreio/flowcore/internal/variables"
	"github.com/flowcoreio/flowcore/pkg/adapters/luasandbox"
	"github.com/flowcoreio/flowcore/pkg/adapters/memgraph"
	"github.com/flowcoreio/flowcore/pkg/domain"
)

func newResolver() (*variables.Resolver, *domain.Context) {
	reqCtx := domain.NewContext("t1", map[string]domain.Value{"age": domain.Int(30)})
	gs := store.New(memgraph.New())
	r := variables.New(reqCtx, gs, luasandbox.New(), template.New())
	r.PreloadInputs()
	return r, reqCtx
}

func TestResolver_GetEvaluatesAtMostOnce(t *testing.T) {
	r, reqCtx := newResolver()
	scopes := variables.ScopeSet{Section: []domain.VariableDef{
		{Name: "isAdult", Python: "age >= 18"},
	}}

	v1, ok := r.Get(context.Background(), "isAdult", scopes)
	require.True(t, ok)
	assert.True(t, v1.Truthy())

	v2, ok := r.Get(context.Background(), "isAdult", scopes)
	require.True(t, ok)
	assert.True(t, v2.Truthy())

	assert.Equal(t, 1, reqCtx.EvalCount["isAdult"])
}

func TestResolver_ScopeSearchOrder(t *testing.T) {
	r, _ := newResolver()
	scopes := variables.ScopeSet{
		Edge:    []domain.VariableDef{{Name: "x", Python: "'edge'"}},
		Node:    []domain.VariableDef{{Name: "x", Python: "'node'"}},
		Section: []domain.VariableDef{{Name: "x", Python: "'section'"}},
	}

	v, ok := r.Get(context.Background(), "x", scopes)
	require.True(t, ok)
	assert.Equal(t, "edge", v.AsString())
}

func TestResolver_UndeclaredVariableNotFound(t *testing.T) {
	r, _ := newResolver()
	_, ok := r.Get(context.Background(), "nowhere", variables.ScopeSet{})
	assert.False(t, ok)
}

func TestResolver_MissingBodyWarns(t *testing.T) {
	r, reqCtx := newResolver()
	scopes := variables.ScopeSet{Section: []domain.VariableDef{{Name: "empty"}}}

	v, ok := r.Get(context.Background(), "empty", scopes)
	require.True(t, ok)
	assert.True(t, v.IsNull())
	require.Len(t, reqCtx.Warnings, 1)
	assert.Equal(t, "empty", reqCtx.Warnings[0].Variable)
}

func TestResolver_SandboxTimeoutWarnsAndYieldsNull(t *testing.T) {
	r, reqCtx := newResolver()
	scopes := variables.ScopeSet{Section: []domain.VariableDef{
		{Name: "spinner", Python: "(function() local i = 0 while true do i = i + 1 end return i end)()", TimeoutMs: 20},
	}}

	v, ok := r.Get(context.Background(), "spinner", scopes)
	require.True(t, ok)
	assert.True(t, v.IsNull())
	require.Len(t, reqCtx.Warnings, 1)
	assert.Contains(t, reqCtx.Warnings[0].Message, "timeout")
}

func TestResolver_TemplateRenderedBeforeEval(t *testing.T) {
	r, _ := newResolver()
	scopes := variables.ScopeSet{Section: []domain.VariableDef{
		{Name: "greeting", Python: "'hi ' .. tostring({{ age }})"},
	}}

	v, ok := r.Get(context.Background(), "greeting", scopes)
	require.True(t, ok)
	assert.Equal(t, "hi 30", v.AsString())
}

func TestResolver_LookupReadsCacheThenInputsThenScopes(t *testing.T) {
	r, _ := newResolver()
	scopes := variables.ScopeSet{Section: []domain.VariableDef{
		{Name: "derived", Python: "age * 2"},
	}}
	lookup := r.Lookup(scopes)

	v, ok := lookup("age")
	require.True(t, ok)
	assert.Equal(t, int64(30), v.AsInt())

	v, ok = lookup("derived")
	require.True(t, ok)
	assert.Equal(t, int64(60), v.AsInt())
}
