// Package variables implements C4, the VariableResolver: it maintains the
// per-request variable cache and warnings list, evaluating named variable
// definitions lazily and at most once per request, per SPEC_FULL.md §4.4.
package variables

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/flowcoreio/flowcore/internal/store"
	"github.com/flowcoreio/flowcore/internal/template"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// ScopeSet is the ordered set of scopes a Get searches, from most to least
// specific: (a) the currently-traversed edge, (b) the current node, (c)
// the enclosing section. A scope contributes zero or more VariableDefs;
// the first scope containing a definition for the requested name wins.
type ScopeSet struct {
	Edge    []domain.VariableDef
	Node    []domain.VariableDef
	Section []domain.VariableDef
}

func (s ScopeSet) find(name string) (domain.VariableDef, bool) {
	for _, group := range [][]domain.VariableDef{s.Edge, s.Node, s.Section} {
		for _, def := range group {
			if def.Name == name {
				return def, true
			}
		}
	}
	return domain.VariableDef{}, false
}

// Resolver is constructed once per request and discarded with the
// Context it mutates.
type Resolver struct {
	ctx      *domain.Context
	gs       *store.GraphStore
	sandbox  ports.ScriptSandbox
	renderer *template.Renderer
}

func New(reqCtx *domain.Context, gs *store.GraphStore, sandbox ports.ScriptSandbox, renderer *template.Renderer) *Resolver {
	return &Resolver{ctx: reqCtx, gs: gs, sandbox: sandbox, renderer: renderer}
}

// PreloadInputs seeds the cache with the input-parameter map as read-only
// entries so templates can resolve `{{ applicationId }}` without a scope
// search. Called once, before traversal starts.
func (r *Resolver) PreloadInputs() {
	for name, val := range r.ctx.Inputs {
		r.ctx.VarCache[name] = domain.VarReport{Value: val, Raw: val}
	}
}

// Lookup implements template.Lookup: variable cache first, then inputs
// (already merged into the cache by PreloadInputs), then reserved names.
func (r *Resolver) Lookup(scopes ScopeSet) template.Lookup {
	return func(root string) (domain.Value, bool) {
		if rep, ok := r.ctx.VarCache[root]; ok {
			return rep.Value, true
		}
		if val, ok := r.ctx.Inputs[root]; ok {
			return val, true
		}
		if root == "sourceNode" {
			if r.ctx.SourceNode == nil {
				return domain.Null(), true
			}
			return domain.Node(r.ctx.SourceNode), true
		}
		if root == "createdNodeIds" {
			ids := make([]domain.Value, len(r.ctx.CreatedNodeIDs))
			for i, id := range r.ctx.CreatedNodeIDs {
				ids[i] = domain.Int(id)
			}
			return domain.List(ids), true
		}
		return r.Get(context.Background(), root, scopes)
	}
}

// Get returns the cached value for name if present; otherwise it locates
// the variable's definition by searching scopes in order and evaluates it.
func (r *Resolver) Get(ctx context.Context, name string, scopes ScopeSet) (domain.Value, bool) {
	if rep, ok := r.ctx.VarCache[name]; ok {
		return rep.Value, true
	}

	def, ok := scopes.find(name)
	if !ok {
		return domain.Value{}, false
	}

	raw, val := r.evalDefinition(ctx, def, scopes)
	r.ctx.VarCache[name] = domain.VarReport{Value: val, Raw: raw}
	r.ctx.EvalCount[name]++
	return val, true
}

// evalDefinition implements eval_definition: it selects the evaluator,
// renders the body's templates first, applies the per-variable timeout,
// and JSON-parses a string result when it parses cleanly.
func (r *Resolver) evalDefinition(ctx context.Context, def domain.VariableDef, scopes ScopeSet) (raw, value domain.Value) {
	body, useCypher, ok := def.Body()
	if !ok {
		r.ctx.Warn(def.Name, "variable has neither cypher nor python body")
		return domain.Null(), domain.Null()
	}

	rendered := r.renderer.Render(body, r.Lookup(scopes), func(reason string) {
		r.ctx.Warn(def.Name, "template: "+reason)
	})

	timeoutMs := def.EffectiveTimeout()

	if useCypher {
		return r.evalCypher(ctx, def.Name, rendered, timeoutMs)
	}
	return r.evalPython(ctx, def.Name, rendered, timeoutMs)
}

func (r *Resolver) evalCypher(ctx context.Context, name, statement string, timeoutMs int) (raw, value domain.Value) {
	var truncated bool
	records, err := r.gs.RunQuery(ctx, statement, nil, timeoutMs, func(int) { truncated = true })
	if err != nil {
		r.ctx.Warn(name, "query failed: "+err.Error())
		return domain.Null(), domain.Null()
	}
	if truncated {
		r.ctx.Warn(name, "result truncated to row cap")
	}
	if len(records) == 0 {
		return domain.Null(), domain.Null()
	}

	// A single-column, single-row result is unwrapped to its scalar/value
	// form; anything richer is exposed as a list of row maps.
	if len(records) == 1 && len(records[0]) == 1 {
		for _, v := range records[0] {
			return v, maybeParseJSONString(v)
		}
	}

	rows := make([]domain.Value, len(records))
	for i, rec := range records {
		m := make(map[string]domain.Value, len(rec))
		for k, v := range rec {
			m[k] = v
		}
		rows[i] = domain.Map(m)
	}
	listVal := domain.List(rows)
	return listVal, listVal
}

func (r *Resolver) evalPython(ctx context.Context, name, expr string, timeoutMs int) (raw, value domain.Value) {
	result := r.sandbox.Eval(ctx, expr, snapshotVars(r.ctx), timeoutMs)
	switch result.Status {
	case ports.EvalOk:
		return result.Value, maybeParseJSONString(result.Value)
	case ports.EvalTimeout:
		r.ctx.Warn(name, "sandbox timeout after "+strconv.Itoa(timeoutMs)+"ms")
	case ports.EvalDenied:
		r.ctx.Warn(name, "security violation: "+result.Message)
	default:
		r.ctx.Warn(name, "evaluation error: "+result.Message)
	}
	return domain.Null(), domain.Null()
}

// RenderPredicate renders an askWhen/sourceNode expression body the same
// way a variable body is rendered, so both share one template-warning
// convention.
func (r *Resolver) RenderPredicate(name, body string, scopes ScopeSet) string {
	return r.renderer.Render(body, r.Lookup(scopes), func(reason string) {
		r.ctx.Warn(name, "template: "+reason)
	})
}

// EvalCypherRows runs a rendered cypher-flavored predicate/expression and
// returns its raw rows, for callers that need row count (askWhen) or the
// first row's columns (sourceNode).
func (r *Resolver) EvalCypherRows(ctx context.Context, name, statement string) ([]ports.Record, error) {
	var truncated bool
	records, err := r.gs.RunQuery(ctx, statement, nil, domain.DefaultEvalTimeoutMs, func(int) { truncated = true })
	if err != nil {
		r.ctx.Warn(name, "query failed: "+err.Error())
		return nil, err
	}
	if truncated {
		r.ctx.Warn(name, "result truncated to row cap")
	}
	return records, nil
}

// EvalCypherNode runs a rendered cypher expression and returns the first
// column of its first row, the shape sourceNode resolution expects.
func (r *Resolver) EvalCypherNode(ctx context.Context, name, statement string) (domain.Value, bool) {
	records, err := r.EvalCypherRows(ctx, name, statement)
	if err != nil || len(records) == 0 {
		return domain.Value{}, false
	}
	for _, v := range records[0] {
		return v, true
	}
	return domain.Value{}, false
}

// EvalPythonValue runs a rendered python-flavored expression through the
// sandbox and reports ok=false (with a warning already appended) for any
// non-Ok status.
func (r *Resolver) EvalPythonValue(ctx context.Context, name, expr string) (domain.Value, bool) {
	result := r.sandbox.Eval(ctx, expr, snapshotVars(r.ctx), domain.DefaultEvalTimeoutMs)
	switch result.Status {
	case ports.EvalOk:
		return result.Value, true
	case ports.EvalTimeout:
		r.ctx.Warn(name, "sandbox timeout after "+strconv.Itoa(domain.DefaultEvalTimeoutMs)+"ms")
	case ports.EvalDenied:
		r.ctx.Warn(name, "security violation: "+result.Message)
	default:
		r.ctx.Warn(name, "evaluation error: "+result.Message)
	}
	return domain.Value{}, false
}

// maybeParseJSONString implements "if the evaluator yields a string that
// parses as JSON, parse it and cache the parsed form".
func maybeParseJSONString(v domain.Value) domain.Value {
	if v.Kind() != domain.KindString {
		return v
	}
	s := strings.TrimSpace(v.AsString())
	if s == "" {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return v
	}
	parsed, err := domain.FromAny(decoded)
	if err != nil {
		return v
	}
	return parsed
}

func snapshotVars(c *domain.Context) map[string]domain.Value {
	out := make(map[string]domain.Value, len(c.VarCache)+len(c.Inputs))
	for k, v := range c.Inputs {
		out[k] = v
	}
	for k, rep := range c.VarCache {
		out[k] = rep.Value
	}
	if c.SourceNode != nil {
		out["sourceNode"] = domain.Node(c.SourceNode)
	} else {
		out["sourceNode"] = domain.Null()
	}
	return out
}

