// Package traversal implements C5, the TraversalEngine: the sorted-edge
// selection, source-node resolution, and question/action dispatch
// algorithm at the heart of a request, per SPEC_FULL.md §4.5.
package traversal

import (
	"context"
	"sort"

	"github.com/flowcoreio/flowcore/internal/store"
	"github.com/flowcoreio/flowcore/internal/template"
	"github.com/flowcoreio/flowcore/internal/variables"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// TraceSink observes traversal steps for diagnostics; it is never
// consulted for control flow. NullTraceSink discards everything.
type TraceSink interface {
	Step(nodeKind, nodeID string)
	EdgeSelected(fromID, toID string, orderInForm int)
}

type NullTraceSink struct{}

func (NullTraceSink) Step(string, string)              {}
func (NullTraceSink) EdgeSelected(string, string, int) {}

// Engine is C5. It is stateless aside from its collaborators and is safe
// for concurrent use across requests.
type Engine struct {
	gs       *store.GraphStore
	sandbox  ports.ScriptSandbox
	renderer *template.Renderer
	trace    TraceSink
}

func New(gs *store.GraphStore, sandbox ports.ScriptSandbox, opts ...Option) *Engine {
	e := &Engine{
		gs:       gs,
		sandbox:  sandbox,
		renderer: template.New(),
		trace:    NullTraceSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Option func(*Engine)

func WithTraceSink(sink TraceSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.trace = sink
		}
	}
}

// node is the current position of the traversal: a resolved
// latest-active vertex plus the internal id its edges hang off of.
type node struct {
	kind       string
	internalID int64
	variables  []domain.VariableDef
	question   *domain.Question
}

// Traverse runs the algorithm from SPEC_FULL.md §4.5 starting at the
// latest-active version of startingSectionID.
func (e *Engine) Traverse(ctx context.Context, startingSectionID string, reqCtx *domain.Context) (domain.Outcome, error) {
	sectionNodeRef, section, err := e.resolveSectionNode(ctx, startingSectionID)
	if err != nil {
		return domain.Outcome{}, err
	}

	resolver := variables.New(reqCtx, e.gs, e.sandbox, e.renderer)
	resolver.PreloadInputs()

	cur := node{kind: domain.LabelSection, internalID: sectionNodeRef.ID, variables: section.Variables}
	e.trace.Step(cur.kind, section.ID)

	return e.step(ctx, resolver, cur, section.Variables, reqCtx)
}

// step implements steps 3-6 of §4.5 for the current node, recursing on a
// Question dispatch (answered) or an Action dispatch with
// returnImmediately=false.
func (e *Engine) step(ctx context.Context, resolver *variables.Resolver, cur node, sectionVars []domain.VariableDef, reqCtx *domain.Context) (domain.Outcome, error) {
	edges, err := e.loadOutgoingEdges(ctx, cur.internalID)
	if err != nil {
		return domain.Outcome{}, err
	}

	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].OrderInForm != edges[j].OrderInForm {
			return edges[i].OrderInForm < edges[j].OrderInForm
		}
		return edges[i].CreatedAt < edges[j].CreatedAt
	})

	for _, edge := range edges {
		scopes := variables.ScopeSet{Edge: edge.Variables, Node: cur.variables, Section: sectionVars}

		truthy, evalErr := e.evalAskWhen(ctx, resolver, edge.AskWhen, scopes)
		if evalErr != nil || !truthy {
			continue
		}

		if edge.SourceNode != "" {
			if !e.resolveSourceNode(ctx, resolver, edge.SourceNode, scopes, reqCtx) {
				// Failure clears the source and aborts this edge (§4.5
				// edge-case policy); try the next one.
				continue
			}
		}

		e.trace.EdgeSelected(cur.kind, edge.ToID, edge.OrderInForm)

		switch edge.ToKind {
		case domain.LabelQuestion:
			return e.dispatchQuestion(ctx, resolver, edge.ToID, sectionVars, reqCtx)
		case domain.LabelAction:
			return e.dispatchAction(ctx, resolver, edge.ToID, sectionVars, reqCtx)
		default:
			continue
		}
	}

	return domain.Outcome{Kind: domain.OutcomeCompleted, SourceNode: reqCtx.SourceNode}, nil
}

func (e *Engine) dispatchQuestion(ctx context.Context, resolver *variables.Resolver, questionID string, sectionVars []domain.VariableDef, reqCtx *domain.Context) (domain.Outcome, error) {
	qNodeRef, err := e.resolveLatestActive(ctx, domain.LabelQuestion, "questionId", questionID)
	if err != nil {
		return domain.Outcome{}, err
	}
	if qNodeRef == nil {
		return domain.Outcome{}, &domain.EngineError{Kind: domain.ErrQueryError, Message: "traversal target question " + questionID + " has no active version"}
	}
	question := questionFromNode(qNodeRef)
	e.trace.Step(domain.LabelQuestion, question.ID)

	answered := e.checkAnswered(ctx, reqCtx, question.ID)
	if answered {
		next := node{kind: domain.LabelQuestion, internalID: qNodeRef.ID, variables: question.Variables, question: &question}
		return e.step(ctx, resolver, next, sectionVars, reqCtx)
	}

	return domain.Outcome{
		Kind:       domain.OutcomeUnansweredQuestion,
		Question:   &question,
		SourceNode: reqCtx.SourceNode,
	}, nil
}

func (e *Engine) dispatchAction(ctx context.Context, resolver *variables.Resolver, actionID string, sectionVars []domain.VariableDef, reqCtx *domain.Context) (domain.Outcome, error) {
	aNodeRef, err := e.resolveLatestActive(ctx, domain.LabelAction, "actionId", actionID)
	if err != nil {
		return domain.Outcome{}, err
	}
	if aNodeRef == nil {
		return domain.Outcome{}, &domain.EngineError{Kind: domain.ErrQueryError, Message: "traversal target action " + actionID + " has no active version"}
	}
	action := actionFromNode(aNodeRef)
	e.trace.Step(domain.LabelAction, action.ID)

	if err := e.runAction(ctx, resolver, action, sectionVars, reqCtx); err != nil {
		return domain.Outcome{}, err
	}

	if action.ReturnImmediately {
		return domain.Outcome{
			Kind:          domain.OutcomeAction,
			ActionType:    action.Type,
			SourceNode:    reqCtx.SourceNode,
			NextSectionID: reqCtx.NextSectionID,
		}, nil
	}

	next := node{kind: domain.LabelAction, internalID: aNodeRef.ID, variables: action.Variables}
	return e.step(ctx, resolver, next, sectionVars, reqCtx)
}

// evalAskWhen implements §4.5 step 4a. An empty predicate is always true;
// a cypher-prefixed predicate is truthy on ≥1 row; a python-prefixed or
// bare predicate follows domain.Value.Truthy() after sandbox evaluation.
// Any evaluation failure is treated as false (a warning is still
// appended) so the caller simply tries the next edge.
func (e *Engine) evalAskWhen(ctx context.Context, resolver *variables.Resolver, raw string, scopes variables.ScopeSet) (bool, error) {
	kind, body := domain.ClassifyPredicate(raw)
	if kind == domain.PredicateNone {
		return true, nil
	}

	rendered := resolver.RenderPredicate("askWhen", body, scopes)

	switch kind {
	case domain.PredicateCypher:
		rows, err := resolver.EvalCypherRows(ctx, "askWhen", rendered)
		if err != nil {
			return false, err
		}
		return len(rows) > 0, nil
	default: // python or bare template text, both evaluated by the sandbox
		val, ok := resolver.EvalPythonValue(ctx, "askWhen", rendered)
		if !ok {
			return false, nil
		}
		return val.Truthy(), nil
	}
}

// resolveSourceNode implements §4.5 step 5. On success it replaces
// reqCtx.SourceNode and returns true; on failure it clears the source,
// appends a warning (already done by the resolver helpers), and returns
// false so the caller aborts the current edge.
func (e *Engine) resolveSourceNode(ctx context.Context, resolver *variables.Resolver, raw string, scopes variables.ScopeSet, reqCtx *domain.Context) bool {
	kind, body := domain.ClassifyPredicate(raw)
	rendered := resolver.RenderPredicate("sourceNode", body, scopes)

	result, ok := e.evalSourceExpr(ctx, resolver, kind, rendered)
	if !ok {
		reqCtx.SourceNode = nil
		return false
	}

	reqCtx.SourceNode = asSourceNode(result)
	return true
}

// evalSourceExpr dispatches a rendered sourceNode expression to the
// cypher or python evaluator; a bare/template-only expression (no
// prefix) is treated as python, matching askWhen's default.
func (e *Engine) evalSourceExpr(ctx context.Context, resolver *variables.Resolver, kind domain.PredicateKind, rendered string) (domain.Value, bool) {
	if kind == domain.PredicateCypher {
		return resolver.EvalCypherNode(ctx, "sourceNode", rendered)
	}
	return resolver.EvalPythonValue(ctx, "sourceNode", rendered)
}

// asSourceNode wraps a non-node evaluator result so downstream template
// lookups against sourceNode.value still resolve.
func asSourceNode(result domain.Value) *domain.NodeRef {
	if result.Kind() == domain.KindNode {
		return result.AsNode()
	}
	return &domain.NodeRef{Properties: map[string]domain.Value{"value": result}}
}

func (e *Engine) checkAnswered(ctx context.Context, reqCtx *domain.Context, questionID string) bool {
	if reqCtx.SourceNode == nil {
		// An unbound source treats the answered-ness query as unbound and
		// returns zero rows without issuing one (spec.md §8 edge case).
		return false
	}

	stmt, params := answeredCheckQuery(reqCtx.SourceNode.ID, questionID)
	records, err := e.gs.RunQuery(ctx, stmt, params, domain.DefaultEvalTimeoutMs, func(int) {})
	if err != nil {
		reqCtx.Warn(questionID, "answered-check query failed: "+err.Error())
		return false
	}
	return len(records) > 0
}

func (e *Engine) loadOutgoingEdges(ctx context.Context, fromInternalID int64) ([]domain.Edge, error) {
	stmt, params := outgoingEdgesQuery(fromInternalID)
	records, err := e.gs.RunQuery(ctx, stmt, params, domain.DefaultEvalTimeoutMs, func(int) {})
	if err != nil {
		return nil, err
	}

	edges := make([]domain.Edge, 0, len(records))
	for _, rec := range records {
		edge, err := edgeFromRecord(rec)
		if err != nil {
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// ResolveSection resolves the latest-active version of a section without
// running a traversal, for pkg/session.Assembler's request validation and
// its supplemented Inspect endpoint.
func (e *Engine) ResolveSection(ctx context.Context, sectionID string) (domain.Section, error) {
	_, section, err := e.resolveSectionNode(ctx, sectionID)
	return section, err
}

func (e *Engine) resolveSectionNode(ctx context.Context, sectionID string) (*domain.NodeRef, domain.Section, error) {
	ref, err := e.resolveLatestActive(ctx, domain.LabelSection, "sectionId", sectionID)
	if err != nil {
		return nil, domain.Section{}, err
	}
	if ref == nil {
		return nil, domain.Section{}, domain.NewSectionNotFound(sectionID)
	}
	return ref, sectionFromNode(ref), nil
}

// Inspect resolves a section and the questions/actions its outgoing
// PRECEDES/TRIGGERS edges reach directly, without evaluating any askWhen
// predicate or running a traversal. It backs the supplemented read-only
// GET /v1/api/sections/{id} endpoint.
func (e *Engine) Inspect(ctx context.Context, sectionID string) (domain.Section, []domain.Question, []domain.Action, error) {
	sectionNodeRef, section, err := e.resolveSectionNode(ctx, sectionID)
	if err != nil {
		return domain.Section{}, nil, nil, err
	}

	edges, err := e.loadOutgoingEdges(ctx, sectionNodeRef.ID)
	if err != nil {
		return domain.Section{}, nil, nil, err
	}

	var questions []domain.Question
	var actions []domain.Action
	for _, edge := range edges {
		switch edge.ToKind {
		case domain.LabelQuestion:
			ref, err := e.resolveLatestActive(ctx, domain.LabelQuestion, "questionId", edge.ToID)
			if err != nil || ref == nil {
				continue
			}
			questions = append(questions, questionFromNode(ref))
		case domain.LabelAction:
			ref, err := e.resolveLatestActive(ctx, domain.LabelAction, "actionId", edge.ToID)
			if err != nil || ref == nil {
				continue
			}
			actions = append(actions, actionFromNode(ref))
		}
	}

	return section, questions, actions, nil
}

// resolveLatestActive returns nil (not an error) when no active version
// exists, so callers pick the right sentinel (SectionNotFound at the
// entry point, an internal query error for a dangling edge target).
func (e *Engine) resolveLatestActive(ctx context.Context, label, idProp, id string) (*domain.NodeRef, error) {
	stmt, params := latestActiveNodeQuery(label, idProp, id)
	records, err := e.gs.RunQuery(ctx, stmt, params, domain.DefaultEvalTimeoutMs, func(int) {})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	ref, ok := nodeRefFromRecord(records[0], "n")
	if !ok {
		return nil, nil
	}
	return ref, nil
}
