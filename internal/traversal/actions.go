package traversal

import (
	"context"
	"errors"

	"github.com/flowcoreio/flowcore/internal/variables"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/schema"
)

// runAction implements §4.6 for the three action types. It mutates reqCtx
// in place; the only errors it returns are those that must escape the
// traversal (a query error or unavailability raised from the action's own
// body), per §7's "surfaced when raised inside an action body" policy. A
// timeout in the body is left as the warning the resolver already recorded.
func (e *Engine) runAction(ctx context.Context, resolver *variables.Resolver, action domain.Action, sectionVars []domain.VariableDef, reqCtx *domain.Context) error {
	scopes := variables.ScopeSet{Node: action.Variables, Section: sectionVars}

	if action.SourceNode != "" {
		kind, body := domain.ClassifyPredicate(action.SourceNode)
		rendered := resolver.RenderPredicate("sourceNode", body, scopes)
		if result, ok := e.evalSourceExpr(ctx, resolver, kind, rendered); ok {
			reqCtx.SourceNode = asSourceNode(result)
		} else {
			reqCtx.SourceNode = nil
		}
	}

	var err error
	switch action.Type {
	case domain.ActionCreatePropertyNode:
		err = e.runCreatePropertyNode(ctx, resolver, action, scopes, reqCtx)
	case domain.ActionGotoSection:
		err = e.runGotoSection(ctx, resolver, action, scopes, reqCtx)
	case domain.ActionMarkSectionComplete:
		err = e.runMarkSectionComplete(ctx, resolver, action, scopes, reqCtx)
	default:
		reqCtx.Warn(action.ID, "unknown action type "+string(action.Type))
	}
	if errors.Is(err, domain.ErrEvaluatorTimeout) {
		return nil
	}
	return err
}

func (e *Engine) runCreatePropertyNode(ctx context.Context, resolver *variables.Resolver, action domain.Action, scopes variables.ScopeSet, reqCtx *domain.Context) error {
	rendered := resolver.RenderPredicate(action.ID, action.Body, scopes)

	records, err := resolver.EvalCypherRows(ctx, action.ID, rendered)
	if err != nil {
		return err
	}

	var created []int64
	for _, rec := range records {
		v, ok := rec["createdId"]
		if !ok {
			continue
		}
		created = append(created, int64(valueToInt(v)))
	}
	reqCtx.AddCreatedNodeIDs(created...)

	if typeStr, ok := action.Returns["createdNodeIds"]; ok {
		validateReturnShape(reqCtx, action.ID, "createdNodeIds", typeStr, created)
	}
	return nil
}

// validateReturnShape checks a collected action output against its declared
// returns schema entry, recording a warning rather than failing the
// traversal — the schema documents the contract, it does not gate it.
func validateReturnShape(reqCtx *domain.Context, actionID, field, typeStr string, value any) {
	t, err := schema.ParseType(typeStr)
	if err != nil {
		reqCtx.Warn(actionID, "returns."+field+": "+err.Error())
		return
	}
	if err := t.Validate(value); err != nil {
		reqCtx.Warn(actionID, "returns."+field+": "+err.Error())
	}
}

func (e *Engine) runGotoSection(ctx context.Context, resolver *variables.Resolver, action domain.Action, scopes variables.ScopeSet, reqCtx *domain.Context) error {
	if action.NextSectionID != "" {
		reqCtx.NextSectionID = action.NextSectionID
		return nil
	}
	if action.Body == "" {
		reqCtx.Warn(action.ID, "GotoSection action has neither nextSectionId nor a body expression")
		return nil
	}

	kind, body := domain.ClassifyPredicate(action.Body)
	rendered := resolver.RenderPredicate(action.ID, body, scopes)
	if kind == domain.PredicateCypher {
		val, ok := resolver.EvalCypherNode(ctx, action.ID, rendered)
		if ok {
			reqCtx.NextSectionID = val.AsString()
		}
		return nil
	}
	val, ok := resolver.EvalPythonValue(ctx, action.ID, rendered)
	if ok {
		reqCtx.NextSectionID = val.AsString()
	}
	return nil
}

func (e *Engine) runMarkSectionComplete(ctx context.Context, resolver *variables.Resolver, action domain.Action, scopes variables.ScopeSet, reqCtx *domain.Context) error {
	if action.Body != "" {
		rendered := resolver.RenderPredicate(action.ID, action.Body, scopes)
		if _, err := resolver.EvalCypherRows(ctx, action.ID, rendered); err != nil {
			return err
		}
	}
	reqCtx.Completed = true
	return nil
}
