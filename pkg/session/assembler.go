// Package session implements C6, the Session/Response assembler: request
// validation, Context construction, and response shaping around a single
// TraversalEngine.Traverse call, per SPEC_FULL.md §4.7.
package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowcoreio/flowcore/internal/traversal"
	"github.com/flowcoreio/flowcore/pkg/domain"
)

// Engine is the subset of *traversal.Engine the assembler depends on, so
// tests can substitute a fake.
type Engine interface {
	Traverse(ctx context.Context, startingSectionID string, reqCtx *domain.Context) (domain.Outcome, error)
	ResolveSection(ctx context.Context, sectionID string) (domain.Section, error)
	Inspect(ctx context.Context, sectionID string) (domain.Section, []domain.Question, []domain.Action, error)
}

var _ Engine = (*traversal.Engine)(nil)

// Assembler is C6. It is safe for concurrent use; each call constructs its
// own Context.
type Assembler struct {
	engine Engine
	log    *slog.Logger
}

func New(engine Engine, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{engine: engine, log: log}
}

// Request is the decoded JSON body of POST /v1/api/next_question_flow:
// the mandatory sectionId plus whatever input parameters the section
// declares.
type Request struct {
	SectionID string
	Inputs    map[string]domain.Value
}

// NextQuestionFlow implements the construction order from spec.md §4.7:
// validate, build Context, traverse, shape response.
func (a *Assembler) NextQuestionFlow(ctx context.Context, req Request) (*domain.Response, error) {
	if req.SectionID == "" {
		return nil, domain.NewInvalidRequest("sectionId", "sectionId is required")
	}

	section, err := a.engine.ResolveSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(section, req.Inputs); err != nil {
		return nil, err
	}

	traceID := uuid.NewString()
	reqCtx := domain.NewContext(traceID, req.Inputs)

	outcome, err := a.engine.Traverse(ctx, req.SectionID, reqCtx)
	if err != nil {
		a.log.Error("traversal failed", "sectionId", req.SectionID, "traceId", traceID, "err", err)
		return nil, err
	}

	return shapeResponse(req.SectionID, reqCtx, outcome), nil
}

// Inspect implements the supplemented read-only inspection endpoint from
// SPEC_FULL.md §4.7: it resolves a section and its directly reachable
// questions/actions without evaluating any predicate.
func (a *Assembler) Inspect(ctx context.Context, sectionID string) (domain.Section, []domain.Question, []domain.Action, error) {
	if sectionID == "" {
		return domain.Section{}, nil, nil, domain.NewInvalidRequest("sectionId", "sectionId is required")
	}
	return a.engine.Inspect(ctx, sectionID)
}

// validateInputs implements "all inputParams declared by the section" per
// spec.md §6: every declared parameter must be present in the request,
// missing ones fail before traversal starts.
func validateInputs(section domain.Section, inputs map[string]domain.Value) error {
	for _, param := range section.InputParams {
		if _, ok := inputs[param]; !ok {
			return domain.NewInvalidRequest(param, "missing required input parameter")
		}
	}
	return nil
}

// materialisedVars implements §4.7's "vars reports every variable that was
// actually materialised during the request" — the cache is preloaded with
// every input parameter so template/predicate lookups can find them, but
// inputs already appear in the response's requestVariables and are excluded
// here so vars reflects only variables the section/edge/action actually
// declared and evaluated.
func materialisedVars(reqCtx *domain.Context) map[string]domain.VarReport {
	out := make(map[string]domain.VarReport, len(reqCtx.VarCache))
	for name, rep := range reqCtx.VarCache {
		if _, isInput := reqCtx.Inputs[name]; isInput {
			continue
		}
		out[name] = rep
	}
	return out
}

func shapeResponse(sectionID string, reqCtx *domain.Context, outcome domain.Outcome) *domain.Response {
	resp := &domain.Response{
		SectionID:        sectionID,
		CreatedNodeIDs:   reqCtx.CreatedNodeIDs,
		Completed:        reqCtx.Completed,
		RequestVariables: reqCtx.Inputs,
		SourceNode:       reqCtx.SourceNode,
		Vars:             materialisedVars(reqCtx),
		Warnings:         reqCtx.Warnings,
	}
	if reqCtx.CreatedNodeIDs == nil {
		resp.CreatedNodeIDs = []int64{}
	}
	if reqCtx.Warnings == nil {
		resp.Warnings = []domain.Warning{}
	}
	if reqCtx.NextSectionID != "" {
		next := reqCtx.NextSectionID
		resp.NextSectionID = &next
	}

	switch outcome.Kind {
	case domain.OutcomeUnansweredQuestion:
		resp.Question = outcome.Question
		resp.SourceNode = outcome.SourceNode
	case domain.OutcomeAction, domain.OutcomeCompleted:
		resp.SourceNode = outcome.SourceNode
	}

	return resp
}
