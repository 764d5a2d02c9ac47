// Package http implements the chi-routed HTTP surface from SPEC_FULL.md
// §6, wrapping pkg/session.Assembler.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/observability"
	"github.com/flowcoreio/flowcore/pkg/session"
)

// Assembler is the subset of *pkg/session.Assembler the HTTP adapter
// depends on.
type Assembler interface {
	NextQuestionFlow(ctx context.Context, req session.Request) (*domain.Response, error)
	Inspect(ctx context.Context, sectionID string) (domain.Section, []domain.Question, []domain.Action, error)
}

// Server implements the chi handlers around Assembler.
type Server struct {
	assembler Assembler
	log       *slog.Logger
}

// NewHandler builds the router: the next_question_flow/sections routes
// plus the ambient /healthz and /metrics endpoints.
func NewHandler(assembler Assembler, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{assembler: assembler, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Post("/v1/api/next_question_flow", s.handleNextQuestionFlow)
	r.Get("/v1/api/sections/{id}", s.handleInspectSection)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleNextQuestionFlow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	traceID := uuid.NewString()

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		invalid := domain.NewInvalidRequest("body", "malformed JSON body")
		writeError(w, traceID, statusFor(invalid), invalid)
		return
	}

	sectionID, inputs, err := decodeRequest(payload)
	if err != nil {
		writeError(w, traceID, statusFor(err), err)
		return
	}

	resp, err := s.assembler.NextQuestionFlow(r.Context(), session.Request{SectionID: sectionID, Inputs: inputs})
	observability.RequestDuration.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("next_question_flow failed", "traceId", traceID, "sectionId", sectionID, "err", err)
		writeError(w, traceID, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInspectSection(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()
	sectionID := chi.URLParam(r, "id")

	section, questions, actions, err := s.assembler.Inspect(r.Context(), sectionID)
	if err != nil {
		writeError(w, traceID, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"section":   section,
		"questions": questions,
		"actions":   actions,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeRequest pulls sectionId out and lifts every other field into the
// input-parameter map as a domain.Value, per spec.md §6's request shape.
func decodeRequest(payload map[string]json.RawMessage) (string, map[string]domain.Value, error) {
	rawSection, ok := payload["sectionId"]
	if !ok {
		return "", nil, domain.NewInvalidRequest("sectionId", "sectionId is required")
	}
	var sectionID string
	if err := json.Unmarshal(rawSection, &sectionID); err != nil || sectionID == "" {
		return "", nil, domain.NewInvalidRequest("sectionId", "sectionId must be a non-empty string")
	}

	inputs := make(map[string]domain.Value, len(payload)-1)
	for key, raw := range payload {
		if key == "sectionId" {
			continue
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return "", nil, domain.NewInvalidRequest(key, "malformed value")
		}
		val, err := domain.FromAny(decoded)
		if err != nil {
			return "", nil, domain.NewInvalidRequest(key, err.Error())
		}
		inputs[key] = val
	}
	return sectionID, inputs, nil
}

// statusFor maps the domain error taxonomy onto spec.md §6/§7's split:
// section-not-found, evaluator-timeout, and invalid-payload are domain
// errors surfaced as 409; GraphStore unavailability is surfaced as 500
// per §7 ("Unavailable — GraphStore cannot be reached"), same as any
// unrecognised error shape.
func statusFor(err error) int {
	var engineErr *domain.EngineError
	if errors.As(err, &engineErr) {
		if errors.Is(engineErr, domain.ErrUnavailable) {
			return http.StatusInternalServerError
		}
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
	TraceID   string `json:"traceId"`
}

func writeError(w http.ResponseWriter, traceID string, status int, err error) {
	kind := "internal"
	var engineErr *domain.EngineError
	if errors.As(err, &engineErr) {
		kind = errorKind(engineErr)
	}
	writeJSON(w, status, errorBody{ErrorType: kind, Message: err.Error(), TraceID: traceID})
}

func errorKind(e *domain.EngineError) string {
	switch {
	case errors.Is(e, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(e, domain.ErrSectionNotFound):
		return "section_not_found"
	case errors.Is(e, domain.ErrEvaluatorTimeout):
		return "evaluator_timeout"
	case errors.Is(e, domain.ErrSecurityViolation):
		return "security_violation"
	case errors.Is(e, domain.ErrQueryError):
		return "query_error"
	case errors.Is(e, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
