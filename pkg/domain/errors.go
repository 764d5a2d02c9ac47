package domain

import "errors"

// Error kinds. Only InvalidRequest, SectionNotFound, action-body QueryError,
// and Unavailable ever escape a traversal (SPEC_FULL.md §7); the rest are
// recovered locally and surface only as warnings.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSectionNotFound  = errors.New("section not found")
	ErrEvaluatorTimeout = errors.New("evaluator timeout")
	ErrSecurityViolation = errors.New("security violation")
	ErrQueryError       = errors.New("query error")
	ErrUnavailable      = errors.New("graph store unavailable")
)

// EngineError wraps a sentinel Kind with a human-readable message and
// optional field context, the shape the HTTP adapter maps to
// {errorType, message, traceId}.
type EngineError struct {
	Kind    error
	Message string
	Field   string
}

func (e *EngineError) Error() string {
	if e.Field != "" {
		return e.Kind.Error() + ": " + e.Field + ": " + e.Message
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *EngineError) Unwrap() error { return e.Kind }

// Is allows errors.Is(err, domain.ErrSectionNotFound) to match an
// *EngineError wrapping that sentinel.
func (e *EngineError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func NewInvalidRequest(field, message string) error {
	return &EngineError{Kind: ErrInvalidRequest, Field: field, Message: message}
}

func NewSectionNotFound(sectionID string) error {
	return &EngineError{Kind: ErrSectionNotFound, Field: sectionID, Message: "no active version exists"}
}
