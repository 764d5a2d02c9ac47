package ports

import (
	"context"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

// EvalStatus is the sum type SPEC_FULL.md §9's design notes call for:
// callers switch on it instead of inspecting error strings to distinguish
// recoverable evaluator failures from bugs.
type EvalStatus int

const (
	EvalOk EvalStatus = iota
	EvalTimeout
	EvalDenied
	EvalError
)

// EvalResult is the outcome of a single ScriptSandbox.Eval call.
type EvalResult struct {
	Status EvalStatus
	Value  domain.Value
	// Message carries the denial reason or exception text for
	// EvalDenied/EvalError; empty for EvalOk/EvalTimeout.
	Message string
}

// ScriptSandbox evaluates a restricted expression dialect against a value
// map under a timeout. Implementations must never let a runaway expression
// block the caller longer than timeoutMs plus a small cooperative-scheduling
// epsilon.
type ScriptSandbox interface {
	Eval(ctx context.Context, expression string, vars map[string]domain.Value, timeoutMs int) EvalResult
}
