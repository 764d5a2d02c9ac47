// Package luasandbox implements C2, the ScriptSandbox, on top of
// github.com/yuin/gopher-lua: a restricted-library Lua VM built fresh per
// call, per SPEC_FULL.md §4.2.
package luasandbox

import (
	"context"
	"errors"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// removedGlobals are stripped from the base library after it loads: every
// one of them is a filesystem, dynamic-load, or GC escape hatch that has
// no place in a per-request expression evaluator.
var removedGlobals = []string{"dofile", "loadfile", "load", "require", "collectgarbage"}

// Sandbox is C2. It holds no state between calls; every Eval builds an
// independent *lua.LState so scripts can never observe another request.
type Sandbox struct{}

func New() *Sandbox { return &Sandbox{} }

var _ ports.ScriptSandbox = (*Sandbox)(nil)

// Eval implements ports.ScriptSandbox. expression is wrapped as a Lua
// return statement, so callers pass a bare expression ("a + b", not
// "return a + b").
func (s *Sandbox) Eval(ctx context.Context, expression string, vars map[string]domain.Value, timeoutMs int) ports.EvalResult {
	if hasDunderIdentifier(expression) {
		return ports.EvalResult{
			Status:  ports.EvalDenied,
			Message: "identifiers beginning with '_' are not permitted",
		}
	}

	if timeoutMs <= 0 {
		timeoutMs = domain.DefaultEvalTimeoutMs
	}
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	L := newRestrictedState()
	defer L.Close()
	L.SetContext(callCtx)

	for name, v := range vars {
		if name == "" || strings.HasPrefix(name, "_") {
			continue
		}
		L.SetGlobal(name, valueToLua(L, v))
	}
	installBuiltins(L)

	if err := L.DoString("return (" + expression + ")"); err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return ports.EvalResult{Status: ports.EvalTimeout}
		}
		return ports.EvalResult{Status: ports.EvalError, Message: err.Error()}
	}

	ret := L.Get(-1)
	L.Pop(1)

	val, err := luaToValue(ret)
	if err != nil {
		return ports.EvalResult{Status: ports.EvalError, Message: err.Error()}
	}
	return ports.EvalResult{Status: ports.EvalOk, Value: val}
}

// newRestrictedState loads only base/table/string/math, then removes the
// filesystem/dynamic-load/GC escape hatches base brings in. io, os,
// package, debug, and coroutine are never opened at all.
func newRestrictedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// hasDunderIdentifier is the pre-flight AST-free scan SPEC_FULL.md §4.2
// calls for: it rejects any "__" run (metatable/registry names) and any
// name that begins with '_', i.e. an underscore not preceded by a letter,
// digit, or another underscore — whether used as an identifier, a field
// (t._x), or a string key (t["_x"]).
func hasDunderIdentifier(expression string) bool {
	if strings.Contains(expression, "__") {
		return true
	}
	for i := 0; i < len(expression); i++ {
		if expression[i] != '_' {
			continue
		}
		if i == 0 {
			return true
		}
		p := expression[i-1]
		if !(p == '_' || ('0' <= p && p <= '9') || ('a' <= p && p <= 'z') || ('A' <= p && p <= 'Z')) {
			return true
		}
	}
	return false
}
