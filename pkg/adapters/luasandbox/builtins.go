package luasandbox

import (
	"regexp"
	"sort"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// installBuiltins wires the exact whitelist SPEC_FULL.md §4.2 names:
// len/min/max/sum/sorted as globals, plus the re and date modules. Nothing
// else is added to the global table beyond what newRestrictedState leaves
// in place.
func installBuiltins(L *lua.LState) {
	L.SetGlobal("len", L.NewFunction(builtinLen))
	L.SetGlobal("min", L.NewFunction(builtinMin))
	L.SetGlobal("max", L.NewFunction(builtinMax))
	L.SetGlobal("sum", L.NewFunction(builtinSum))
	L.SetGlobal("sorted", L.NewFunction(builtinSorted))
	L.SetGlobal("re", buildReModule(L))
	L.SetGlobal("date", buildDateModule(L))
}

func builtinLen(L *lua.LState) int {
	switch v := L.Get(1).(type) {
	case lua.LString:
		L.Push(lua.LNumber(len(string(v))))
	case *lua.LTable:
		L.Push(lua.LNumber(v.Len()))
	default:
		L.Push(lua.LNumber(0))
	}
	return 1
}

// numericOperands collects either the varargs or, when a single table
// argument is given, the table's sequence values, as float64s.
func numericOperands(L *lua.LState) []float64 {
	top := L.GetTop()
	if top == 1 {
		if tbl, ok := L.Get(1).(*lua.LTable); ok {
			out := make([]float64, 0, tbl.Len())
			for i := 1; i <= tbl.Len(); i++ {
				if n, ok := tbl.RawGetInt(i).(lua.LNumber); ok {
					out = append(out, float64(n))
				}
			}
			return out
		}
	}
	out := make([]float64, 0, top)
	for i := 1; i <= top; i++ {
		if n, ok := L.Get(i).(lua.LNumber); ok {
			out = append(out, float64(n))
		}
	}
	return out
}

func builtinMin(L *lua.LState) int {
	vals := numericOperands(L)
	if len(vals) == 0 {
		L.Push(lua.LNil)
		return 1
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	L.Push(lua.LNumber(m))
	return 1
}

func builtinMax(L *lua.LState) int {
	vals := numericOperands(L)
	if len(vals) == 0 {
		L.Push(lua.LNil)
		return 1
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	L.Push(lua.LNumber(m))
	return 1
}

func builtinSum(L *lua.LState) int {
	var total float64
	for _, v := range numericOperands(L) {
		total += v
	}
	L.Push(lua.LNumber(total))
	return 1
}

// builtinSorted accepts a table of numbers or a table of strings and
// returns a new table in ascending order; mixed tables sort by string
// representation.
func builtinSorted(L *lua.LState) int {
	tbl := L.CheckTable(1)
	n := tbl.Len()

	allNumbers := true
	nums := make([]float64, 0, n)
	strs := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		v := tbl.RawGetInt(i)
		if num, ok := v.(lua.LNumber); ok {
			nums = append(nums, float64(num))
		} else {
			allNumbers = false
		}
		strs = append(strs, v.String())
	}

	out := L.NewTable()
	if allNumbers {
		sort.Float64s(nums)
		for i, v := range nums {
			out.RawSetInt(i+1, lua.LNumber(v))
		}
	} else {
		sort.Strings(strs)
		for i, s := range strs {
			out.RawSetInt(i+1, lua.LString(s))
		}
	}
	L.Push(out)
	return 1
}

// buildReModule wires match/find/replace against Go's regexp, the one
// pattern dialect the sandbox exposes.
func buildReModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	mod.RawSetString("match", L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		pattern := L.CheckString(2)
		re, err := regexp.Compile(pattern)
		if err != nil {
			L.RaiseError("re.match: %s", err.Error())
			return 0
		}
		L.Push(lua.LBool(re.MatchString(s)))
		return 1
	}))
	mod.RawSetString("find", L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		pattern := L.CheckString(2)
		re, err := regexp.Compile(pattern)
		if err != nil {
			L.RaiseError("re.find: %s", err.Error())
			return 0
		}
		found := re.FindString(s)
		if found == "" && !re.MatchString(s) {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(found))
		return 1
	}))
	mod.RawSetString("replace", L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		pattern := L.CheckString(2)
		repl := L.CheckString(3)
		re, err := regexp.Compile(pattern)
		if err != nil {
			L.RaiseError("re.replace: %s", err.Error())
			return 0
		}
		L.Push(lua.LString(re.ReplaceAllString(s, repl)))
		return 1
	}))
	return mod
}

// buildDateModule wires now/parse/format/add against Go's time package,
// representing instants as Unix-second float timestamps so they pass
// through the numeric Lua/domain.Value boundary cleanly.
func buildDateModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	mod.RawSetString("now", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(time.Now().UTC().Unix()))
		return 1
	}))
	mod.RawSetString("parse", L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			L.RaiseError("date.parse: %s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(t.Unix()))
		return 1
	}))
	mod.RawSetString("format", L.NewFunction(func(L *lua.LState) int {
		ts := L.CheckNumber(1)
		layout := time.RFC3339
		if L.GetTop() >= 2 {
			layout = L.CheckString(2)
		}
		t := time.Unix(int64(ts), 0).UTC()
		L.Push(lua.LString(t.Format(layout)))
		return 1
	}))
	mod.RawSetString("add", L.NewFunction(func(L *lua.LState) int {
		ts := L.CheckNumber(1)
		seconds := L.CheckNumber(2)
		L.Push(lua.LNumber(float64(ts) + float64(seconds)))
		return 1
	}))
	return mod
}
