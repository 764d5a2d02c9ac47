package luasandbox

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

// valueToLua lifts a domain.Value into the Lua value space. Lists become
// 1-indexed sequence tables (Lua convention); maps become string-keyed
// tables; a Node becomes the "native node-mapping form" — a table with
// id/labels/properties — that SPEC_FULL.md §6 allows as an alternative to
// the JSON node shape.
func valueToLua(L *lua.LState, v domain.Value) lua.LValue {
	switch v.Kind() {
	case domain.KindNull:
		return lua.LNil
	case domain.KindBool:
		return lua.LBool(v.AsBool())
	case domain.KindInt:
		return lua.LNumber(float64(v.AsInt()))
	case domain.KindFloat:
		return lua.LNumber(v.AsFloat())
	case domain.KindString:
		return lua.LString(v.AsString())
	case domain.KindList:
		tbl := L.NewTable()
		for i, elem := range v.AsList() {
			tbl.RawSetInt(i+1, valueToLua(L, elem))
		}
		return tbl
	case domain.KindMap:
		tbl := L.NewTable()
		for _, k := range domain.SortedKeys(v.AsMap()) {
			tbl.RawSetString(k, valueToLua(L, v.AsMap()[k]))
		}
		return tbl
	case domain.KindNode:
		node := v.AsNode()
		if node == nil {
			return lua.LNil
		}
		tbl := L.NewTable()
		tbl.RawSetString("id", lua.LNumber(float64(node.ID)))
		labels := L.NewTable()
		for i, l := range node.Labels {
			labels.RawSetInt(i+1, lua.LString(l))
		}
		tbl.RawSetString("labels", labels)
		props := L.NewTable()
		for _, k := range domain.SortedKeys(node.Properties) {
			props.RawSetString(k, valueToLua(L, node.Properties[k]))
		}
		tbl.RawSetString("properties", props)
		return tbl
	default:
		return lua.LNil
	}
}

// luaToValue is the inverse of valueToLua. A table is treated as a list
// when its keys are exactly the dense sequence 1..n, and as a map
// otherwise.
func luaToValue(lv lua.LValue) (domain.Value, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return domain.Null(), nil
	case lua.LBool:
		return domain.Bool(bool(v)), nil
	case lua.LNumber:
		return numberToValue(v), nil
	case lua.LString:
		return domain.String(string(v)), nil
	case *lua.LTable:
		return tableToValue(v)
	default:
		return domain.Value{}, fmt.Errorf("luasandbox: unsupported lua result type %s", lv.Type().String())
	}
}

func numberToValue(n lua.LNumber) domain.Value {
	f := float64(n)
	if f == float64(int64(f)) {
		return domain.Int(int64(f))
	}
	return domain.Float(f)
}

func tableToValue(tbl *lua.LTable) (domain.Value, error) {
	n := tbl.Len()
	isSeq := n > 0
	if isSeq {
		count := 0
		tbl.ForEach(func(lua.LValue, lua.LValue) { count++ })
		isSeq = count == n
	}

	if isSeq {
		out := make([]domain.Value, 0, n)
		for i := 1; i <= n; i++ {
			elem, err := luaToValue(tbl.RawGetInt(i))
			if err != nil {
				return domain.Value{}, err
			}
			out = append(out, elem)
		}
		return domain.List(out), nil
	}

	out := make(map[string]domain.Value)
	var walkErr error
	tbl.ForEach(func(k, val lua.LValue) {
		if walkErr != nil {
			return
		}
		ev, err := luaToValue(val)
		if err != nil {
			walkErr = err
			return
		}
		out[k.String()] = ev
	})
	if walkErr != nil {
		return domain.Value{}, walkErr
	}
	return domain.Map(out), nil
}
