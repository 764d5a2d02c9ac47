package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies which alternative of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindNode
)

// Value is the tagged variant used everywhere a template, evaluator, or
// GraphStore record hands data back to the traversal core. Rendered
// template values, sandboxed script results, and query result columns are
// all normalized into a Value before anything in the core inspects them.
//
// Consumers must not reach past this type into host-language reflection;
// the only operations are ToJSONLiteral, Truthy, and the accessors below.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
	node *NodeRef
}

// NodeRef is the reduced form of a graph vertex exposed to templates and
// scripts: labels, an opaque id, and its properties collapsed to a flat map.
type NodeRef struct {
	ID         int64            `json:"id"`
	Labels     []string         `json:"labels"`
	Properties map[string]Value `json:"properties"`
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func List(vs []Value) Value      { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}
func Node(n *NodeRef) Value { return Value{kind: KindNode, node: n} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int64      { return v.i }
func (v Value) AsFloat() float64  { return v.f }
func (v Value) AsString() string  { return v.s }
func (v Value) AsList() []Value   { return v.list }
func (v Value) AsMap() map[string]Value { return v.m }
func (v Value) AsNode() *NodeRef  { return v.node }

// Truthy implements the sandbox truthiness rule pinned down in
// SPEC_FULL.md Decision D3: null, false, zero, and empty
// string/list/map are falsy; everything else (including negative numbers)
// is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.m) > 0
	case KindNode:
		return v.node != nil
	default:
		return false
	}
}

// ToJSONLiteral renders the value as a syntactically-legal JSON literal,
// the form TemplateRenderer substitutes into query/script text.
func (v Value) ToJSONLiteral() (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MarshalJSON implements json.Marshaler for Value, collapsing a Node's
// implicit `properties` indirection is NOT performed here; ToJSONLiteral
// callers that want `node.foo == node.properties.foo` use Lookup, not this.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		return json.Marshal(v.list)
	case KindMap:
		return json.Marshal(v.m)
	case KindNode:
		if v.node == nil {
			return []byte("null"), nil
		}
		return json.Marshal(map[string]any{
			"id":         v.node.ID,
			"labels":     v.node.Labels,
			"properties": v.node.Properties,
		})
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// FromAny lifts a plain Go value (as decoded from JSON, a GraphDriver
// record, or a sandbox result) into a Value. Unrecognized types are
// rejected rather than silently coerced, since a coercion here would
// bypass the tagged-variant guarantee the rest of the core relies on.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case float32:
		return Float(float64(t)), nil
	case string:
		return String(t), nil
	case Value:
		return t, nil
	case []any:
		out := make([]Value, 0, len(t))
		for _, elem := range t {
			ev, err := FromAny(elem)
			if err != nil {
				return Value{}, err
			}
			out = append(out, ev)
		}
		return List(out), nil
	case []Value:
		return List(t), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, elem := range t {
			ev, err := FromAny(elem)
			if err != nil {
				return Value{}, err
			}
			out[k] = ev
		}
		return Map(out), nil
	case map[string]Value:
		return Map(t), nil
	case *NodeRef:
		return Node(t), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported type %T", v)
	}
}

// MustFromAny is FromAny for call sites that have already validated the
// input shape (e.g. json.Unmarshal into any). It panics on failure, which
// is appropriate only for programmer errors, never for evaluator output.
func MustFromAny(v any) Value {
	val, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return val
}

// SortedKeys returns a Map's keys in ascending order, used by the Lua
// sandbox to convert maps and node properties into tables deterministically.
func SortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
