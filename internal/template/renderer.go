// Package template implements C3, the TemplateRenderer: it rewrites
// `{{ path.to.value }}` placeholders in a source string into JSON-encoded
// literals drawn from an ordered lookup chain, per SPEC_FULL.md §4.3.
package template

import (
	"strings"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

// Lookup resolves a root name (the first path segment) to a Value. The
// caller supplies an ordered chain — variable cache, then inputs, then
// reserved names — collapsed into a single function, per Design Note 9's
// "single read function backed by an ordered chain of maps" guidance.
type Lookup func(root string) (domain.Value, bool)

// Renderer is stateless and safe for concurrent use.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

// Render replaces every `{{ <path> }}` occurrence in text with the JSON
// literal of the value the path resolves to via lookup. On a lookup or
// path-parse failure the placeholder is replaced by `null` and warn is
// invoked with a human-readable reason; warn may be nil.
//
// Rendering is pure and side-effect free aside from the warn callback.
// Whitespace inside the braces is stripped before parsing.
func (r *Renderer) Render(text string, lookup Lookup, warn func(reason string)) string {
	var out strings.Builder
	i := 0
	n := len(text)

	for i < n {
		start := strings.Index(text[i:], "{{")
		if start < 0 {
			out.WriteString(text[i:])
			break
		}
		out.WriteString(text[i : i+start])
		exprStart := i + start + 2

		end := strings.Index(text[exprStart:], "}}")
		if end < 0 {
			// Unterminated placeholder: emit the rest verbatim, matching
			// "pure, side-effect free" rendering — we do not invent a
			// warning for malformed template syntax the writer controls.
			out.WriteString(text[i+start:])
			break
		}
		rawPath := trimSpace(text[exprStart : exprStart+end])
		i = exprStart + end + 2

		literal, ok := r.resolveOne(rawPath, lookup)
		if !ok {
			out.WriteString("null")
			if warn != nil {
				warn("unresolved template path: " + rawPath)
			}
			continue
		}
		out.WriteString(literal)
	}

	return out.String()
}

func (r *Renderer) resolveOne(rawPath string, lookup Lookup) (string, bool) {
	segs, err := parsePath(rawPath)
	if err != nil {
		return "", false
	}

	root, rest := splitRoot(segs)
	val, found := lookup(root)
	if !found {
		return "", false
	}

	for _, seg := range rest {
		val, found = step(val, seg)
		if !found {
			return "", false
		}
	}

	literal, err := val.ToJSONLiteral()
	if err != nil {
		return "", false
	}
	return literal, true
}

// step walks one path segment against a resolved Value, collapsing a
// Node's implicit `properties` indirection: `node.foo` reads
// `node.properties.foo`, while `id`/`labels` remain direct accessors.
func step(v domain.Value, seg segment) (domain.Value, bool) {
	if seg.isIndex {
		if v.Kind() != domain.KindList {
			return domain.Value{}, false
		}
		list := v.AsList()
		if seg.index < 0 || seg.index >= len(list) {
			return domain.Value{}, false
		}
		return list[seg.index], true
	}

	switch v.Kind() {
	case domain.KindMap:
		child, ok := v.AsMap()[seg.key]
		return child, ok
	case domain.KindNode:
		node := v.AsNode()
		if node == nil {
			return domain.Value{}, false
		}
		switch seg.key {
		case "id":
			return domain.Int(node.ID), true
		case "labels":
			labels := make([]domain.Value, len(node.Labels))
			for i, l := range node.Labels {
				labels[i] = domain.String(l)
			}
			return domain.List(labels), true
		case "properties":
			return domain.Map(node.Properties), true
		default:
			child, ok := node.Properties[seg.key]
			return child, ok
		}
	default:
		return domain.Value{}, false
	}
}
