package traversal

import (
	"encoding/json"
	"fmt"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// nodeRefFromRecord extracts the single-node column produced by
// latestActiveNodeQuery.
func nodeRefFromRecord(rec ports.Record, column string) (*domain.NodeRef, bool) {
	v, ok := rec[column]
	if !ok || v.Kind() != domain.KindNode {
		return nil, false
	}
	return v.AsNode(), true
}

func propString(props map[string]domain.Value, key string) string {
	v, ok := props[key]
	if !ok || v.Kind() != domain.KindString {
		return ""
	}
	return v.AsString()
}

func propInt(props map[string]domain.Value, key string) int {
	v, ok := props[key]
	if !ok {
		return 0
	}
	if v.Kind() == domain.KindInt {
		return int(v.AsInt())
	}
	if v.Kind() == domain.KindFloat {
		return int(v.AsFloat())
	}
	return 0
}

func propBool(props map[string]domain.Value, key string) bool {
	v, ok := props[key]
	if !ok || v.Kind() != domain.KindBool {
		return false
	}
	return v.AsBool()
}

func propStringList(props map[string]domain.Value, key string) []string {
	v, ok := props[key]
	if !ok || v.Kind() != domain.KindList {
		return nil
	}
	out := make([]string, 0, len(v.AsList()))
	for _, elem := range v.AsList() {
		if elem.Kind() == domain.KindString {
			out = append(out, elem.AsString())
		}
	}
	return out
}

func propVariables(props map[string]domain.Value, key string) []domain.VariableDef {
	raw := propString(props, key)
	if raw == "" {
		return nil
	}
	var defs []domain.VariableDef
	if err := json.Unmarshal([]byte(raw), &defs); err != nil {
		return nil
	}
	return defs
}

func propStringMap(props map[string]domain.Value, key string) map[string]string {
	raw := propString(props, key)
	if raw == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func sectionFromNode(n *domain.NodeRef) domain.Section {
	p := n.Properties
	return domain.Section{
		ID:          propString(p, "sectionId"),
		Name:        propString(p, "name"),
		Version:     propInt(p, "versionNumber"),
		Active:      propBool(p, "active"),
		InputParams: propStringList(p, "inputParams"),
		Variables:   propVariables(p, "variablesJson"),
	}
}

func questionFromNode(n *domain.NodeRef) domain.Question {
	p := n.Properties
	return domain.Question{
		ID:          propString(p, "questionId"),
		Prompt:      propString(p, "prompt"),
		FieldID:     propString(p, "fieldId"),
		DataType:    domain.QuestionDataType(propString(p, "dataType")),
		OrderInForm: propInt(p, "orderInForm"),
		Version:     propInt(p, "versionNumber"),
		Active:      propBool(p, "active"),
		Variables:   propVariables(p, "variablesJson"),
	}
}

func actionFromNode(n *domain.NodeRef) domain.Action {
	p := n.Properties
	return domain.Action{
		ID:                propString(p, "actionId"),
		Type:              domain.ActionType(propString(p, "actionType")),
		Body:              propString(p, "body"),
		NextSectionID:     propString(p, "nextSectionId"),
		Returns:           propStringMap(p, "returnsJson"),
		ReturnImmediately: returnImmediatelyDefault(p),
		Variables:         propVariables(p, "variablesJson"),
		SourceNode:        propString(p, "sourceNode"),
		Version:           propInt(p, "versionNumber"),
		Active:            propBool(p, "active"),
	}
}

// returnImmediatelyDefault applies the documented default of true when the
// property is absent (SPEC_FULL.md / spec.md §3: "returnImmediately flag
// (default true)").
func returnImmediatelyDefault(p map[string]domain.Value) bool {
	v, ok := p["returnImmediately"]
	if !ok {
		return true
	}
	return v.Kind() == domain.KindBool && v.AsBool()
}

func edgeFromRecord(rec ports.Record) (domain.Edge, error) {
	relType, _ := rec["relType"]
	target, ok := rec["target"]
	if !ok || target.Kind() != domain.KindNode {
		return domain.Edge{}, fmt.Errorf("traversal: edge record missing target node")
	}
	node := target.AsNode()
	toKind := ""
	if labels, ok := rec["toLabels"]; ok && labels.Kind() == domain.KindList {
		for _, l := range labels.AsList() {
			if l.Kind() == domain.KindString {
				toKind = l.AsString()
				break
			}
		}
	}

	toID := businessIDOf(toKind, node.Properties)

	return domain.Edge{
		Type:        relType.AsString(),
		ToID:        toID,
		ToKind:      toKind,
		OrderInForm: valueToInt(rec["orderInForm"]),
		AskWhen:     valueToString(rec["askWhen"]),
		SourceNode:  valueToString(rec["sourceNode"]),
		Variables:   variablesFromValue(rec["variablesJson"]),
		CreatedAt:   int64(valueToInt(rec["createdAt"])),
	}, nil
}

func businessIDOf(label string, props map[string]domain.Value) string {
	switch label {
	case domain.LabelQuestion:
		return propString(props, "questionId")
	case domain.LabelAction:
		return propString(props, "actionId")
	case domain.LabelSection:
		return propString(props, "sectionId")
	default:
		return propString(props, "id")
	}
}

func valueToInt(v domain.Value) int {
	switch v.Kind() {
	case domain.KindInt:
		return int(v.AsInt())
	case domain.KindFloat:
		return int(v.AsFloat())
	default:
		return 0
	}
}

func valueToString(v domain.Value) string {
	if v.Kind() != domain.KindString {
		return ""
	}
	return v.AsString()
}

func variablesFromValue(v domain.Value) []domain.VariableDef {
	if v.Kind() != domain.KindString || v.AsString() == "" {
		return nil
	}
	var defs []domain.VariableDef
	if err := json.Unmarshal([]byte(v.AsString()), &defs); err != nil {
		return nil
	}
	return defs
}
