// Package memgraph implements pkg/ports.GraphDriver as an in-process
// fixture: a small graph held in Go maps, dispatching on the marker
// comment a statement begins with rather than parsing Cypher. Most marker
// kinds mirror the canonical queries internal/traversal/queries.go
// generates; one, create_property_node, stands in for an author-written
// action body, which is free-text Cypher this fixture cannot execute. It
// backs the test suite; the CLI commands connect through the Neo4j driver.
package memgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// Query kinds mirror the literal strings internal/traversal/queries.go
// embeds in its marker comments. They are duplicated here rather than
// imported (internal/traversal does not export them) — the contract
// between the two packages is the string value, not a shared symbol.
const (
	kindLatestActiveNode   = "latest_active_node"
	kindOutgoingEdges      = "outgoing_edges"
	kindAnsweredCheck      = "answered_check"
	kindCreatePropertyNode = "create_property_node"
)

type storedNode struct {
	id         int64
	labels     []string
	properties map[string]domain.Value
}

type storedEdge struct {
	edgeType   string
	fromID     int64
	toID       int64
	properties map[string]domain.Value
	createdAt  int64
}

// Driver is a mutable, single-process graph fixture. It is not safe for
// concurrent writers, and a create_property_node statement passed to
// RunQuery is a write; concurrent RunQuery calls of the read-only kinds
// are fine once seeding is complete.
type Driver struct {
	nodes   map[int64]*storedNode
	edges   []storedEdge
	nextID  int64
	nextSeq int64
}

func New() *Driver {
	return &Driver{nodes: make(map[int64]*storedNode)}
}

var _ ports.GraphDriver = (*Driver)(nil)

func (d *Driver) addNode(labels []string, props map[string]domain.Value) int64 {
	id := d.nextID
	d.nextID++
	d.nodes[id] = &storedNode{id: id, labels: labels, properties: props}
	return id
}

// AddSection, AddQuestion, and AddAction seed a vertex using the same
// property-name conventions internal/traversal/mapping.go reads back
// (sectionId/questionId/actionId, variablesJson, returnsJson, ...).
func (d *Driver) AddSection(s domain.Section) int64 {
	return d.addNode([]string{domain.LabelSection}, map[string]domain.Value{
		"sectionId":     domain.String(s.ID),
		"name":          domain.String(s.Name),
		"versionNumber": domain.Int(int64(s.Version)),
		"active":        domain.Bool(s.Active),
		"inputParams":   stringListValue(s.InputParams),
		"variablesJson": jsonValue(s.Variables),
	})
}

func (d *Driver) AddQuestion(q domain.Question) int64 {
	return d.addNode([]string{domain.LabelQuestion}, map[string]domain.Value{
		"questionId":    domain.String(q.ID),
		"prompt":        domain.String(q.Prompt),
		"fieldId":       domain.String(q.FieldID),
		"dataType":      domain.String(string(q.DataType)),
		"orderInForm":   domain.Int(int64(q.OrderInForm)),
		"versionNumber": domain.Int(int64(q.Version)),
		"active":        domain.Bool(q.Active),
		"variablesJson": jsonValue(q.Variables),
	})
}

func (d *Driver) AddAction(a domain.Action) int64 {
	return d.addNode([]string{domain.LabelAction}, map[string]domain.Value{
		"actionId":          domain.String(a.ID),
		"actionType":        domain.String(string(a.Type)),
		"body":              domain.String(a.Body),
		"nextSectionId":     domain.String(a.NextSectionID),
		"returnsJson":       jsonValue(a.Returns),
		"returnImmediately": domain.Bool(a.ReturnImmediately),
		"variablesJson":     jsonValue(a.Variables),
		"sourceNode":        domain.String(a.SourceNode),
		"versionNumber":     domain.Int(int64(a.Version)),
		"active":            domain.Bool(a.Active),
	})
}

func (d *Driver) AddDatapoint(dp domain.Datapoint) int64 {
	return d.addNode([]string{domain.LabelDatapoint}, map[string]domain.Value{
		"id":           domain.String(dp.ID),
		"variableName": domain.String(dp.VariableName),
		"value":        dp.Value,
	})
}

// AddEdge seeds a PRECEDES/TRIGGERS edge; toLabels is read from the
// target node at query time.
func (d *Driver) AddEdge(edgeType string, fromID, toID int64, orderInForm int, askWhen, sourceNode string, vars []domain.VariableDef) {
	seq := d.nextSeq
	d.nextSeq++
	d.edges = append(d.edges, storedEdge{
		edgeType: edgeType,
		fromID:   fromID,
		toID:     toID,
		properties: map[string]domain.Value{
			"orderInForm":   domain.Int(int64(orderInForm)),
			"askWhen":       domain.String(askWhen),
			"sourceNode":    domain.String(sourceNode),
			"variablesJson": jsonValue(vars),
		},
		createdAt: seq,
	})
}

func (d *Driver) AddSupplies(fromID, datapointID int64) {
	d.edges = append(d.edges, storedEdge{edgeType: domain.EdgeSupplies, fromID: fromID, toID: datapointID, createdAt: d.nextSeq})
	d.nextSeq++
}

func (d *Driver) AddAnswers(datapointID, questionID int64) {
	d.edges = append(d.edges, storedEdge{edgeType: domain.EdgeAnswers, fromID: datapointID, toID: questionID, createdAt: d.nextSeq})
	d.nextSeq++
}

func stringListValue(ss []string) domain.Value {
	out := make([]domain.Value, len(ss))
	for i, s := range ss {
		out[i] = domain.String(s)
	}
	return domain.List(out)
}

func jsonValue(v any) domain.Value {
	if v == nil {
		return domain.String("")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return domain.String("")
	}
	return domain.String(string(data))
}

// RunQuery dispatches on the marker comment's kind, ignoring the Cypher
// text that follows it entirely.
func (d *Driver) RunQuery(ctx context.Context, statement string, params map[string]domain.Value) ([]ports.Record, error) {
	kind, kv := parseMarker(statement)

	switch kind {
	case kindLatestActiveNode:
		return d.runLatestActiveNode(kv, params)
	case kindOutgoingEdges:
		return d.runOutgoingEdges(params)
	case kindAnsweredCheck:
		return d.runAnsweredCheck(params)
	case kindCreatePropertyNode:
		return d.runCreatePropertyNode(kv)
	default:
		return nil, fmt.Errorf("memgraph: unrecognized query kind %q", kind)
	}
}

// runCreatePropertyNode backs a CreatePropertyNode action body: a
// questionnaire author writes CREATE (n:Label {...}) RETURN id(n) AS
// createdId, one row per created vertex. Since action bodies are
// author-supplied text (not generated by internal/traversal/queries.go),
// this fixture cannot parse them as Cypher; test fixtures instead prefix
// the body with `// kind=create_property_node label=X count=N`, mirroring
// the marker convention the three canonical queries already use, and this
// driver creates N bare vertices under that label and returns their ids.
func (d *Driver) runCreatePropertyNode(kv map[string]string) ([]ports.Record, error) {
	label := kv["label"]
	if label == "" {
		label = "Node"
	}
	count := 1
	if raw, ok := kv["count"]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}

	out := make([]ports.Record, count)
	for i := 0; i < count; i++ {
		id := d.addNode([]string{label}, map[string]domain.Value{})
		out[i] = ports.Record{"createdId": domain.Int(id)}
	}
	return out, nil
}

func (d *Driver) runLatestActiveNode(kv map[string]string, params map[string]domain.Value) ([]ports.Record, error) {
	label := kv["label"]
	idProp := kv["idProp"]
	id := params["id"].AsString()

	var best *storedNode
	for _, n := range d.nodes {
		if !hasLabel(n, label) {
			continue
		}
		if propString(n.properties, idProp) != id {
			continue
		}
		if !propBool(n.properties, "active") {
			continue
		}
		if best == nil || propInt(n.properties, "versionNumber") > propInt(best.properties, "versionNumber") {
			best = n
		}
	}
	if best == nil {
		return nil, nil
	}
	return []ports.Record{{"n": domain.Node(toNodeRef(best))}}, nil
}

func (d *Driver) runOutgoingEdges(params map[string]domain.Value) ([]ports.Record, error) {
	fromID := params["fromId"].AsInt()

	var matched []storedEdge
	for _, e := range d.edges {
		if e.fromID != fromID {
			continue
		}
		if e.edgeType != domain.EdgePrecedes && e.edgeType != domain.EdgeTriggers {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		oi := propInt(matched[i].properties, "orderInForm")
		oj := propInt(matched[j].properties, "orderInForm")
		if oi != oj {
			return oi < oj
		}
		return matched[i].createdAt < matched[j].createdAt
	})

	out := make([]ports.Record, 0, len(matched))
	for _, e := range matched {
		target, ok := d.nodes[e.toID]
		if !ok {
			continue
		}
		labels := make([]domain.Value, len(target.labels))
		for i, l := range target.labels {
			labels[i] = domain.String(l)
		}
		out = append(out, ports.Record{
			"relType":       domain.String(e.edgeType),
			"orderInForm":   e.properties["orderInForm"],
			"askWhen":       e.properties["askWhen"],
			"sourceNode":    e.properties["sourceNode"],
			"variablesJson": e.properties["variablesJson"],
			"createdAt":     domain.Int(e.createdAt),
			"toLabels":      domain.List(labels),
			"target":        domain.Node(toNodeRef(target)),
		})
	}
	return out, nil
}

func (d *Driver) runAnsweredCheck(params map[string]domain.Value) ([]ports.Record, error) {
	sourceID := params["sourceId"].AsInt()
	questionID := params["questionId"].AsString()
	if sourceID < 0 {
		return nil, nil
	}

	for _, supplies := range d.edges {
		if supplies.edgeType != domain.EdgeSupplies || supplies.fromID != sourceID {
			continue
		}
		datapointID := supplies.toID
		for _, answers := range d.edges {
			if answers.edgeType != domain.EdgeAnswers || answers.fromID != datapointID {
				continue
			}
			q, ok := d.nodes[answers.toID]
			if !ok || propString(q.properties, "questionId") != questionID {
				continue
			}
			dp := d.nodes[datapointID]
			return []ports.Record{{"d": domain.Node(toNodeRef(dp))}}, nil
		}
	}
	return nil, nil
}

func hasLabel(n *storedNode, label string) bool {
	for _, l := range n.labels {
		if l == label {
			return true
		}
	}
	return false
}

func toNodeRef(n *storedNode) *domain.NodeRef {
	return &domain.NodeRef{ID: n.id, Labels: n.labels, Properties: n.properties}
}

func propString(props map[string]domain.Value, key string) string {
	v, ok := props[key]
	if !ok || v.Kind() != domain.KindString {
		return ""
	}
	return v.AsString()
}

func propBool(props map[string]domain.Value, key string) bool {
	v, ok := props[key]
	return ok && v.Kind() == domain.KindBool && v.AsBool()
}

func propInt(props map[string]domain.Value, key string) int {
	v, ok := props[key]
	if !ok || v.Kind() != domain.KindInt {
		return 0
	}
	return int(v.AsInt())
}

// parseMarker reads the "// kind=X key=val ..." first line queries.go
// prepends to every statement.
func parseMarker(statement string) (kind string, kv map[string]string) {
	line := statement
	if idx := strings.IndexByte(statement, '\n'); idx >= 0 {
		line = statement[:idx]
	}
	line = strings.TrimPrefix(line, "// ")
	kv = make(map[string]string)
	for _, tok := range strings.Fields(line) {
		if eq := strings.IndexByte(tok, '='); eq >= 0 {
			key, val := tok[:eq], tok[eq+1:]
			if key == "kind" {
				kind = val
				continue
			}
			kv[key] = val
		}
	}
	return kind, kv
}
