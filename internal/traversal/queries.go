package traversal

import (
	"fmt"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

// Canonical queries are built here rather than inline in engine.go so a
// GraphDriver implementation — real (Bolt/Cypher) or the in-process
// fixture — has one place to look for the exact statement shapes the
// engine issues. Every statement begins with a one-line marker comment
// identifying its kind and static parameters; drivers that don't want to
// parse Cypher (pkg/adapters/memgraph) dispatch on that marker instead of
// the query body. Drivers that speak real Cypher (pkg/adapters/neo4j)
// ignore the marker (it is a valid Cypher comment) and run the statement
// as written.
const (
	kindLatestActiveNode = "latest_active_node"
	kindOutgoingEdges    = "outgoing_edges"
	kindAnsweredCheck    = "answered_check"
)

func marker(kind string, kv ...string) string {
	line := "// kind=" + kind
	for i := 0; i+1 < len(kv); i += 2 {
		line += " " + kv[i] + "=" + kv[i+1]
	}
	return line + "\n"
}

// latestActiveNodeQuery resolves the latest-active version of a vertex by
// its stable business id, ordered by versionNumber descending and
// filtered by the active flag — a graph predicate, never in-memory
// filtering (Design Note 9).
func latestActiveNodeQuery(label, idProp, id string) (string, map[string]domain.Value) {
	stmt := marker(kindLatestActiveNode, "label", label, "idProp", idProp) +
		fmt.Sprintf("MATCH (n:%s {%s: $id}) WHERE n.active = true RETURN n ORDER BY n.versionNumber DESC LIMIT 1", label, idProp)
	return stmt, map[string]domain.Value{"id": domain.String(id)}
}

// outgoingEdgesQuery collects PRECEDES/TRIGGERS edges leaving the node
// identified by its internal id, ordered by orderInForm ascending with the
// driver's creation-order tiebreak.
func outgoingEdgesQuery(fromInternalID int64) (string, map[string]domain.Value) {
	stmt := marker(kindOutgoingEdges) +
		"MATCH (n)-[r:PRECEDES|TRIGGERS]->(t) WHERE id(n) = $fromId " +
		"RETURN type(r) AS relType, r.orderInForm AS orderInForm, r.askWhen AS askWhen, " +
		"r.sourceNode AS sourceNode, r.variablesJson AS variablesJson, r.createdAt AS createdAt, " +
		"labels(t) AS toLabels, t AS target " +
		"ORDER BY r.orderInForm ASC, r.createdAt ASC"
	return stmt, map[string]domain.Value{"fromId": domain.Int(fromInternalID)}
}

// answeredCheckQuery implements the canonical answered-ness predicate: does
// a datapoint supplied by sourceInternalID answer questionID. An unbound
// source never reaches this query: checkAnswered treats a nil source node
// as unanswered without issuing it.
func answeredCheckQuery(sourceInternalID int64, questionID string) (string, map[string]domain.Value) {
	stmt := marker(kindAnsweredCheck) +
		"MATCH (src) WHERE id(src) = $sourceId " +
		"MATCH (src)-[:SUPPLIES]->(d:Datapoint)-[:ANSWERS]->(q:Question {questionId: $questionId}) " +
		"RETURN d LIMIT 1"
	return stmt, map[string]domain.Value{
		"sourceId":   domain.Int(sourceInternalID),
		"questionId": domain.String(questionID),
	}
}
