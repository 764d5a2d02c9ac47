// Package tests holds the reusable ports.GraphDriver contract suite, run
// against every driver implementation (pkg/adapters/memgraph unconditionally,
// pkg/adapters/neo4j behind a live-server build gate) so a new driver only
// has to prove it answers the same three canonical queries the same way.
package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// Fixture is what a driver-specific test must seed before the contract
// runs: one active Section with one PRECEDES edge to one active Question.
type Fixture struct {
	SectionID         string
	SectionInternalID int64
	QuestionID        string
}

// The query shapes below mirror internal/traversal/queries.go's marker
// convention: the contract is the string shape, not a shared symbol, since
// pkg/adapters/memgraph duplicates the same constants rather than importing
// the unexported ones from internal/traversal.
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

// RunGraphDriverContract exercises driver with the exact statement shapes
// internal/traversal issues, using seed to populate the fixture graph
// beforehand however that driver needs (builder methods for an in-memory
// fixture, raw Cypher CREATE for a real database).
func RunGraphDriverContract(t *testing.T, driver ports.GraphDriver, seed func(t *testing.T) Fixture) {
	t.Helper()
	ctx := context.Background()

	t.Run("LatestActiveNode resolves the seeded section", func(t *testing.T) {
		fx := seed(t)
		stmt := marker(kindLatestActiveNode, "label", "Section", "idProp", "sectionId") +
			"MATCH (n:Section {sectionId: $id}) WHERE n.active = true RETURN n ORDER BY n.versionNumber DESC LIMIT 1"

		records, err := driver.RunQuery(ctx, stmt, map[string]domain.Value{"id": domain.String(fx.SectionID)})
		require.NoError(t, err)
		require.Len(t, records, 1)

		node := records[0]["n"]
		require.Equal(t, domain.KindNode, node.Kind())
		assert.Equal(t, fx.SectionID, node.AsNode().Properties["sectionId"].AsString())
	})

	t.Run("LatestActiveNode returns zero rows for an unknown id", func(t *testing.T) {
		seed(t)
		stmt := marker(kindLatestActiveNode, "label", "Section", "idProp", "sectionId") +
			"MATCH (n:Section {sectionId: $id}) WHERE n.active = true RETURN n ORDER BY n.versionNumber DESC LIMIT 1"

		records, err := driver.RunQuery(ctx, stmt, map[string]domain.Value{"id": domain.String("SEC_DOES_NOT_EXIST")})
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("OutgoingEdges reaches the seeded question", func(t *testing.T) {
		fx := seed(t)
		stmt := marker(kindOutgoingEdges) +
			"MATCH (n)-[r:PRECEDES|TRIGGERS]->(t) WHERE id(n) = $fromId " +
			"RETURN type(r) AS relType, r.orderInForm AS orderInForm, r.askWhen AS askWhen, " +
			"r.sourceNode AS sourceNode, r.variablesJson AS variablesJson, r.createdAt AS createdAt, " +
			"labels(t) AS toLabels, t AS target " +
			"ORDER BY r.orderInForm ASC, r.createdAt ASC"

		records, err := driver.RunQuery(ctx, stmt, map[string]domain.Value{"fromId": domain.Int(fx.SectionInternalID)})
		require.NoError(t, err)
		require.Len(t, records, 1)

		target := records[0]["target"]
		require.Equal(t, domain.KindNode, target.Kind())
		assert.Equal(t, fx.QuestionID, target.AsNode().Properties["questionId"].AsString())
	})

	t.Run("AnsweredCheck returns zero rows for a fresh source", func(t *testing.T) {
		fx := seed(t)
		stmt := marker(kindAnsweredCheck) +
			"MATCH (src) WHERE id(src) = $sourceId " +
			"MATCH (src)-[:SUPPLIES]->(d:Datapoint)-[:ANSWERS]->(q:Question {questionId: $questionId}) " +
			"RETURN d LIMIT 1"

		records, err := driver.RunQuery(ctx, stmt, map[string]domain.Value{
			"sourceId":   domain.Int(fx.SectionInternalID),
			"questionId": domain.String(fx.QuestionID),
		})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
