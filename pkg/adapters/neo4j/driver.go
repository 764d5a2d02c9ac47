// Package neo4j implements pkg/ports.GraphDriver against a real Neo4j
// database over Bolt, using github.com/neo4j/neo4j-go-driver/v5. It is the
// production collaborator behind internal/store.GraphStore, grounded in
// original_source/app/graph_driver.py's use of the equivalent official
// driver.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/flowcoreio/flowcore/internal/store"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
)

// Driver adapts a neo4j.DriverWithContext connection pool to
// ports.GraphDriver. It holds no per-request state; every RunQuery opens
// and closes its own session, per SPEC_FULL.md §5's "each request issues
// independent transactions" policy.
type Driver struct {
	driver neo4j.DriverWithContext
}

// New dials uri with basic auth and verifies connectivity.
func New(ctx context.Context, uri, username, password string) (*Driver, error) {
	drv, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, store.UnavailableError{Cause: err}
	}
	if err := drv.VerifyConnectivity(ctx); err != nil {
		return nil, store.UnavailableError{Cause: err}
	}
	return &Driver{driver: drv}, nil
}

var _ ports.GraphDriver = (*Driver)(nil)
var _ ports.Closer = (*Driver)(nil)

func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// RunQuery executes statement in an auto-committing session. The marker
// comment line queries.go prepends is valid Cypher (`//` line comment)
// and is ignored by the server.
func (d *Driver) RunQuery(ctx context.Context, statement string, params map[string]domain.Value) ([]ports.Record, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	rawParams := make(map[string]any, len(params))
	for k, v := range params {
		rawParams[k] = valueToNeo4j(v)
	}

	result, err := session.Run(ctx, statement, rawParams)
	if err != nil {
		return nil, err
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ports.Record, 0, len(records))
	for _, rec := range records {
		row := make(ports.Record, len(rec.Keys))
		for i, key := range rec.Keys {
			val, err := neo4jToValue(rec.Values[i])
			if err != nil {
				return nil, fmt.Errorf("neo4j: column %q: %w", key, err)
			}
			row[key] = val
		}
		out = append(out, row)
	}
	return out, nil
}

func valueToNeo4j(v domain.Value) any {
	switch v.Kind() {
	case domain.KindNull:
		return nil
	case domain.KindBool:
		return v.AsBool()
	case domain.KindInt:
		return v.AsInt()
	case domain.KindFloat:
		return v.AsFloat()
	case domain.KindString:
		return v.AsString()
	case domain.KindList:
		out := make([]any, len(v.AsList()))
		for i, elem := range v.AsList() {
			out[i] = valueToNeo4j(elem)
		}
		return out
	case domain.KindMap:
		out := make(map[string]any, len(v.AsMap()))
		for k, elem := range v.AsMap() {
			out[k] = valueToNeo4j(elem)
		}
		return out
	default:
		return nil
	}
}

func neo4jToValue(v any) (domain.Value, error) {
	switch t := v.(type) {
	case nil:
		return domain.Null(), nil
	case bool:
		return domain.Bool(t), nil
	case int64:
		return domain.Int(t), nil
	case int:
		return domain.Int(int64(t)), nil
	case float64:
		return domain.Float(t), nil
	case string:
		return domain.String(t), nil
	case []any:
		out := make([]domain.Value, len(t))
		for i, elem := range t {
			ev, err := neo4jToValue(elem)
			if err != nil {
				return domain.Value{}, err
			}
			out[i] = ev
		}
		return domain.List(out), nil
	case map[string]any:
		out := make(map[string]domain.Value, len(t))
		for k, elem := range t {
			ev, err := neo4jToValue(elem)
			if err != nil {
				return domain.Value{}, err
			}
			out[k] = ev
		}
		return domain.Map(out), nil
	case neo4j.Node:
		return domain.Node(nodeRefFromNeo4j(t)), nil
	default:
		return domain.Value{}, fmt.Errorf("unsupported neo4j value type %T", v)
	}
}

func nodeRefFromNeo4j(n neo4j.Node) *domain.NodeRef {
	props := make(map[string]domain.Value, len(n.Props))
	for k, v := range n.Props {
		ev, err := neo4jToValue(v)
		if err != nil {
			continue
		}
		props[k] = ev
	}
	return &domain.NodeRef{ID: n.Id, Labels: n.Labels, Properties: props}
}
