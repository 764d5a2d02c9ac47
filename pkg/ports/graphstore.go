package ports

import (
	"context"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

// Record is one row of a GraphDriver result: a mapping from result-column
// name to a Value.
type Record map[string]domain.Value

// GraphDriver is the low-level, swappable collaborator that actually talks
// to the graph database. It performs no row-cap or timeout enforcement
// itself — that is internal/store.GraphStore's job — so a driver
// implementation stays a thin protocol adapter.
type GraphDriver interface {
	// RunQuery executes a parameterised statement and returns its result
	// rows. The statement's dialect (Cypher) is opaque to callers above
	// this interface.
	RunQuery(ctx context.Context, statement string, params map[string]domain.Value) ([]Record, error)
}

// Closer is implemented by drivers that hold a connection pool or other
// resource that must be released on host shutdown.
type Closer interface {
	Close(ctx context.Context) error
}
