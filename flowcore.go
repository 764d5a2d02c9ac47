package flowcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowcoreio/flowcore/internal/store"
	"github.com/flowcoreio/flowcore/internal/traversal"
	"github.com/flowcoreio/flowcore/pkg/adapters/luasandbox"
	neo4jadapter "github.com/flowcoreio/flowcore/pkg/adapters/neo4j"
	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/ports"
	"github.com/flowcoreio/flowcore/pkg/session"
)

// Engine is the high-level entry point for embedding flowcore as a
// library: it wires the graph driver, sandbox, and traversal core behind
// the Session/Response assembler.
type Engine struct {
	assembler *session.Assembler
	driver    ports.GraphDriver
	closer    interface{ Close(context.Context) error }
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	driver   ports.GraphDriver
	sandbox  ports.ScriptSandbox
	rowCap   int
	logger   *slog.Logger
	traceSink traversal.TraceSink
}

// WithDriver injects a custom GraphDriver, bypassing the default Neo4j
// bolt connection. Useful for embedding flowcore against an in-memory
// fixture or an alternative graph backend.
func WithDriver(d ports.GraphDriver) Option {
	return func(c *engineConfig) { c.driver = d }
}

// WithSandbox injects a custom ScriptSandbox, bypassing the default Lua
// sandbox.
func WithSandbox(s ports.ScriptSandbox) Option {
	return func(c *engineConfig) { c.sandbox = s }
}

// WithRowCap overrides the default GraphStore row cap.
func WithRowCap(n int) Option {
	return func(c *engineConfig) { c.rowCap = n }
}

// WithLogger sets the structured logger used by the session assembler.
func WithLogger(log *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = log }
}

// WithTraceSink registers a traversal.TraceSink to observe every node
// visited and edge selected during traversal, for debugging or the
// supplemented introspection tooling.
func WithTraceSink(sink traversal.TraceSink) Option {
	return func(c *engineConfig) { c.traceSink = sink }
}

// New initializes an Engine backed by a Neo4j bolt connection at uri,
// unless WithDriver supplies a different GraphDriver.
func New(ctx context.Context, uri, username, password string, opts ...Option) (*Engine, error) {
	cfg := &engineConfig{rowCap: domain.DefaultRowCap}
	for _, opt := range opts {
		opt(cfg)
	}

	eng := &Engine{}

	if cfg.driver == nil {
		drv, err := neo4jadapter.New(ctx, uri, username, password)
		if err != nil {
			return nil, fmt.Errorf("flowcore: connect to graph store: %w", err)
		}
		cfg.driver = drv
		eng.closer = drv
	}
	eng.driver = cfg.driver

	if cfg.sandbox == nil {
		cfg.sandbox = luasandbox.New()
	}

	gs := store.New(cfg.driver, store.WithRowCap(cfg.rowCap))

	var traversalOpts []traversal.Option
	if cfg.traceSink != nil {
		traversalOpts = append(traversalOpts, traversal.WithTraceSink(cfg.traceSink))
	}
	engine := traversal.New(gs, cfg.sandbox, traversalOpts...)

	eng.assembler = session.New(engine, cfg.logger)
	return eng, nil
}

// NextQuestionFlow runs a single stateless traversal starting at
// sectionID with the supplied inputs, returning the shaped response.
func (e *Engine) NextQuestionFlow(ctx context.Context, req session.Request) (*domain.Response, error) {
	return e.assembler.NextQuestionFlow(ctx, req)
}

// Inspect returns a section's direct questions and actions without
// evaluating any predicate, for graph introspection tooling.
func (e *Engine) Inspect(ctx context.Context, sectionID string) (domain.Section, []domain.Question, []domain.Action, error) {
	return e.assembler.Inspect(ctx, sectionID)
}

// Close releases the underlying graph driver connection, if the Engine
// owns one (i.e. no custom driver was injected via WithDriver).
func (e *Engine) Close(ctx context.Context) error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close(ctx)
}
