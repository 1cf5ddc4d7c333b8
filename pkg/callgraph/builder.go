package callgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/panbanda/focal/pkg/java"
	"github.com/panbanda/focal/pkg/models"
	"github.com/panbanda/focal/pkg/query"
)

// ErrUnsupported is returned for call graph construction modes that are not
// implemented, such as symbol-table based generation.
var ErrUnsupported = errors.New("callgraph: unsupported operation")

type builder struct {
	symbolTable bool
	edgeTypes   map[models.EdgeType]bool
	sitter      *java.Sitter
	logger      *slog.Logger
}

// Option configures Build.
type Option func(*builder)

// WithSymbolTable requests symbol-table based generation, which Build
// rejects with ErrUnsupported.
func WithSymbolTable(enabled bool) Option {
	return func(b *builder) {
		b.symbolTable = enabled
	}
}

// WithEdgeTypes narrows the dependency types that become graph edges.
// Only CALL_DEP and CONTROL_DEP are accepted.
func WithEdgeTypes(types ...models.EdgeType) Option {
	return func(b *builder) {
		if len(types) == 0 {
			return
		}
		b.edgeTypes = make(map[models.EdgeType]bool, len(types))
		for _, t := range types {
			b.edgeTypes[t] = true
		}
	}
}

// WithSitter sets the Java helper used to compute calling lines.
func WithSitter(s *java.Sitter) Option {
	return func(b *builder) {
		b.sitter = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Build constructs a call graph from analyzer edges. Edges whose type is not
// a call graph type add neither nodes nor edges. A repeated (source, target)
// pair keeps the attributes of its last occurrence.
func Build(ctx context.Context, edges []models.DependencyEdge, opts ...Option) (*Graph, error) {
	b := &builder{
		edgeTypes: map[models.EdgeType]bool{
			models.EdgeCallDep:    true,
			models.EdgeControlDep: true,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.symbolTable {
		return nil, fmt.Errorf("symbol table call graph: %w", ErrUnsupported)
	}
	for t := range b.edgeTypes {
		if !t.IsCallGraphEdge() {
			return nil, fmt.Errorf("edge type %q: %w", t, ErrUnsupported)
		}
	}

	if b.sitter == nil {
		engine, err := query.NewJava()
		if err != nil {
			return nil, err
		}
		defer engine.Close()
		b.sitter = java.New(engine, java.WithLogger(b.logger))
	}

	g := newGraph()
	skipped := 0
	for _, e := range edges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !b.edgeTypes[e.Type] {
			skipped++
			continue
		}

		from := g.upsertNode(e.Source)
		to := g.upsertNode(e.Target)
		g.setEdge(from, to, models.EdgeAttributes{
			Type:         e.Type,
			Weight:       e.Weight,
			CallingLines: b.callingLines(e),
		})
	}

	b.logger.Debug("built call graph",
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("skipped", skipped))

	return g, nil
}

// callingLines scans the source body for calls to the target. Edges between
// two implicit callables have no source text to scan.
func (b *builder) callingLines(e models.DependencyEdge) []int {
	if e.Source.IsImplicit() && e.Target.IsImplicit() {
		return []int{}
	}
	body := e.Source.Code()
	if body == "" {
		return []int{}
	}
	return b.sitter.CallingLines(body, e.Target.DeclarationText())
}
