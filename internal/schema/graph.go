package schema

import "context"

// GraphStore is the boundary to the graph database. Domain tools submit a
// Gremlin query string with optional bindings and receive the raw result
// records. The concrete implementation lives in internal/gremlin.
type GraphStore interface {
	Submit(ctx context.Context, query string, bindings map[string]any) ([]any, error)
}
