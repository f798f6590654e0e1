package interfaces

import "context"

// VectorPoint is a single vector plus its flattened scalar metadata, ready
// to be upserted into a collection.
type VectorPoint struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]interface{}
}

// ScoredPoint is a VectorPoint returned from a similarity search, carrying
// its similarity score.
type ScoredPoint struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
	Score    float64
}

// VectorStore is the narrow contract over a per-category vector
// collection. One collection exists per document category.
type VectorStore interface {
	// GetOrCreateCollection ensures a collection exists with the given
	// vector dimensionality, creating it on first use.
	GetOrCreateCollection(ctx context.Context, collection string, dimension int) error

	// Upsert inserts or replaces points in a collection.
	Upsert(ctx context.Context, collection string, points []VectorPoint) error

	// DeleteByFilter removes all points in a collection whose metadata
	// matches every key/value pair in filter. Deleting a non-existent
	// match is not an error.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error

	// Search returns the topK nearest points to vector in collection.
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]ScoredPoint, error)

	// Close releases the underlying client.
	Close() error
}
