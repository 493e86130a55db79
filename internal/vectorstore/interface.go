package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks zotero-bridge/internal/vectorstore VectorStore

import "context"

// Point is one embedded chunk of an item.
type Point struct {
	ID   string // UUID, derived from library, item key and chunk index
	Vec  []float32
	Meta map[string]any // library, item_key, chunk_index, heading_path, title, version
}

// SearchResult is a scored point with its payload.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore stores chunk embeddings of library items.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points. Every filter entry must match
	// the payload exactly.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
