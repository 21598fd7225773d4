// Package vectorindex embeds processed document chunks and serves similarity
// search over them, backing the retriever's context assembly.
package vectorindex

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned when a backend has no data for a
// collection (one collection per crawl task).
var ErrCollectionNotFound = errors.New("vectorindex: collection not found")

// Document is one unit handed to a backend for embedding and storage. It
// mirrors model.Chunk but stays backend-agnostic so qdrant/chromem don't leak
// into the model package.
type Document struct {
	ID         string
	Content    string
	Collection string
	Metadata   map[string]string
}

// SearchResult is one scored hit from a similarity search.
type SearchResult struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]string
}

// Embedder turns text into dense vectors. Document and query embeddings can
// use different prefixes/instructions depending on the model, hence two
// methods instead of one.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Store is the similarity-search backend. CollectionName is always the
// owning crawl task's ID, giving each crawl its own isolated namespace.
type Store interface {
	Upsert(ctx context.Context, collection string, docs []Document) error
	Search(ctx context.Context, collection, query string, k int) ([]SearchResult, error)
	DeleteCollection(ctx context.Context, collection string) error
	Close() error
}
