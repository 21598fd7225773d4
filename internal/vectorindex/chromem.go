package vectorindex

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemStore is the embedded, zero-dependency fallback backend: gob files
// persisted under one directory on disk, no server to run. Used for single-node
// deployments or local development.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
}

func NewChromemStore(path string, embedder Embedder) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: open chromem db at %s: %w", path, err)
	}
	return &ChromemStore{db: db, embedder: embedder}, nil
}

func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	col, err := s.db.GetOrCreateCollection(collection, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("vectorindex: get or create collection %s: %w", collection, err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Embedding: embeddings[i],
		}
	}

	if err := col.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return fmt.Errorf("vectorindex: add documents to %s: %w", collection, err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, collection, query string, k int) ([]SearchResult, error) {
	col := s.db.GetCollection(collection, s.embeddingFunc())
	if col == nil {
		return nil, ErrCollectionNotFound
	}

	if n := col.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: query %s: %w", collection, err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{ID: r.ID, Content: r.Content, Score: r.Similarity, Metadata: r.Metadata}
	}
	return out, nil
}

func (s *ChromemStore) DeleteCollection(ctx context.Context, collection string) error {
	return s.db.DeleteCollection(collection)
}

func (s *ChromemStore) Close() error {
	return nil
}
