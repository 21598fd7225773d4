package vectorindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/model"
)

// Index embeds a crawl task's processed chunks and answers similarity
// queries against them. Each crawl task owns one collection, named after
// its task ID, so corpora never bleed into each other.
type Index struct {
	store    Store
	backend  string
	embedder *FastEmbedder
	router   *Router
	logger   *slog.Logger
}

// New builds an Index from config, loading the embedding model and
// connecting to whichever backend (qdrant or chromem) config selects.
func New(cfg config.VectorStoreConfig, logger *slog.Logger) (*Index, error) {
	embedder, err := NewFastEmbedder(cfg.EmbeddingModel, ".fastembed_cache")
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	var store Store
	switch backend {
	case "qdrant":
		store, err = NewQdrantStore(cfg.QdrantAddr, embedder)
	case "chromem", "":
		backend = "chromem"
		store, err = NewChromemStore(cfg.ChromemPath, embedder)
	default:
		return nil, fmt.Errorf("vectorindex: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, &model.VectorStoreError{Backend: backend, Op: "connect", Err: err}
	}

	var router *Router
	if len(cfg.Nodes) > 0 {
		router = NewRouter(cfg.Nodes)
	}

	return &Index{store: store, backend: backend, embedder: embedder, router: router, logger: logger.With("component", "vectorindex")}, nil
}

// NodeFor exposes the router's placement decision for a task's collection,
// for callers that dispatch cross-node (e.g. the API forwarding a query to
// the worker that owns the task's shard).
func (idx *Index) NodeFor(taskID string) (string, bool) {
	if idx.router == nil {
		return "", false
	}
	return idx.router.NodeFor(taskID), true
}

// IndexDocument embeds and upserts every chunk of a processed document into
// its task's collection.
func (idx *Index) IndexDocument(ctx context.Context, doc *model.ProcessedDocument) error {
	if len(doc.Chunks) == 0 {
		return nil
	}

	docs := make([]Document, len(doc.Chunks))
	for i, chunk := range doc.Chunks {
		docs[i] = Document{
			ID:      chunkID(doc.DocumentID, chunk.Index),
			Content: chunk.Text,
			Metadata: map[string]string{
				"document_id": doc.DocumentID,
				"source_url":  chunk.SourceURL,
				"extracted_by": doc.ExtractedBy,
			},
		}
	}

	if err := idx.store.Upsert(ctx, doc.TaskID, docs); err != nil {
		return &model.VectorStoreError{Backend: idx.backend, Op: "upsert", Err: err}
	}
	idx.logger.Info("indexed document", "task_id", doc.TaskID, "document_id", doc.DocumentID, "chunks", len(docs))
	return nil
}

// Query runs a similarity search over a task's collection.
func (idx *Index) Query(ctx context.Context, taskID, query string, k int) ([]SearchResult, error) {
	results, err := idx.store.Search(ctx, taskID, query, k)
	if err != nil {
		return nil, &model.VectorStoreError{Backend: idx.backend, Op: "search", Err: err}
	}
	return results, nil
}

// DeleteTask removes a task's entire collection.
func (idx *Index) DeleteTask(ctx context.Context, taskID string) error {
	return idx.store.DeleteCollection(ctx, taskID)
}

func (idx *Index) Close() error {
	if err := idx.embedder.Close(); err != nil {
		return err
	}
	return idx.store.Close()
}

func chunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_%d", documentID, index)
}
