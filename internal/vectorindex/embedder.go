package vectorindex

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

var modelMapping = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
	fastembed.AllMiniLML6V2: 384,
}

// FastEmbedder generates embeddings locally via an ONNX model, grounded on
// fastembed-go's FlagEmbedding. It never calls out to a cloud API, so it has
// no per-request cost or latency floor beyond local inference.
type FastEmbedder struct {
	mu        sync.RWMutex
	model     *fastembed.FlagEmbedding
	dimension int
}

// NewFastEmbedder loads the named model into cacheDir, downloading it on
// first use.
func NewFastEmbedder(modelName, cacheDir string) (*FastEmbedder, error) {
	fem, ok := modelMapping[modelName]
	if !ok {
		return nil, fmt.Errorf("vectorindex: unsupported embedding model %q", modelName)
	}
	dimension := modelDimensions[fem]

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                fem,
		CacheDir:             cacheDir,
		MaxLength:            512,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: init fastembed: %w", err)
	}

	return &FastEmbedder{model: flagEmbed, dimension: dimension}, nil
}

// EmbedDocuments embeds passages for storage, using the "passage: " prefix
// BGE models expect.
func (e *FastEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("vectorindex: no texts to embed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	embeddings, err := e.model.PassageEmbed(texts, 256)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: embed documents: %w", err)
	}
	return embeddings, nil
}

// EmbedQuery embeds a single question, using the "query: " prefix.
func (e *FastEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("vectorindex: empty query")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	embedding, err := e.model.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: embed query: %w", err)
	}
	return embedding, nil
}

func (e *FastEmbedder) Dimension() int { return e.dimension }

func (e *FastEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		return e.model.Destroy()
	}
	return nil
}
