package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore is the primary Store backend, used when the deployment has a
// Qdrant server available. One Qdrant collection per crawl task.
type QdrantStore struct {
	client    *qdrant.Client
	embedder  Embedder
	dimension uint64
}

func NewQdrantStore(addr string, embedder Embedder) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: addr, Port: 6334})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: connect qdrant: %w", err)
	}
	return &QdrantStore{client: client, embedder: embedder, dimension: uint64(embedder.Dimension())}, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, collection string) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("vectorindex: check collection %s: %w", collection, err)
	}
	if exists {
		return nil
	}
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, d := range docs {
		payload := map[string]*qdrant.Value{
			"content": {Kind: &qdrant.Value_StringValue{StringValue: d.Content}},
			"id":      {Kind: &qdrant.Value_StringValue{StringValue: d.ID}},
		}
		for k, v := range d.Metadata {
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}

		id := d.ID
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(d.ID)).String()
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: payload,
		}
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert to %s: %w", collection, err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, collection, query string, k int) ([]SearchResult, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: check collection %s: %w", collection, err)
	}
	if !exists {
		return nil, ErrCollectionNotFound
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search %s: %w", collection, err)
	}

	results := make([]SearchResult, len(points))
	for i, p := range points {
		meta := make(map[string]string)
		content := ""
		for k, v := range p.Payload {
			if s := v.GetStringValue(); s != "" {
				if k == "content" {
					content = s
				} else {
					meta[k] = s
				}
			}
		}
		results[i] = SearchResult{
			ID:       p.Id.GetUuid(),
			Content:  content,
			Score:    p.Score,
			Metadata: meta,
		}
	}
	return results, nil
}

func (s *QdrantStore) DeleteCollection(ctx context.Context, collection string) error {
	return s.client.DeleteCollection(ctx, collection)
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
