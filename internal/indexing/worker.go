// Package indexing is the consumer side of internal/mq's document subject:
// it turns a stored CrawledDocument into embedded chunks in
// internal/vectorindex, the step internal/crawler.DocumentSink hands off to.
package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crawlchat/crawlchat/internal/chunker"
	"github.com/crawlchat/crawlchat/internal/dedup"
	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/mq"
	"github.com/crawlchat/crawlchat/internal/objectstore"
	"github.com/crawlchat/crawlchat/internal/textextract"
	"github.com/crawlchat/crawlchat/internal/vectorindex"
)

// Worker drives one document through extraction, chunking, embedding, and
// metadata persistence.
type Worker struct {
	objects objectstore.Store
	meta    *metastore.Store
	extract *textextract.Chain
	chunks  *chunker.Chunker
	index   *vectorindex.Index
	logger  *slog.Logger
}

func New(objects objectstore.Store, meta *metastore.Store, extract *textextract.Chain, chunks *chunker.Chunker, index *vectorindex.Index, logger *slog.Logger) *Worker {
	return &Worker{
		objects: objects,
		meta:    meta,
		extract: extract,
		chunks:  chunks,
		index:   index,
		logger:  logger.With("component", "indexing_worker"),
	}
}

// Run subscribes to the document subject under the given durable consumer
// name and processes each document as it arrives. The returned func stops
// the subscription.
func (w *Worker) Run(client *mq.Client, durable string) (func() error, error) {
	return client.SubscribeDocuments(durable, func(doc *model.CrawledDocument) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		return w.ProcessDocument(ctx, doc)
	})
}

// ProcessDocument extracts text, splits it into chunks, embeds and upserts
// them into the vector index, and records the ProcessedDocument. A
// document that yields no chunks (empty or unsupported body) is still
// recorded, so the metastore document-count comparison used by
// internal/retriever's "still indexing" sentinel converges.
//
// Content-hash dedup: before embedding, the normalized extracted text is
// hashed and looked up against other ProcessedDocuments in the same
// session. A match means this URL's content was already indexed under a
// different doc_id, so this one is recorded as a duplicate reusing the
// original's vector_file_id instead of being re-embedded.
func (w *Worker) ProcessDocument(ctx context.Context, doc *model.CrawledDocument) error {
	data, err := w.objects.Get(ctx, doc.ObjectKey)
	if err != nil {
		return fmt.Errorf("indexing: fetch object %s: %w", doc.ObjectKey, err)
	}

	sessionID := w.sessionForTask(ctx, doc.TaskID)

	tier := "failed"
	var chunks []model.Chunk
	var contentHash string
	status := model.ProcessError

	result, err := w.extract.Extract(doc, data)
	if err != nil {
		w.logger.Warn("extraction failed", "document_id", doc.ID, "url", doc.URL, "error", err)
	} else {
		tier = result.Tier
		contentHash = dedup.HashContent([]byte(normalizeForHash(result.Text)))

		chunks, err = w.chunks.Chunk(doc.URL, result.Text)
		if err != nil {
			return fmt.Errorf("indexing: chunk document %s: %w", doc.ID, err)
		}
		if len(chunks) > 0 {
			status = model.ProcessSuccess
		}
	}

	proc := &model.ProcessedDocument{
		ID:          fmt.Sprintf("%s-%s", doc.ID, uuid.NewString()),
		DocumentID:  doc.ID,
		TaskID:      doc.TaskID,
		SessionID:   sessionID,
		ExtractedBy: tier,
		ContentHash: contentHash,
		Status:      status,
		ProcessedAt: time.Now(),
	}

	if status == model.ProcessSuccess {
		original, err := w.meta.FindProcessedDocumentByHash(ctx, sessionID, contentHash)
		if err != nil {
			w.logger.Warn("duplicate lookup failed", "document_id", doc.ID, "error", err)
		}
		if original != nil {
			proc.IsDuplicate = true
			proc.OriginalDocID = original.DocumentID
			proc.VectorFileID = original.VectorFileID
			proc.VectorStoreID = original.VectorStoreID
			proc.Status = model.ProcessDuplicateSkipped

			if err := w.meta.SaveProcessedDocument(ctx, proc); err != nil {
				return fmt.Errorf("indexing: save processed document %s: %w", doc.ID, err)
			}
			w.logger.Info("document is a duplicate, skipping embedding",
				"document_id", doc.ID, "task_id", doc.TaskID, "original_doc_id", original.DocumentID)
			return nil
		}

		proc.Chunks = chunks
		proc.VectorFileID = doc.ID
		proc.VectorStoreID = doc.TaskID
	}

	if err := w.meta.SaveProcessedDocument(ctx, proc); err != nil {
		return fmt.Errorf("indexing: save processed document %s: %w", doc.ID, err)
	}

	if status == model.ProcessSuccess {
		if err := w.index.IndexDocument(ctx, proc); err != nil {
			return fmt.Errorf("indexing: index document %s: %w", doc.ID, err)
		}
	}

	w.logger.Info("document processed", "document_id", doc.ID, "task_id", doc.TaskID, "chunks", len(chunks), "tier", tier)
	return nil
}

// sessionForTask resolves the session a crawl task is linked to, so
// content-hash dedup can be scoped per session rather than per task. A
// task not yet linked to a session dedups within the empty-session scope.
func (w *Worker) sessionForTask(ctx context.Context, taskID string) string {
	task, err := w.meta.GetTask(ctx, taskID)
	if err != nil {
		return ""
	}
	return task.SessionID
}

// normalizeForHash collapses whitespace so that formatting differences
// between otherwise-identical extractions don't produce different hashes.
func normalizeForHash(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
