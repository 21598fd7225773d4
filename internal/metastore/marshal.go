package metastore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/crawlchat/crawlchat/internal/model"
)

func taskDoc(t *model.CrawlTask) bson.M {
	return bson.M{
		"_id":           t.ID,
		"session_id":    t.SessionID,
		"user_id":       t.UserID,
		"seeds":         t.Seeds,
		"allow_hosts":   t.AllowHosts,
		"deny_hosts":    t.DenyHosts,
		"max_depth":     t.MaxDepth,
		"max_pages":     t.MaxPages,
		"max_documents": t.MaxDocument,
		"render_js":     t.RenderJS,
		"status":        int(t.Status),
		"created_at":    t.CreatedAt,
		"started_at":    t.StartedAt,
		"finished_at":   t.FinishedAt,
		"error":         t.Error,
	}
}

func taskFromDoc(d bson.M) *model.CrawlTask {
	return &model.CrawlTask{
		ID:          stringOf(d["_id"]),
		SessionID:   stringOf(d["session_id"]),
		UserID:      stringOf(d["user_id"]),
		Seeds:       stringSliceOf(d["seeds"]),
		AllowHosts:  stringSliceOf(d["allow_hosts"]),
		DenyHosts:   stringSliceOf(d["deny_hosts"]),
		MaxDepth:    intOf(d["max_depth"]),
		MaxPages:    intOf(d["max_pages"]),
		MaxDocument: intOf(d["max_documents"]),
		RenderJS:    boolOf(d["render_js"]),
		Status:      model.TaskStatus(intOf(d["status"])),
		CreatedAt:   timeOf(d["created_at"]),
		StartedAt:   timeOf(d["started_at"]),
		FinishedAt:  timeOf(d["finished_at"]),
		Error:       stringOf(d["error"]),
	}
}

func documentDoc(doc *model.CrawledDocument) bson.M {
	return bson.M{
		"_id":          doc.ID,
		"task_id":      doc.TaskID,
		"url":          doc.URL,
		"content_type": int(doc.ContentType),
		"object_key":   doc.ObjectKey,
		"fetched_via":  int(doc.FetchedVia),
		"depth":        doc.Depth,
		"size_bytes":   doc.SizeBytes,
		"content_hash": doc.ContentHash,
		"fetched_at":   doc.FetchedAt,
	}
}

func documentFromDoc(d bson.M) *model.CrawledDocument {
	return &model.CrawledDocument{
		ID:          stringOf(d["_id"]),
		TaskID:      stringOf(d["task_id"]),
		URL:         stringOf(d["url"]),
		ContentType: model.ContentType(intOf(d["content_type"])),
		ObjectKey:   stringOf(d["object_key"]),
		FetchedVia:  model.ProxyMode(intOf(d["fetched_via"])),
		Depth:       intOf(d["depth"]),
		SizeBytes:   int64(intOf(d["size_bytes"])),
		ContentHash: stringOf(d["content_hash"]),
		FetchedAt:   timeOf(d["fetched_at"]),
	}
}

func processedDoc(p *model.ProcessedDocument) bson.M {
	chunks := make([]bson.M, len(p.Chunks))
	for i, c := range p.Chunks {
		chunks[i] = bson.M{
			"index":        c.Index,
			"text":         c.Text,
			"content_hash": c.ContentHash,
			"source_url":   c.SourceURL,
		}
	}
	return bson.M{
		"_id":             p.ID,
		"document_id":     p.DocumentID,
		"task_id":         p.TaskID,
		"session_id":      p.SessionID,
		"chunks":          chunks,
		"extracted_by":    p.ExtractedBy,
		"content_hash":    p.ContentHash,
		"is_duplicate":    p.IsDuplicate,
		"original_doc_id": p.OriginalDocID,
		"vector_file_id":  p.VectorFileID,
		"vector_store_id": p.VectorStoreID,
		"status":          int(p.Status),
		"processed_at":    p.ProcessedAt,
	}
}

func processedDocFromDoc(d bson.M) *model.ProcessedDocument {
	raw, _ := d["chunks"].(bson.A)
	chunks := make([]model.Chunk, 0, len(raw))
	for _, item := range raw {
		c, ok := item.(bson.M)
		if !ok {
			continue
		}
		chunks = append(chunks, model.Chunk{
			Index:       intOf(c["index"]),
			Text:        stringOf(c["text"]),
			ContentHash: stringOf(c["content_hash"]),
			SourceURL:   stringOf(c["source_url"]),
		})
	}

	return &model.ProcessedDocument{
		ID:            stringOf(d["_id"]),
		DocumentID:    stringOf(d["document_id"]),
		TaskID:        stringOf(d["task_id"]),
		SessionID:     stringOf(d["session_id"]),
		Chunks:        chunks,
		ExtractedBy:   stringOf(d["extracted_by"]),
		ContentHash:   stringOf(d["content_hash"]),
		IsDuplicate:   boolOf(d["is_duplicate"]),
		OriginalDocID: stringOf(d["original_doc_id"]),
		VectorFileID:  stringOf(d["vector_file_id"]),
		VectorStoreID: stringOf(d["vector_store_id"]),
		Status:        model.ProcessStatus(intOf(d["status"])),
		ProcessedAt:   timeOf(d["processed_at"]),
	}
}

func sessionDoc(s *model.Session) bson.M {
	history := s.History()
	messages := make([]bson.M, len(history))
	for i, m := range history {
		messages[i] = bson.M{
			"role":       m.Role,
			"content":    m.Content,
			"category":   int(m.Category),
			"created_at": m.CreatedAt,
		}
	}
	return bson.M{
		"_id":        s.ID,
		"task_id":    s.TaskID,
		"messages":   messages,
		"created_at": s.CreatedAt,
	}
}

func sessionFromDoc(d bson.M) *model.Session {
	sess := &model.Session{
		ID:        stringOf(d["_id"]),
		TaskID:    stringOf(d["task_id"]),
		CreatedAt: timeOf(d["created_at"]),
	}

	raw, _ := d["messages"].(bson.A)
	for _, item := range raw {
		m, ok := item.(bson.M)
		if !ok {
			continue
		}
		sess.Append(model.Message{
			Role:      stringOf(m["role"]),
			Content:   stringOf(m["content"]),
			Category:  model.QueryCategory(intOf(m["category"])),
			CreatedAt: timeOf(m["created_at"]),
		})
	}
	return sess
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func intOf(v any) int {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func stringSliceOf(v any) []string {
	arr, ok := v.(bson.A)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func timeOf(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func boolOf(v any) bool {
	b, _ := v.(bool)
	return b
}
