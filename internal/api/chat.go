package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/crawlchat/crawlchat/internal/dedup"
	"github.com/crawlchat/crawlchat/internal/linkextract"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/retriever"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := &model.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if err := s.meta.SaveSession(r.Context(), sess); err != nil {
		s.logger.Error("create session failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

func (s *Server) handleLinkTask(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	var body struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TaskID == "" {
		s.errorResponse(w, http.StatusBadRequest, "task_id is required")
		return
	}

	sess, err := s.meta.GetSession(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}
	if _, err := s.meta.GetTask(r.Context(), body.TaskID); err != nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}

	sess.TaskID = body.TaskID
	if err := s.meta.SaveSession(r.Context(), sess); err != nil {
		s.logger.Error("link task failed", "session_id", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to link task")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"session_id": sessionID, "task_id": body.TaskID})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		s.errorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	sess, err := s.meta.GetSession(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}
	if sess.TaskID == "" {
		s.errorResponse(w, http.StatusConflict, "session has no linked crawl task")
		return
	}

	ctx := r.Context()
	history := sess.History()
	filenames := s.sessionFilenames(ctx, sess.TaskID)

	plan := s.planner.Plan(ctx, sessionID, body.Content, lastUserMessage(history), filenames)

	passages, err := s.retriever.Retrieve(ctx, sess.TaskID, plan, filenames)
	reply := ""
	switch {
	case err == nil:
		reply, err = s.answerer.Answer(ctx, sessionID, plan, passages, history)
		if err != nil {
			s.logger.Error("answer failed", "session_id", sessionID, "error", err)
			s.errorResponse(w, http.StatusBadGateway, "failed to generate a reply")
			return
		}
	case errors.Is(err, retriever.ErrStillIndexing):
		reply = "The documents for this task are still being processed. Please try again in a moment."
	case errors.Is(err, retriever.ErrEmptyResult):
		reply, err = s.answerer.Answer(ctx, sessionID, plan, nil, history)
		if err != nil {
			s.logger.Error("answer failed", "session_id", sessionID, "error", err)
			s.errorResponse(w, http.StatusBadGateway, "failed to generate a reply")
			return
		}
	default:
		s.logger.Error("retrieve failed", "session_id", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to retrieve passages")
		return
	}

	now := time.Now()
	sess.Append(model.Message{Role: "user", Content: body.Content, Category: plan.Category, CreatedAt: now})
	sess.Append(model.Message{Role: "assistant", Content: reply, Category: plan.Category, CreatedAt: now})
	if err := s.meta.SaveSession(ctx, sess); err != nil {
		s.logger.Error("save session failed", "session_id", sessionID, "error", err)
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"reply":    reply,
		"category": plan.Category.String(),
	})
}

// handleUpload accepts a user-supplied file and routes it through the same
// extraction/chunking/indexing pipeline as crawled documents, tagged with
// the session's linked task so it lands in the same collection.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	sess, err := s.meta.GetSession(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "session not found")
		return
	}
	if sess.TaskID == "" {
		s.errorResponse(w, http.StatusConflict, "session has no linked crawl task")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	contentType, ok := linkextract.ClassifyURL(header.Filename)
	if !ok {
		contentType = model.ContentPlainText
	}

	doc := &model.CrawledDocument{
		ID:          uuid.NewString(),
		TaskID:      sess.TaskID,
		URL:         header.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		ContentHash: dedup.HashContent(data),
		FetchedAt:   time.Now(),
	}
	doc.ObjectKey = doc.ID

	if err := s.objects.Put(r.Context(), doc.ObjectKey, data); err != nil {
		s.logger.Error("upload store failed", "session_id", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := s.meta.SaveDocument(r.Context(), doc); err != nil {
		s.logger.Error("upload save document failed", "session_id", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to record upload")
		return
	}
	if err := s.mq.PublishDocument(doc); err != nil {
		s.logger.Error("upload publish failed", "session_id", sessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to queue upload for indexing")
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"doc_id": doc.ID,
		"status": "queued",
	})
}

func (s *Server) sessionFilenames(ctx context.Context, taskID string) []string {
	docs, err := s.meta.ListDocumentsByTask(ctx, taskID)
	if err != nil {
		s.logger.Warn("list documents for filenames failed", "task_id", taskID, "error", err)
		return nil
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = path.Base(d.URL)
	}
	return names
}

func lastUserMessage(history []model.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return history[i].Content
		}
	}
	return ""
}
