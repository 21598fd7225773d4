package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crawlchat/crawlchat/internal/model"
)

type createTaskRequest struct {
	URL          string   `json:"url"`
	MaxDocuments int      `json:"max_documents"`
	RenderJS     bool     `json:"render_js"`
	UserID       string   `json:"user_id"`
	AllowHosts   []string `json:"allow_hosts"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var body createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.URL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url is required")
		return
	}

	maxDocuments := body.MaxDocuments
	if maxDocuments <= 0 {
		maxDocuments = 200
	}

	allowHosts := body.AllowHosts
	if len(allowHosts) == 0 {
		if seed, err := url.Parse(body.URL); err == nil && seed.Hostname() != "" {
			allowHosts = []string{seed.Hostname()}
		}
	}

	task := &model.CrawlTask{
		ID:          uuid.NewString(),
		UserID:      body.UserID,
		Seeds:       []string{body.URL},
		MaxDocument: maxDocuments,
		RenderJS:    body.RenderJS,
		AllowHosts:  allowHosts,
	}
	if err := s.tasks.Create(r.Context(), task); err != nil {
		s.logger.Error("create task failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{
		"task_id": task.ID,
		"status":  task.Status.String(),
	})
}

func (s *Server) handleStartTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	task, err := s.meta.GetTask(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}
	if err := s.tasks.Submit(r.Context(), task); err != nil {
		s.logger.Error("start task failed", "task_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to start task")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"task_id": task.ID,
		"status":  model.TaskRunning.String(),
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.meta.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.meta.ListTasks(r.Context())
	if err != nil {
		s.logger.Error("list tasks failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	s.jsonResponse(w, http.StatusOK, tasks)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.meta.GetTask(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}
	if err := s.meta.DeleteTask(r.Context(), id); err != nil {
		s.logger.Error("delete task failed", "task_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type documentSummary struct {
	DocumentID  string    `json:"doc_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	SizeBytes   int64     `json:"size"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	docs, err := s.meta.ListDocumentsByTask(r.Context(), taskID)
	if err != nil {
		s.logger.Error("list documents failed", "task_id", taskID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	out := make([]documentSummary, len(docs))
	for i, d := range docs {
		out[i] = documentSummary{
			DocumentID:  d.ID,
			URL:         d.URL,
			Title:       path.Base(d.URL),
			SizeBytes:   d.SizeBytes,
			ContentType: d.ContentType.String(),
			FetchedAt:   d.FetchedAt,
		}
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// textualContentTypes are rendered as plain UTF-8 text in the document
// body response; everything else is base64-encoded.
var textualContentTypes = map[model.ContentType]bool{
	model.ContentHTML:      true,
	model.ContentPlainText: true,
	model.ContentCSV:       true,
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("id")
	docID := r.PathValue("doc_id")

	doc, err := s.meta.GetDocument(r.Context(), docID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.errorResponse(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", "doc_id", docID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}
	if doc.TaskID != taskID {
		s.errorResponse(w, http.StatusNotFound, "document not found")
		return
	}

	data, err := s.objects.Get(r.Context(), doc.ObjectKey)
	if err != nil {
		s.logger.Error("fetch document body failed", "doc_id", docID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to fetch document body")
		return
	}

	resp := map[string]any{
		"doc_id":       doc.ID,
		"url":          doc.URL,
		"content_type": doc.ContentType.String(),
		"size":         doc.SizeBytes,
		"fetched_at":   doc.FetchedAt,
	}
	if textualContentTypes[doc.ContentType] {
		resp["text"] = string(data)
	} else {
		resp["body_base64"] = base64.StdEncoding.EncodeToString(data)
	}
	s.jsonResponse(w, http.StatusOK, resp)
}
