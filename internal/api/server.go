// Package api exposes the HTTP control surface: crawl task submission and
// inspection, and the chat session pipeline (query planner, retriever,
// answerer).
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/crawlchat/crawlchat/internal/answerer"
	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/mq"
	"github.com/crawlchat/crawlchat/internal/objectstore"
	"github.com/crawlchat/crawlchat/internal/queryplan"
	"github.com/crawlchat/crawlchat/internal/retriever"
	"github.com/crawlchat/crawlchat/internal/taskctl"
)

// Server is the control-plane HTTP surface.
type Server struct {
	mux    *http.ServeMux
	addr   string
	logger *slog.Logger

	tasks     *taskctl.Manager
	meta      *metastore.Store
	objects   objectstore.Store
	mq        *mq.Client
	retriever *retriever.Retriever
	answerer  *answerer.Answerer
	planner   *queryplan.Planner
}

func NewServer(addr string, tasks *taskctl.Manager, meta *metastore.Store, objects objectstore.Store, mqClient *mq.Client, retr *retriever.Retriever, ans *answerer.Answerer, planner *queryplan.Planner, logger *slog.Logger) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		addr:      addr,
		logger:    logger.With("component", "api_server"),
		tasks:     tasks,
		meta:      meta,
		objects:   objects,
		mq:        mqClient,
		retriever: retr,
		answerer:  ans,
		planner:   planner,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the underlying mux for tests and for serving alongside
// other handlers (e.g. a metrics endpoint) in the same process.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /crawl/tasks", s.handleCreateTask)
	s.mux.HandleFunc("POST /crawl/tasks/{id}/start", s.handleStartTask)
	s.mux.HandleFunc("GET /crawl/tasks/{id}", s.handleGetTask)
	s.mux.HandleFunc("GET /crawl/tasks", s.handleListTasks)
	s.mux.HandleFunc("DELETE /crawl/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("GET /crawl/tasks/{id}/documents", s.handleListDocuments)
	s.mux.HandleFunc("GET /crawl/tasks/{id}/documents/{doc_id}", s.handleGetDocument)

	s.mux.HandleFunc("POST /chat/sessions", s.handleCreateSession)
	s.mux.HandleFunc("POST /chat/sessions/{id}/messages", s.handlePostMessage)
	s.mux.HandleFunc("POST /chat/sessions/{id}/link-task", s.handleLinkTask)
	s.mux.HandleFunc("POST /chat/sessions/{id}/upload", s.handleUpload)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, msg string) {
	s.jsonResponse(w, status, map[string]string{"error": msg})
}
