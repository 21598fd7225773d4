package crawler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crawlchat/crawlchat/internal/dedup"
	"github.com/crawlchat/crawlchat/internal/linkextract"
	"github.com/crawlchat/crawlchat/internal/model"
)

// Scheduler manages worker goroutines that dequeue from the frontier and dispatch fetches.
type Scheduler struct {
	engine      *Engine
	logger      *slog.Logger
	wg          sync.WaitGroup
	paused      atomic.Bool
	resumeCh    chan struct{}
	throttle    map[string]*domainThrottle
	throttleMu  sync.RWMutex
	idleWorkers atomic.Int32
}

type domainThrottle struct {
	lastFetch time.Time
	mu        sync.Mutex
}

func NewScheduler(e *Engine) *Scheduler {
	return &Scheduler{
		engine:   e,
		logger:   e.logger.With("component", "scheduler"),
		resumeCh: make(chan struct{}),
		throttle: make(map[string]*domainThrottle),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	concurrency := s.engine.cfg.Crawler.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	s.logger.Info("starting worker pool", "workers", concurrency)

	for i := 0; i < concurrency; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	go s.idleMonitor(ctx, concurrency)
}

func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) Pause() { s.paused.Store(true) }

func (s *Scheduler) Resume() {
	s.paused.Store(false)
	close(s.resumeCh)
	s.resumeCh = make(chan struct{})
}

// idleMonitor closes the frontier once every worker has sat idle with an
// empty queue for a sustained period, which is how the engine recognizes a
// BFS crawl has exhausted its frontier rather than merely stalled.
func (s *Scheduler) idleMonitor(ctx context.Context, concurrency int) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	idleStreak := 0

	for {
		select {
		case <-ctx.Done():
			s.engine.frontier.Close()
			return
		case <-ticker.C:
			idle := int(s.idleWorkers.Load())
			queueLen := s.engine.frontier.Len()

			if idle >= concurrency && queueLen == 0 {
				idleStreak++
				if idleStreak >= 3 {
					s.logger.Info("all workers idle, frontier empty — crawl complete")
					s.engine.frontier.Close()
					return
				}
			} else {
				idleStreak = 0
			}

			if s.engine.atMaxPages() && s.engine.atMaxDocuments() {
				s.logger.Info("page/document budget reached")
				s.engine.frontier.Close()
				return
			}
		}
	}
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	logger := s.logger.With("worker_id", id)

	for {
		if s.paused.Load() {
			select {
			case <-ctx.Done():
				return
			case <-s.resumeCh:
			}
		}

		s.idleWorkers.Add(1)

		var req *model.FetchRequest
		for {
			req = s.engine.frontier.TryPop()
			if req != nil {
				break
			}
			if s.engine.frontier.IsClosed() {
				s.idleWorkers.Add(-1)
				return
			}
			select {
			case <-ctx.Done():
				s.idleWorkers.Add(-1)
				return
			default:
			}
			time.Sleep(50 * time.Millisecond)
		}

		s.idleWorkers.Add(-1)

		s.applyThrottle(req.Domain())

		s.engine.stats.ActiveWorkers.Add(1)
		s.processRequest(ctx, logger, req)
		s.engine.stats.ActiveWorkers.Add(-1)
	}
}

// processRequest fetches one URL, persists it, and discovers links from it
// when it turned out to be an HTML page.
func (s *Scheduler) processRequest(ctx context.Context, logger *slog.Logger, req *model.FetchRequest) {
	logger = logger.With("url", req.URLString(), "depth", req.Depth)

	isDocument := false
	contentType := model.ContentHTML
	if ct, ok := linkextract.ClassifyURL(req.URLString()); ok {
		isDocument = true
		contentType = ct
	}

	if isDocument && s.engine.atMaxDocuments() {
		return
	}
	if !isDocument && s.engine.atMaxPages() {
		return
	}

	timeout := s.engine.cfg.Crawler.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.engine.stats.RequestsSent.Add(1)
	resp, err := s.engine.fetcher.Fetch(fetchCtx, req)
	if err != nil {
		s.handleFetchError(logger, req, err)
		return
	}

	s.engine.stats.ResponsesOK.Add(1)
	s.engine.stats.BytesDownloaded.Add(resp.ContentLength)
	logger.Debug("fetched", "status", resp.StatusCode, "size", resp.ContentLength, "via", resp.FetchedVia)

	contentHash := dedup.HashContent(resp.Body)
	if s.engine.content.IsSeen(contentHash) {
		logger.Debug("duplicate content, skipping store", "hash", contentHash)
		return
	}
	s.engine.content.MarkSeen(contentHash)

	doc := &model.CrawledDocument{
		ID:          newDocumentID(req.TaskID, req.URLString()),
		TaskID:      req.TaskID,
		URL:         req.URLString(),
		ContentType: contentType,
		FetchedVia:  resp.FetchedVia,
		Depth:       req.Depth,
		SizeBytes:   resp.ContentLength,
		ContentHash: contentHash,
		FetchedAt:   resp.FetchedAt,
	}
	doc.ObjectKey = doc.ID

	if err := s.engine.objects.Put(ctx, doc.ObjectKey, resp.Body); err != nil {
		logger.Error("object store write failed", "error", err)
		return
	}
	if err := s.engine.meta.SaveDocument(ctx, doc); err != nil {
		logger.Error("document metadata write failed", "error", err)
	}

	if isDocument {
		s.engine.docCount.Add(1)
	} else {
		s.engine.pageCount.Add(1)
	}
	s.engine.stats.DocumentsStored.Add(1)

	if s.engine.sink != nil {
		if err := s.engine.sink.HandleDocument(ctx, doc); err != nil {
			logger.Warn("document sink failed", "error", err)
		}
	}

	if contentType != model.ContentHTML {
		return
	}

	pages, documents, err := s.engine.extractor.Extract(resp)
	if err != nil {
		logger.Warn("link extraction failed", "error", err)
		return
	}

	for _, link := range append(pages, documents...) {
		newReq, err := model.NewFetchRequest(link, req.TaskID)
		if err != nil {
			continue
		}
		newReq.Depth = req.Depth + 1
		newReq.ParentURL = req.URLString()
		if _, ok := linkextract.ClassifyURL(link); ok {
			newReq.Priority = model.PriorityDocument
		}
		_ = s.engine.AddRequest(newReq)
	}
}

func (s *Scheduler) handleFetchError(logger *slog.Logger, req *model.FetchRequest, err error) {
	s.engine.stats.RequestsFailed.Add(1)

	var transient *model.TransientFetchError
	if errors.As(err, &transient) && req.RetryCount < req.MaxRetries {
		req.RetryCount++
		req.Priority = model.PriorityLow
		logger.Warn("retrying request", "retry", req.RetryCount, "max_retries", req.MaxRetries, "error", err)
		if transient.RetryAfter > 0 {
			time.Sleep(transient.RetryAfter)
		}
		s.engine.frontier.Push(req)
		return
	}

	s.engine.stats.ResponsesError.Add(1)
	logger.Error("fetch failed permanently", "error", err, "retries", req.RetryCount)
}

func (s *Scheduler) applyThrottle(domain string) {
	delay := s.engine.cfg.Crawler.PolitenessDelay
	if delay <= 0 {
		return
	}

	s.throttleMu.Lock()
	t, ok := s.throttle[domain]
	if !ok {
		t = &domainThrottle{}
		s.throttle[domain] = t
	}
	s.throttleMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastFetch)
	if elapsed < delay {
		time.Sleep(delay - elapsed)
	}
	t.lastFetch = time.Now()
}
