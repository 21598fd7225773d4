package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/dedup"
	"github.com/crawlchat/crawlchat/internal/linkextract"
	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/objectstore"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats tracks crawl statistics for one task.
type Stats struct {
	RequestsSent    atomic.Int64
	RequestsFailed  atomic.Int64
	ResponsesOK     atomic.Int64
	ResponsesError  atomic.Int64
	DocumentsStored atomic.Int64
	URLsEnqueued    atomic.Int64
	URLsFiltered    atomic.Int64
	BytesDownloaded atomic.Int64
	ActiveWorkers   atomic.Int32
	StartTime       time.Time
}

func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"requests_sent":    s.RequestsSent.Load(),
		"requests_failed":  s.RequestsFailed.Load(),
		"responses_ok":     s.ResponsesOK.Load(),
		"responses_error":  s.ResponsesError.Load(),
		"documents_stored": s.DocumentsStored.Load(),
		"urls_enqueued":    s.URLsEnqueued.Load(),
		"urls_filtered":    s.URLsFiltered.Load(),
		"bytes_downloaded": s.BytesDownloaded.Load(),
		"active_workers":   s.ActiveWorkers.Load(),
		"elapsed":          time.Since(s.StartTime).String(),
	}
}

// Fetcher is the subset of proxygateway.Gateway the engine depends on.
type Fetcher interface {
	Fetch(ctx context.Context, req *model.FetchRequest) (*model.FetchResponse, error)
	Close() error
}

// DocumentSink receives every stored document (HTML page or downloadable
// file) for downstream text extraction and indexing. Implementations
// typically publish to internal/mq rather than process inline, so a slow
// extraction tier never blocks the crawl workers.
type DocumentSink interface {
	HandleDocument(ctx context.Context, doc *model.CrawledDocument) error
}

// Engine is the BFS crawl orchestrator for a single CrawlTask: it pulls
// URLs off a priority frontier, fetches them through the proxy gateway,
// discovers new links, persists fetched bytes to the object store, and
// records CrawledDocument metadata for every page and document it stores.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	task       *model.CrawlTask
	frontier   *Frontier
	urlSeen    *dedup.URLSeen
	content    *dedup.ContentSeen
	robots     *RobotsManager
	checkpoint *CheckpointManager
	scheduler  *Scheduler

	fetcher   Fetcher
	extractor *linkextract.Extractor
	objects   objectstore.Store
	meta      *metastore.Store
	sink      DocumentSink

	state     atomic.Int32
	stats     *Stats
	pageCount atomic.Int32
	docCount  atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

// New creates an Engine for the given task.
func New(cfg *config.Config, logger *slog.Logger, task *model.CrawlTask, fetcher Fetcher, objects objectstore.Store, meta *metastore.Store, sink DocumentSink) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:        cfg,
		logger:     logger.With("task_id", task.ID),
		task:       task,
		frontier:   NewFrontier(),
		urlSeen:    dedup.NewURLSeen(100_000),
		content:    dedup.NewContentSeen(),
		robots:     NewRobotsManager(cfg.Crawler.RespectRobotsTxt),
		checkpoint: NewCheckpointManager(task.ID, cfg.Crawler.CheckpointInterval),
		fetcher:    fetcher,
		extractor:  linkextract.NewExtractor(logger, task.AllowHosts, task.DenyHosts),
		objects:    objects,
		meta:       meta,
		sink:       sink,
		stats:      &Stats{},
		ctx:        ctx,
		cancel:     cancel,
	}

	e.scheduler = NewScheduler(e)
	return e
}

// AddSeed adds one of the task's configured seed URLs to the frontier.
func (e *Engine) AddSeed(rawURL string) error {
	req, err := model.NewFetchRequest(rawURL, e.task.ID)
	if err != nil {
		return err
	}
	req.Priority = model.PriorityHighest
	req.Depth = 0
	return e.AddRequest(req)
}

// AddRequest enqueues a discovered URL, applying depth, dedup, robots and
// domain-filter checks before it ever reaches a worker.
func (e *Engine) AddRequest(req *model.FetchRequest) error {
	urlStr := req.URLString()

	if e.task.MaxDepth > 0 && req.Depth > e.task.MaxDepth {
		e.stats.URLsFiltered.Add(1)
		return model.ErrMaxDepth
	}

	if e.urlSeen.IsSeen(urlStr) {
		e.stats.URLsFiltered.Add(1)
		return model.ErrDuplicate
	}

	if !e.robots.IsAllowed(urlStr) {
		e.stats.URLsFiltered.Add(1)
		return model.ErrBlocked
	}

	if !e.isDomainAllowed(req.Domain()) {
		e.stats.URLsFiltered.Add(1)
		return fmt.Errorf("domain %q is not allowed", req.Domain())
	}

	e.urlSeen.MarkSeen(urlStr)
	e.frontier.Push(req)
	e.stats.URLsEnqueued.Add(1)
	return nil
}

func (e *Engine) Start() error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("engine is in state %s, cannot start", State(e.state.Load()))
	}

	e.logger.Info("crawl starting",
		"concurrency", e.cfg.Crawler.Concurrency,
		"max_depth", e.task.MaxDepth,
		"max_pages", e.task.MaxPages,
	)

	e.stats.StartTime = time.Now()

	if e.checkpoint.HasCheckpoint() {
		if err := e.checkpoint.Load(e.frontier, e.urlSeen, e.stats); err != nil {
			e.logger.Warn("checkpoint restore failed", "error", err)
		} else {
			e.logger.Info("resumed from checkpoint", "queued", e.frontier.Len())
		}
	}

	if e.cfg.Crawler.CheckpointInterval > 0 {
		e.wg.Add(1)
		go e.autoCheckpoint()
	}

	e.scheduler.Start(e.ctx)
	return nil
}

func (e *Engine) Wait() {
	e.scheduler.Wait()
	e.cancel()
	e.wg.Wait()
	e.state.Store(int32(StateStopped))

	if err := e.fetcher.Close(); err != nil {
		e.logger.Error("fetcher close error", "error", err)
	}

	_ = e.checkpoint.Clean()
	e.logger.Info("crawl stopped", "stats", e.stats.Snapshot())
}

func (e *Engine) Stop() {
	if !e.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}
	e.logger.Info("crawl stopping")
	e.frontier.Close()
	e.cancel()
}

func (e *Engine) Pause() {
	if e.state.CompareAndSwap(int32(StateRunning), int32(StatePaused)) {
		e.logger.Info("crawl paused")
		e.scheduler.Pause()
	}
}

func (e *Engine) Resume() {
	if e.state.CompareAndSwap(int32(StatePaused), int32(StateRunning)) {
		e.logger.Info("crawl resumed")
		e.scheduler.Resume()
	}
}

func (e *Engine) Stats() *Stats { return e.stats }

func (e *Engine) GetState() State { return State(e.state.Load()) }

func (e *Engine) isDomainAllowed(domain string) bool {
	if len(e.task.AllowHosts) > 0 {
		for _, d := range e.task.AllowHosts {
			if d == domain {
				return true
			}
		}
		return false
	}
	for _, d := range e.task.DenyHosts {
		if d == domain {
			return false
		}
	}
	return true
}

// atMaxPages reports whether the task's page budget is exhausted.
func (e *Engine) atMaxPages() bool {
	return e.task.MaxPages > 0 && int(e.pageCount.Load()) >= e.task.MaxPages
}

func (e *Engine) atMaxDocuments() bool {
	return e.task.MaxDocument > 0 && int(e.docCount.Load()) >= e.task.MaxDocument
}

func (e *Engine) autoCheckpoint() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.Crawler.CheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			if err := e.checkpoint.Save(e.frontier, e.urlSeen, e.stats); err != nil {
				e.logger.Error("final checkpoint save failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := e.checkpoint.Save(e.frontier, e.urlSeen, e.stats); err != nil {
				e.logger.Error("checkpoint save failed", "error", err)
			}
		}
	}
}

// newDocumentID derives a stable, 16-hex document id from the task and
// canonicalized URL: re-crawling the same URL within the same task produces
// the same id, while two tasks crawling the same URL stay distinct.
func newDocumentID(taskID, rawURL string) string {
	sum := sha256.Sum256([]byte(taskID + "|" + dedup.CanonicalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])[:16]
}
