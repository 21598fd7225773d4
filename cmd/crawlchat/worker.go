package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/crawlchat/crawlchat/internal/chunker"
	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/crawler"
	"github.com/crawlchat/crawlchat/internal/indexing"
	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/model"
	"github.com/crawlchat/crawlchat/internal/mq"
	"github.com/crawlchat/crawlchat/internal/objectstore"
	"github.com/crawlchat/crawlchat/internal/observability"
	"github.com/crawlchat/crawlchat/internal/proxygateway"
	"github.com/crawlchat/crawlchat/internal/taskctl"
	"github.com/crawlchat/crawlchat/internal/textextract"
	"github.com/crawlchat/crawlchat/internal/vectorindex"
)

// workerID identifies this process to the task manager's liveness tracker.
var workerID = "worker-" + uuid.NewString()[:8]

// workerCmd creates the "worker" subcommand: a crawl worker that also runs
// the indexing consumer, since both are I/O-bound and benefit from scaling
// together one worker process at a time.
func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run a crawl + indexing worker",
		RunE:  runWorker,
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := setupLogger().With("worker_id", workerID)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	meta, err := metastore.New(cfg.MetaStore.URI, cfg.MetaStore.Database, logger)
	if err != nil {
		return fmt.Errorf("connect metastore: %w", err)
	}
	defer meta.Close()

	objects, err := objectstore.NewFilesystemStore(cfg.ObjectStore.RootDir, logger)
	if err != nil {
		return fmt.Errorf("open object store: %w", err)
	}

	mqClient, err := mq.Connect(cfg.MQ.URL, cfg.MQ.StreamName)
	if err != nil {
		return fmt.Errorf("connect mq: %w", err)
	}
	defer mqClient.Close()

	backend, err := newCacheBackend(cfg.Cache)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	hostCache := proxygateway.NewHostCapabilityCache(backend)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(prometheus.DefaultRegisterer, logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	gateway, err := proxygateway.NewGateway(cfg, hostCache, metrics, logger)
	if err != nil {
		return fmt.Errorf("create proxy gateway: %w", err)
	}
	defer gateway.Close()

	index, err := vectorindex.New(cfg.VectorStore, logger)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer index.Close()

	extractChain := textextract.NewChain(&cfg.OCR, logger)
	chunks := chunker.New(cfg.Chunker, logger)

	indexWorker := indexing.New(objects, meta, extractChain, chunks, index, logger)
	stopIndexing, err := indexWorker.Run(mqClient, "crawlchat-indexer")
	if err != nil {
		return fmt.Errorf("start indexing worker: %w", err)
	}
	defer stopIndexing()

	tasks := taskctl.New(meta, mqClient, logger)
	sink := mq.NewDocumentSink(mqClient)

	stopCrawling, err := mqClient.SubscribeTasks("crawlchat-crawler", func(task *model.CrawlTask) error {
		return runCrawlTask(cfg, logger, tasks, task, gateway, objects, meta, sink)
	})
	if err != nil {
		return fmt.Errorf("subscribe to crawl tasks: %w", err)
	}
	defer stopCrawling()

	logger.Info("worker started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down...", "signal", sig)
	return nil
}

// runCrawlTask drives one CrawlTask's engine to completion and reports the
// outcome back through the task manager.
func runCrawlTask(cfg *config.Config, logger *slog.Logger, tasks *taskctl.Manager, task *model.CrawlTask, gateway *proxygateway.Gateway, objects objectstore.Store, meta *metastore.Store, sink *mq.DocumentSink) error {
	ctx := context.Background()
	if err := tasks.Claim(ctx, task, workerID); err != nil {
		return fmt.Errorf("claim task %s: %w", task.ID, err)
	}

	hb := time.NewTicker(10 * time.Second)
	defer hb.Stop()
	stopHeartbeat := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopHeartbeat:
				return
			case <-hb.C:
				tasks.Heartbeat(workerID, task.ID)
			}
		}
	}()

	eng := crawler.New(cfg, logger, task, gateway, objects, meta, sink)

	var seedsAdded int
	for _, seed := range task.Seeds {
		if err := eng.AddSeed(seed); err != nil {
			logger.Warn("seed skipped", "task_id", task.ID, "url", seed, "reason", err)
		} else {
			seedsAdded++
		}
	}

	var runErr error
	if seedsAdded == 0 {
		runErr = fmt.Errorf("all seeds were filtered or blocked")
	} else if err := eng.Start(); err != nil {
		runErr = fmt.Errorf("start engine: %w", err)
	} else {
		eng.Wait()
	}

	close(stopHeartbeat)

	if err := tasks.Complete(ctx, task, runErr); err != nil {
		logger.Error("complete task failed", "task_id", task.ID, "error", err)
	}

	stats := eng.Stats().Snapshot()
	logger.Info("crawl task finished", "task_id", task.ID, "error", runErr,
		"requests", stats["requests_sent"], "documents", stats["documents_stored"])

	return runErr
}
