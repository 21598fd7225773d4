package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/crawlchat/crawlchat/internal/answerer"
	"github.com/crawlchat/crawlchat/internal/api"
	"github.com/crawlchat/crawlchat/internal/cache"
	"github.com/crawlchat/crawlchat/internal/config"
	"github.com/crawlchat/crawlchat/internal/metastore"
	"github.com/crawlchat/crawlchat/internal/mq"
	"github.com/crawlchat/crawlchat/internal/objectstore"
	"github.com/crawlchat/crawlchat/internal/observability"
	"github.com/crawlchat/crawlchat/internal/queryplan"
	"github.com/crawlchat/crawlchat/internal/retriever"
	"github.com/crawlchat/crawlchat/internal/taskctl"
	"github.com/crawlchat/crawlchat/internal/vectorindex"
)

var serveAddr string

// serveCmd creates the "serve" subcommand: the HTTP control plane.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane (task API, chat API)",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

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
	numeric := cache.NewNumericContextCache(backend)

	index, err := vectorindex.New(cfg.VectorStore, logger)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer index.Close()

	retr := retriever.New(index, meta)
	planner := queryplan.New(numeric)

	llmClient := answerer.NewLLMClient(answerer.LLMConfig{
		Provider:    answerer.LLMProvider(cfg.LLM.Provider),
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	ans := answerer.New(llmClient, planner)

	tasks := taskctl.New(meta, mqClient, logger)

	server := api.NewServer(serveAddr, tasks, meta, objects, mqClient, retr, ans, planner, logger)

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(prometheus.DefaultRegisterer, logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	reapTicker := time.NewTicker(15 * time.Second)
	go func() {
		defer reapTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-reapTicker.C:
				tasks.ReapOrphans(ctx)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down...", "signal", sig)
		cancel()
		os.Exit(0)
	}()

	logger.Info("serve starting", "addr", serveAddr)
	return server.Start()
}

func newCacheBackend(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedis(cfg.RedisURL, "crawlchat")
	default:
		return cache.NewMemory(), nil
	}
}
