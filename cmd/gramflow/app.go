package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gramflow/gramflow/internal/classify"
	"github.com/gramflow/gramflow/internal/config"
	"github.com/gramflow/gramflow/internal/crawler"
	"github.com/gramflow/gramflow/internal/database"
	"github.com/gramflow/gramflow/internal/graph"
	"github.com/gramflow/gramflow/internal/proxy"
	"github.com/gramflow/gramflow/internal/scheduler"
)

// Environment variables holding the crawl session credentials. They are
// read from the process environment or a .env file.
const (
	envAPIURL   = "GRAMFLOW_API_URL"
	envUsername = "GRAMFLOW_USERNAME"
	envPassword = "GRAMFLOW_PASSWORD"
)

// buildProxyPool creates the rotating proxy pool from the pipeline
// file's proxy list. Returns nil when no proxies are configured; the
// crawler then connects directly.
func buildProxyPool(cfg *config.Config, logger *slog.Logger) (*proxy.Pool, error) {
	if len(cfg.Pipeline.Proxies) == 0 {
		return nil, nil
	}

	pool, err := proxy.NewPool(proxy.StaticSource(cfg.Pipeline.Proxies), config.DefaultProxyFloor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build proxy pool: %w", err)
	}

	logger.Info("proxy pool ready", "proxies", pool.Size())
	return pool, nil
}

// buildCrawler wires the HTTP client, proxy pool, and rate limits into
// a Crawler, establishing the API session.
func buildCrawler(ctx context.Context, cfg *config.Config, store *database.Store, logger *slog.Logger) (*crawler.Crawler, error) {
	baseURL := cfg.Pipeline.APIBaseURL
	if baseURL == "" {
		baseURL = os.Getenv(envAPIURL)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("API endpoint not configured (set api_base_url in the pipeline file or %s)", envAPIURL)
	}

	username := os.Getenv(envUsername)
	password := os.Getenv(envPassword)
	if username == "" || password == "" {
		return nil, fmt.Errorf("session credentials not configured (set %s and %s)", envUsername, envPassword)
	}

	pool, err := buildProxyPool(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := crawler.NewHTTPClient(baseURL, pool, cfg.Timeout, logger)
	if err := client.Login(ctx, username, password); err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	return crawler.New(store, client, logger,
		crawler.WithRateLimit(cfg.CrawlDelay, cfg.CrawlJitter),
		crawler.WithMaxCount(cfg.MaxCount),
	), nil
}

// buildScheduler wires the store, crawler, and mutual computer into a
// Scheduler configured from cfg.
func buildScheduler(cfg *config.Config, store *database.Store, c *crawler.Crawler, logger *slog.Logger) *scheduler.Scheduler {
	computer := graph.NewComputer(store, logger)
	return scheduler.New(store, c, computer, logger,
		scheduler.WithQuota(cfg.DailyQuota),
		scheduler.WithBatchSize(cfg.DispatchBatchSize),
		scheduler.WithJitter(cfg.JitterMin, cfg.JitterMax),
		scheduler.WithDedupWindow(cfg.DedupWindow),
	)
}

// buildInterestClassifier wires the LLM-backed classifier configured
// from cfg.
func buildInterestClassifier(cfg *config.Config, store *database.Store, logger *slog.Logger) (*classify.InterestClassifier, error) {
	llm, err := classify.NewOpenAIClassifier(logger)
	if err != nil {
		return nil, err
	}

	return classify.NewInterestClassifier(store, llm, logger,
		classify.WithBatchSize(cfg.ClassifyBatchSize),
		classify.WithDelays(cfg.ClassifyBatchDelay, cfg.ClassifyAccountDelay),
		classify.WithPendingLimit(cfg.PendingLimit),
	), nil
}
