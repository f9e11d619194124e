// Package app assembles the digest pipeline from configuration and runs
// it until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disamee/agriculture-digest-bot/internal/ailimit"
	"github.com/disamee/agriculture-digest-bot/internal/cache"
	"github.com/disamee/agriculture-digest-bot/internal/config"
	"github.com/disamee/agriculture-digest-bot/internal/digest"
	"github.com/disamee/agriculture-digest-bot/internal/gemini"
	"github.com/disamee/agriculture-digest-bot/internal/metrics"
	"github.com/disamee/agriculture-digest-bot/internal/rank"
	"github.com/disamee/agriculture-digest-bot/internal/relevance"
	"github.com/disamee/agriculture-digest-bot/internal/schedule"
	"github.com/disamee/agriculture-digest-bot/internal/scraper"
	"github.com/disamee/agriculture-digest-bot/internal/source"
	"github.com/disamee/agriculture-digest-bot/internal/storage"
	"github.com/disamee/agriculture-digest-bot/internal/summarize"
	"github.com/disamee/agriculture-digest-bot/internal/telegram"
)

// runTimeout bounds one digest generation end to end. Seven polite
// source fetches plus per-article summaries fit well inside it.
const runTimeout = 10 * time.Minute

// Run wires the pipeline from cfg and blocks until a shutdown signal.
// In serve mode it starts the bot and the daily schedule; in once mode
// it generates and delivers a single digest and exits.
func Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lex, err := loadLexicon(cfg)
	if err != nil {
		return err
	}
	engine := relevance.NewEngine(lex, cfg.MaxTotalArticles)

	sources, err := loadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	history, err := storage.Open(storage.Config{
		Backend:     cfg.HistoryBackend(),
		FilePath:    cfg.HistoryFilePath,
		SQLitePath:  cfg.SQLitePath,
		PostgresURL: cfg.DatabaseURL,
		TTL:         cfg.HistoryTTL,
	})
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer history.Close()

	var geminiClient *gemini.Client
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("creating gemini client: %w", err)
		}
		defer geminiClient.Close()
	}

	limiter := ailimit.New(map[string]int{
		"gemini": cfg.MaxAIRequests,
		"openai": cfg.MaxAIRequests,
	}, 2*cfg.MaxAIRequests)

	runner := &digest.Runner{
		Fetcher: source.NewFetcher(sources, source.Config{
			PerSourceLimit: cfg.PerSourceLimit,
			SourceDelay:    cfg.SourceDelay,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.FetchRetries,
		}),
		Engine:     engine,
		Ranker:     buildRanker(cfg, engine, geminiClient, limiter),
		Summarizer: buildSummarizer(cfg, geminiClient, limiter),
		Scraper:    scraper.New(cfg.RequestTimeout, ""),
		Formatter:  digest.NewFormatter(engine, cfg.TopNewsLimit, true),
		History:    history,
		Config: digest.Config{
			CrossSourceDedupe: cfg.CrossSourceDedupe,
			HistoryTTL:        cfg.HistoryTTL,
		},
	}

	bot, err := telegram.New(cfg.TelegramToken, runner, telegram.Options{
		ChannelID:   cfg.TelegramChannel,
		Schedule:    cfg.Schedule,
		Timezone:    cfg.Timezone,
		MaxArticles: cfg.MaxTotalArticles,
	})
	if err != nil {
		return err
	}

	deliver := func() {
		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		dig, err := runner.Run(runCtx)
		if err != nil {
			slog.Error("digest run failed", "error", err)
			return
		}
		if err := bot.Deliver(runCtx, dig.Text); err != nil {
			slog.Error("digest delivery failed", "run_id", dig.RunID, "error", err)
			return
		}
		metrics.Global.IncrementDigestsSent()
	}

	if cfg.RunMode == "once" {
		deliver()
		return nil
	}

	sched, err := schedule.New(cfg.Timezone)
	if err != nil {
		return err
	}
	if err := sched.Schedule(cfg.Schedule, deliver); err != nil {
		return fmt.Errorf("scheduling digest: %w", err)
	}
	sched.Start()
	defer func() {
		stopCtx := sched.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(30 * time.Second):
			slog.Warn("shutdown timed out waiting for a running digest")
		}
	}()

	slog.Info("bot started", "channel", cfg.TelegramChannel, "next_digest", sched.Next())

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot polling: %w", err)
	}
	return nil
}

// loadLexicon returns the configured language's built-in lexicon, or a
// custom one when LEXICON_PATH points at a YAML file.
func loadLexicon(cfg *config.Config) (relevance.Lexicon, error) {
	if cfg.LexiconPath != "" {
		return relevance.LoadLexicon(cfg.LexiconPath)
	}
	return relevance.ForLanguage(cfg.Language)
}

// loadSources reads the YAML source list, falling back to the built-in
// outlets when the file does not exist.
func loadSources(path string) ([]source.Source, error) {
	sources, err := source.LoadSources(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("sources file missing, using built-in sources", "path", path)
		return source.DefaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}
	slog.Info("sources loaded", "path", path, "count", len(sources))
	return sources, nil
}

// buildRanker assembles the rank chain in configured order, skipping
// strategies whose credentials are missing. The chain never ends up
// empty: heuristic ranking needs nothing but the lexicon.
func buildRanker(cfg *config.Config, engine *relevance.Engine, client *gemini.Client, limiter *ailimit.Limiter) *rank.Chain {
	var strategies []rank.Strategy
	for _, name := range cfg.RankStrategies {
		switch name {
		case "gemini":
			if client == nil {
				slog.Info("rank strategy disabled, no gemini key", "strategy", name)
				continue
			}
			strategies = append(strategies, rank.NewGemini(client, limiter, cfg.Language, cfg.MaxTotalArticles))
		case "heuristic":
			strategies = append(strategies, rank.NewHeuristic(engine))
		}
	}
	if len(strategies) == 0 {
		slog.Warn("no usable rank strategies configured, falling back to heuristic")
		strategies = append(strategies, rank.NewHeuristic(engine))
	}
	return rank.NewChain(strategies...)
}

// buildSummarizer assembles the summary chain, or nil when no provider
// has credentials. Digests then keep the source-provided summaries.
func buildSummarizer(cfg *config.Config, client *gemini.Client, limiter *ailimit.Limiter) digest.Summarizer {
	var summarizers []summarize.Summarizer
	for _, name := range cfg.SummaryStrategies {
		switch name {
		case "gemini":
			if client == nil {
				slog.Info("summary strategy disabled, no gemini key", "strategy", name)
				continue
			}
			summarizers = append(summarizers, summarize.NewGemini(client, cfg.Language))
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				slog.Info("summary strategy disabled, no openai key", "strategy", name)
				continue
			}
			summarizers = append(summarizers, summarize.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Language))
		}
	}
	if len(summarizers) == 0 {
		slog.Info("no AI summarizers available, digests keep source summaries")
		return nil
	}
	return summarize.NewChain(summarizers, summarize.Options{
		Timeout: cfg.SummaryTimeout,
		Cache:   cache.New(),
		Limiter: limiter,
	})
}
