package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/metrics"
	"github.com/disamee/agriculture-digest-bot/internal/relevance"
	"github.com/disamee/agriculture-digest-bot/internal/summarize"
)

// Fetcher hands the pipeline its raw articles.
type Fetcher interface {
	Fetch(ctx context.Context) ([]article.Article, error)
}

// Ranker orders relevant articles and names the strategy that did it.
type Ranker interface {
	Rank(ctx context.Context, articles []article.Article) ([]article.Article, string, error)
}

// Summarizer produces one article's summary; absence of summaries must
// never fail a digest.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (summarize.Result, error)
}

// Scraper fetches an article's full text when its listing summary is too
// thin to summarize well.
type Scraper interface {
	FullText(ctx context.Context, link string) (string, error)
}

// History remembers which articles earlier digests already delivered and
// records completed runs.
type History interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string, seenAt time.Time) error
	RecordRun(ctx context.Context, rec RunRecord) error
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// RunRecord summarizes one pipeline run for the history store.
type RunRecord struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Fetched      int           `json:"fetched"`
	Relevant     int           `json:"relevant"`
	Delivered    int           `json:"delivered"`
	RankStrategy string        `json:"rank_strategy,omitempty"`
	Status       string        `json:"status"` // ok, empty or failed
	Error        string        `json:"error,omitempty"`
}

// Digest is a completed pipeline result.
type Digest struct {
	RunID    string
	Text     string
	Articles []article.Article
	Strategy string
	// Empty marks the "no news" sentinels, which callers may deliver or
	// drop depending on the trigger.
	Empty bool
}

// Config carries the pipeline knobs that are not dependencies.
type Config struct {
	// CrossSourceDedupe collapses near-identical titles from different
	// outlets before filtering.
	CrossSourceDedupe bool
	// HistoryTTL is how long delivered articles stay suppressed. Zero
	// disables history-based suppression even when History is set.
	HistoryTTL time.Duration
}

// Runner executes one digest generation: fetch, dedupe, drop already
// delivered articles, filter, rank, summarize, format. Runs are
// independent; concurrent runs share no mutable state beyond the injected
// dependencies, which are safe for concurrent use.
type Runner struct {
	Fetcher    Fetcher
	Engine     *relevance.Engine
	Ranker     Ranker
	Summarizer Summarizer // optional
	Scraper    Scraper    // optional
	Formatter  *Formatter
	History    History // optional
	Config     Config
}

// Run produces a complete digest or an explicit error, never a partial
// document. Cancelling ctx abandons the run.
func (r *Runner) Run(ctx context.Context) (*Digest, error) {
	runID := uuid.NewString()
	started := time.Now()
	log := slog.With("run_id", runID)

	log.Info("digest run started")

	rec := RunRecord{ID: runID, StartedAt: started}
	dig, err := r.run(ctx, log, runID, &rec)

	duration := time.Since(started)
	metrics.Global.RecordRunDuration(duration)
	rec.Duration = duration

	if err != nil {
		metrics.Global.SetError(err.Error())
		rec.Status = "failed"
		rec.Error = err.Error()
		log.Error("digest run failed", "error", err, "duration", duration)
	} else {
		metrics.Global.SetLastRun()
		rec.Status = "ok"
		rec.RankStrategy = dig.Strategy
		rec.Delivered = len(dig.Articles)
		if dig.Empty {
			rec.Status = "empty"
		}
		log.Info("digest run finished", "status", rec.Status, "duration", duration)
	}
	r.recordRun(ctx, log, rec)

	return dig, err
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, runID string, rec *RunRecord) (*Digest, error) {
	labels := r.Engine.Lexicon.Labels

	fetched, err := r.Fetcher.Fetch(ctx)
	if err != nil && len(fetched) == 0 {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}
	if err != nil {
		log.Warn("some sources failed, continuing with partial fetch", "error", err, "articles", len(fetched))
	}
	metrics.Global.AddArticlesFetched(len(fetched))
	rec.Fetched = len(fetched)

	if len(fetched) == 0 {
		return &Digest{RunID: runID, Text: labels.NoArticles, Empty: true}, nil
	}

	unique := relevance.Dedupe(fetched, r.Config.CrossSourceDedupe)
	if dropped := len(fetched) - len(unique); dropped > 0 {
		metrics.Global.AddDuplicatesFiltered(dropped)
		log.Info("duplicates removed", "count", dropped)
	}

	fresh, err := r.dropDelivered(ctx, unique)
	if err != nil {
		return nil, err
	}

	relevant := r.Engine.Filter(fresh)
	metrics.Global.AddRelevantArticles(len(relevant))
	rec.Relevant = len(relevant)
	log.Info("articles filtered",
		"fetched", len(fetched),
		"fresh", len(fresh),
		"relevant", len(relevant))

	if len(relevant) == 0 {
		return &Digest{RunID: runID, Text: labels.NoRelevantNews, Empty: true}, nil
	}

	ranked, strategy, err := r.Ranker.Rank(ctx, relevant)
	if err != nil {
		return nil, fmt.Errorf("ranking articles: %w", err)
	}

	rendered := ranked
	if limit := r.Formatter.TopNewsLimit(); len(rendered) > limit {
		rendered = rendered[:limit]
	}

	if err := r.attachSummaries(ctx, log, rendered); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := r.Formatter.Format(ranked)
	r.markDelivered(ctx, log, rendered)

	return &Digest{
		RunID:    runID,
		Text:     text,
		Articles: rendered,
		Strategy: strategy,
	}, nil
}

// dropDelivered removes articles the history already saw. History failures
// degrade to keeping the article: a repeated story is better than a lost one.
func (r *Runner) dropDelivered(ctx context.Context, articles []article.Article) ([]article.Article, error) {
	if r.History == nil || r.Config.HistoryTTL <= 0 {
		return articles, nil
	}

	fresh := make([]article.Article, 0, len(articles))
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seen, err := r.History.Seen(ctx, historyKey(a))
		if err != nil {
			slog.Warn("history lookup failed, keeping article", "error", err)
			fresh = append(fresh, a)
			continue
		}
		if !seen {
			fresh = append(fresh, a)
		}
	}
	return fresh, nil
}

// Listing blurbs shorter than this are worth a full-page scrape before
// summarization.
const enrichBelowRunes = 200

// attachSummaries asks the summarizer for each rendered article, one at a
// time. A failed summary leaves the article without one; a cancelled
// context abandons the run.
func (r *Runner) attachSummaries(ctx context.Context, log *slog.Logger, rendered []article.Article) error {
	if r.Summarizer == nil {
		return nil
	}

	for i := range rendered {
		if err := ctx.Err(); err != nil {
			return err
		}

		content := r.summaryInput(ctx, log, rendered[i])

		res, err := r.Summarizer.Summarize(ctx, rendered[i].Title, content)
		if err != nil {
			metrics.Global.IncrementSummariesFailed()
			log.Warn("summary unavailable", "title", rendered[i].Title, "error", err)
			continue
		}

		rendered[i].AISummary = res.Summary
		if res.FromCache {
			metrics.Global.IncrementSummaryCacheHits()
		} else {
			metrics.Global.IncrementSummariesGenerated()
		}
		metrics.Global.RecordSummaryStrategy(res.Strategy)
	}

	return nil
}

// summaryInput picks what the summarizer reads: the listing summary, or
// the scraped full text when the summary is too thin to say anything.
func (r *Runner) summaryInput(ctx context.Context, log *slog.Logger, a article.Article) string {
	content := a.Summary
	if r.Scraper == nil || a.Link == "" || utf8.RuneCountInString(content) >= enrichBelowRunes {
		return content
	}

	full, err := r.Scraper.FullText(ctx, a.Link)
	if err != nil {
		log.Debug("full text unavailable", "link", a.Link, "error", err)
		return content
	}
	return full
}

func (r *Runner) markDelivered(ctx context.Context, log *slog.Logger, rendered []article.Article) {
	if r.History == nil || r.Config.HistoryTTL <= 0 {
		return
	}

	now := time.Now()
	for _, a := range rendered {
		if err := r.History.MarkSeen(ctx, historyKey(a), now); err != nil {
			log.Warn("failed to mark article as delivered", "error", err)
		}
	}

	if err := r.History.Cleanup(ctx, r.Config.HistoryTTL); err != nil {
		log.Warn("history cleanup failed", "error", err)
	}
}

func (r *Runner) recordRun(ctx context.Context, log *slog.Logger, rec RunRecord) {
	if r.History == nil {
		return
	}
	if err := r.History.RecordRun(ctx, rec); err != nil {
		log.Warn("failed to record run", "error", err)
	}
}

// historyKey identifies an article across runs: the link when present,
// otherwise a content hash.
func historyKey(a article.Article) string {
	if a.Link != "" {
		return a.Link
	}
	return relevance.ContentKey(a.Title, a.Summary)
}
