package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/retry"
)

const (
	defaultUserAgent = "Agriculture Digest Bot 1.0"
	defaultPerSource = 10
	defaultDelay     = 2 * time.Second
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
)

// Config carries the fetcher knobs. Zero values pick the defaults above.
type Config struct {
	UserAgent      string
	PerSourceLimit int
	SourceDelay    time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
}

// Fetcher downloads articles from every configured source, tolerating
// per-source failures. Sources are visited in config order with a polite
// delay between them, so the output order reflects source credibility.
type Fetcher struct {
	sources   []Source
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	perSource int
	delay     time.Duration
	retry     retry.Config
}

func NewFetcher(sources []Source, cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.PerSourceLimit <= 0 {
		cfg.PerSourceLimit = defaultPerSource
	}
	if cfg.SourceDelay < 0 {
		cfg.SourceDelay = 0
	} else if cfg.SourceDelay == 0 {
		cfg.SourceDelay = defaultDelay
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultRetries
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = cfg.UserAgent

	return &Fetcher{
		sources:   sources,
		client:    client,
		parser:    parser,
		userAgent: cfg.UserAgent,
		perSource: cfg.PerSourceLimit,
		delay:     cfg.SourceDelay,
		retry:     retry.Config{MaxAttempts: cfg.MaxRetries, Delay: cfg.SourceDelay},
	}
}

// Fetch visits every source and returns everything it could collect. A
// non-nil error alongside articles means some sources failed; a nil article
// list with an error means none succeeded.
func (f *Fetcher) Fetch(ctx context.Context) ([]article.Article, error) {
	var all []article.Article
	var failed []string
	attempted := 0

	for _, src := range f.sources {
		if src.Type == TypeTelegram {
			slog.Info("telegram source skipped, fetching not supported yet", "source", src.Name)
			continue
		}

		if attempted > 0 {
			if err := retry.Sleep(ctx, f.delay); err != nil {
				return nil, err
			}
		}
		attempted++

		articles, err := f.fetchSource(ctx, src)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			slog.Warn("source failed", "source", src.Name, "error", err)
			failed = append(failed, src.Name)
			continue
		}

		slog.Info("source fetched", "source", src.Name, "articles", len(articles))
		all = append(all, articles...)
	}

	if len(failed) == attempted && attempted > 0 {
		return nil, fmt.Errorf("all %d sources failed", attempted)
	}
	if len(failed) > 0 {
		return all, fmt.Errorf("%d of %d sources failed: %s",
			len(failed), attempted, strings.Join(failed, ", "))
	}
	return all, nil
}

func (f *Fetcher) fetchSource(ctx context.Context, src Source) ([]article.Article, error) {
	switch src.Type {
	case TypeRSS:
		return f.fetchFeed(ctx, src)
	case TypeScrape:
		return f.fetchListing(ctx, src)
	default:
		return nil, fmt.Errorf("unknown source type %q", src.Type)
	}
}

// sourceLimit is the article cap for one source: its own limit when set,
// the fetcher default otherwise.
func (f *Fetcher) sourceLimit(src Source) int {
	if src.Limit > 0 {
		return src.Limit
	}
	return f.perSource
}

// get downloads a page with the bot's User-Agent, retrying transient
// failures. The body is buffered so retries never see a half-read stream.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte

	err := retry.WithRetry(ctx, f.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	return body, err
}

// normalizePublished converts whatever timestamp format a feed uses to
// RFC3339, keeping the raw text when it cannot be parsed. An unparseable
// date is still worth a scoring point.
func normalizePublished(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return raw
}
