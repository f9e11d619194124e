// Package summarize produces the short per-article summaries shown in the
// digest. Strategies are tried in a fixed order under a per-call timeout;
// when every strategy fails the article simply gets no summary line. No
// strategy is allowed to fabricate text locally: summaries come from a
// model or not at all.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/disamee/agriculture-digest-bot/internal/ailimit"
	"github.com/disamee/agriculture-digest-bot/internal/cache"
)

// Summarizer is one way of producing a summary for a single article.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, title, content string) (string, error)
}

// Result reports the summary and which strategy produced it, so the caller
// can log the producer instead of guessing.
type Result struct {
	Summary   string
	Strategy  string
	FromCache bool
}

// Options tune the chain. Zero values pick the defaults.
type Options struct {
	// Timeout bounds each strategy call for one article.
	Timeout time.Duration
	// MinRunes rejects model output too short to be a real summary.
	MinRunes int
	// Cache, when set, stores accepted summaries under CacheTTL.
	Cache    *cache.Cache
	CacheTTL time.Duration
	// Limiter, when set, charges one request per strategy attempt.
	Limiter *ailimit.Limiter
}

const (
	defaultTimeout  = 20 * time.Second
	defaultMinRunes = 20
	defaultCacheTTL = 12 * time.Hour
)

// Chain tries summarizers in order and returns the first acceptable result.
type Chain struct {
	summarizers []Summarizer
	opts        Options
}

func NewChain(summarizers []Summarizer, opts Options) *Chain {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MinRunes <= 0 {
		opts.MinRunes = defaultMinRunes
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Chain{summarizers: summarizers, opts: opts}
}

// Summarize returns a sanitized summary for one article. The error is
// informational: callers render the article without a summary on failure
// and keep the digest going.
func (c *Chain) Summarize(ctx context.Context, title, content string) (Result, error) {
	var key string
	if c.opts.Cache != nil {
		key = c.opts.Cache.GenerateKey(title, content)
		if item, ok := c.opts.Cache.Get(key); ok {
			if c.opts.Limiter != nil {
				c.opts.Limiter.RecordCacheHit()
			}
			return Result{Summary: item.Summary, Strategy: item.Strategy, FromCache: true}, nil
		}
	}

	var lastErr error
	for _, s := range c.summarizers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if c.opts.Limiter != nil {
			if err := c.opts.Limiter.Use(s.Name()); err != nil {
				slog.Warn("skipping summarizer", "strategy", s.Name(), "error", err)
				lastErr = err
				continue
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		raw, err := s.Summarize(callCtx, title, content)
		cancel()

		if err != nil {
			slog.Warn("summarizer failed", "strategy", s.Name(), "error", err)
			lastErr = err
			continue
		}

		summary := SanitizeAIText(raw)
		if utf8.RuneCountInString(summary) < c.opts.MinRunes {
			slog.Warn("summarizer output too short",
				"strategy", s.Name(),
				"runes", utf8.RuneCountInString(summary))
			lastErr = fmt.Errorf("%s returned a summary below %d runes", s.Name(), c.opts.MinRunes)
			continue
		}

		if c.opts.Cache != nil {
			c.opts.Cache.Set(key, summary, s.Name(), c.opts.CacheTTL)
		}

		slog.Debug("summary produced", "strategy", s.Name())
		return Result{Summary: summary, Strategy: s.Name()}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no summarizers configured")
	}
	return Result{}, lastErr
}
