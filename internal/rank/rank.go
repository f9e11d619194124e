// Package rank selects the articles worth publishing. Ranking strategies
// are tried in a fixed order; the first one that succeeds wins, and the
// chain reports which strategy produced the ordering instead of silently
// falling through.
package rank

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/metrics"
)

// Strategy orders articles by importance. Implementations must not mutate
// the input slice.
type Strategy interface {
	Name() string
	Rank(ctx context.Context, articles []article.Article) ([]article.Article, error)
}

// Chain tries strategies in order until one succeeds.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Rank returns the ordered articles and the name of the strategy that
// produced them. It fails only when every strategy fails; putting the local
// heuristic last therefore makes the chain effectively infallible.
func (c *Chain) Rank(ctx context.Context, articles []article.Article) ([]article.Article, string, error) {
	if len(articles) == 0 {
		return nil, "", nil
	}

	var lastErr error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		ranked, err := s.Rank(ctx, articles)
		if err != nil {
			slog.Warn("ranking strategy failed", "strategy", s.Name(), "error", err)
			lastErr = err
			continue
		}

		slog.Info("ranking strategy produced ordering",
			"strategy", s.Name(),
			"in", len(articles),
			"out", len(ranked))
		metrics.Global.RecordRankStrategy(s.Name())
		return ranked, s.Name(), nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no ranking strategies configured")
	}
	return nil, "", fmt.Errorf("all ranking strategies failed: %w", lastErr)
}
