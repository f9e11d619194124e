package rank

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disamee/agriculture-digest-bot/internal/ailimit"
	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/gemini"
)

// Gemini asks the model for an importance ordering. The model answers with
// 1-based article numbers; anything out of range or repeated is dropped, so
// a sloppy response degrades instead of corrupting the digest.
type Gemini struct {
	client   *gemini.Client
	limiter  *ailimit.Limiter
	language string
	limit    int
}

func NewGemini(client *gemini.Client, limiter *ailimit.Limiter, language string, limit int) *Gemini {
	return &Gemini{client: client, limiter: limiter, language: language, limit: limit}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Rank(ctx context.Context, articles []article.Article) ([]article.Article, error) {
	if g.limiter != nil {
		if err := g.limiter.Use("gemini"); err != nil {
			return nil, err
		}
	}

	result, err := g.client.RankArticles(ctx, articles, g.language)
	if err != nil {
		return nil, err
	}

	picked := pickByNumbers(articles, result.RankedArticles, g.limit)
	if len(picked) == 0 {
		return nil, fmt.Errorf("model returned no usable article numbers")
	}

	slog.Debug("model ranking accepted",
		"picked", len(picked),
		"reasoning", result.Reasoning,
		"market_impact", result.MarketImpact)

	return picked, nil
}

// pickByNumbers resolves 1-based article numbers against the input slice,
// skipping out-of-range and repeated entries. limit <= 0 means no cap.
func pickByNumbers(articles []article.Article, numbers []int, limit int) []article.Article {
	picked := make([]article.Article, 0, len(articles))
	seen := make(map[int]bool, len(numbers))

	for _, num := range numbers {
		if num < 1 || num > len(articles) || seen[num] {
			continue
		}
		seen[num] = true
		picked = append(picked, articles[num-1])

		if limit > 0 && len(picked) >= limit {
			break
		}
	}

	return picked
}
