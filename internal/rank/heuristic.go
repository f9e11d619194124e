package rank

import (
	"context"

	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/relevance"
)

// Heuristic ranks with the local keyword scorer. It needs no network and
// never fails, which makes it the terminal strategy of every chain.
type Heuristic struct {
	engine *relevance.Engine
}

func NewHeuristic(engine *relevance.Engine) *Heuristic {
	return &Heuristic{engine: engine}
}

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Rank(_ context.Context, articles []article.Article) ([]article.Article, error) {
	return h.engine.Rank(articles), nil
}
