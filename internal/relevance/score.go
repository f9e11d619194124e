package relevance

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

// SourcePoint awards flat bonus points when the lowercased source name
// contains Match. The table is checked in order and only the first match
// counts, so entries never stack.
type SourcePoint struct {
	Match  string
	Points int
}

// DefaultSourcePoints ranks the outlets this bot follows by credibility.
var DefaultSourcePoints = []SourcePoint{
	{Match: "fastmarkets", Points: 5},
	{Match: "apk", Points: 4},
	{Match: "margin", Points: 4},
	{Match: "eldala", Points: 3},
	{Match: "amis", Points: 3},
}

// Score computes the additive importance score for one article:
//
//   - +3 per high-impact keyword in the title, +2 when only the summary has it
//   - +2 per commodity keyword in the title, +1 when only the summary has it
//   - source credibility bonus from the SourcePoints table (first match only)
//   - +1 when the summary exceeds 100 runes
//   - +1 when a publication timestamp is present
func (e *Engine) Score(a article.Article) int {
	title := strings.ToLower(a.Title)
	summary := strings.ToLower(a.Summary)

	score := keywordScore(title, summary, e.Lexicon.HighImpactKeywords, 3, 2)
	score += keywordScore(title, summary, e.Lexicon.CommodityKeywords, 2, 1)

	source := strings.ToLower(a.Source)
	for _, sp := range e.SourcePoints {
		if strings.Contains(source, sp.Match) {
			score += sp.Points
			break
		}
	}

	if utf8.RuneCountInString(a.Summary) > 100 {
		score++
	}
	if a.Published != "" {
		score++
	}

	return score
}

func keywordScore(title, summary string, keywords []string, titlePoints, summaryPoints int) int {
	total := 0
	for _, k := range keywords {
		k = strings.ToLower(k)
		switch {
		case matchesKeyword(title, k):
			total += titlePoints
		case matchesKeyword(summary, k):
			total += summaryPoints
		}
	}
	return total
}

// Rank scores every article and returns the top MaxArticles ordered by
// descending score. The sort is stable: equal-score articles keep their
// input order, so repeated runs over the same input are deterministic.
// Rank never fails; an empty input yields an empty result.
func (e *Engine) Rank(articles []article.Article) []article.Article {
	ranked := make([]article.Article, len(articles))
	copy(ranked, articles)

	for i := range ranked {
		ranked[i].Score = e.Score(ranked[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	limit := e.MaxArticles
	if limit < 0 {
		limit = 0
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
