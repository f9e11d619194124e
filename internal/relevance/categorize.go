package relevance

import (
	"strings"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

// Categorize partitions articles into topic buckets. Categories are tested
// in lexicon order and the first match wins, so every article lands in
// exactly one bucket. Articles matching nothing go to the catch-all
// category. Buckets with no members are absent from the result.
func (e *Engine) Categorize(articles []article.Article) map[string][]article.Article {
	buckets := make(map[string][]article.Article)
	for _, a := range articles {
		label := e.categoryFor(a)
		buckets[label] = append(buckets[label], a)
	}
	return buckets
}

func (e *Engine) categoryFor(a article.Article) string {
	text := strings.ToLower(a.Title + " " + a.Summary)
	for _, c := range e.Lexicon.Categories {
		for _, k := range c.Keywords {
			if matchesKeyword(text, strings.ToLower(k)) {
				return c.Label
			}
		}
	}
	return e.Lexicon.OtherCategory
}

// CategoryOrder returns the lexicon's category labels in priority order
// with the catch-all label last, for rendering buckets deterministically.
func (e *Engine) CategoryOrder() []string {
	order := make([]string, 0, len(e.Lexicon.Categories)+1)
	for _, c := range e.Lexicon.Categories {
		order = append(order, c.Label)
	}
	return append(order, e.Lexicon.OtherCategory)
}

// MarketThemes counts how many articles touch each lexicon theme. An
// article can count toward several themes but at most once per theme.
func (e *Engine) MarketThemes(articles []article.Article) map[string]int {
	themes := make(map[string]int, len(e.Lexicon.Themes))
	for _, theme := range e.Lexicon.Themes {
		themes[theme.Name] = 0
	}

	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Summary)
		for _, theme := range e.Lexicon.Themes {
			for _, k := range theme.Keywords {
				if matchesKeyword(text, strings.ToLower(k)) {
					themes[theme.Name]++
					break
				}
			}
		}
	}

	return themes
}
