// Package digest renders ranked articles into the final Telegram digest
// text and owns the pipeline run that produces it.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/relevance"
)

const (
	defaultTopNews = 10
	maxTitleRunes  = 80
	themeBullets   = 3
)

// Formatter turns a ranked article list into one digest document. It is a
// pure renderer: summaries arrive already attached to the articles and are
// never invented here.
type Formatter struct {
	engine       *relevance.Engine
	topNews      int
	includeLinks bool

	// now is swapped in tests to pin the date line.
	now func() time.Time
}

func NewFormatter(engine *relevance.Engine, topNews int, includeLinks bool) *Formatter {
	if topNews <= 0 {
		topNews = defaultTopNews
	}
	return &Formatter{
		engine:       engine,
		topNews:      topNews,
		includeLinks: includeLinks,
		now:          time.Now,
	}
}

// TopNewsLimit is how many entries the top-news section renders, regardless
// of how many articles were ranked.
func (f *Formatter) TopNewsLimit() int { return f.topNews }

// Format renders the digest: header with article and distinct-source
// counts, an executive-summary block, numbered top-news entries, a category
// overview and a fixed footer. An empty input renders the "no relevant
// news" sentinel.
func (f *Formatter) Format(articles []article.Article) string {
	labels := f.engine.Lexicon.Labels
	if len(articles) == 0 {
		return labels.NoRelevantNews
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s - %s\n\n", labels.DigestTitle, f.now().Format(labels.DateFormat))
	fmt.Fprintf(&b, labels.HeaderCounts+"\n\n", len(articles), countSources(articles))

	b.WriteString(labels.KeyDevelopments + "\n")
	b.WriteString(f.executiveSummary(articles))
	b.WriteString("\n\n")

	b.WriteString(labels.TopNews + "\n\n")
	limit := f.topNews
	if len(articles) < limit {
		limit = len(articles)
	}
	for i, a := range articles[:limit] {
		f.writeEntry(&b, i+1, a)
	}

	if buckets := f.engine.Categorize(articles); len(buckets) > 1 {
		b.WriteString(labels.ByTopic + "\n")
		for _, label := range f.engine.CategoryOrder() {
			if n := len(buckets[label]); n > 0 {
				fmt.Fprintf(&b, "%s: %d\n", label, n)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	b.WriteString(labels.FooterGenerated + "\n")
	b.WriteString(labels.FooterUpdated)

	return b.String()
}

func (f *Formatter) writeEntry(b *strings.Builder, position int, a article.Article) {
	labels := f.engine.Lexicon.Labels

	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = labels.UntitledArticle
	}
	fmt.Fprintf(b, "**%d. %s**\n", position, truncateTitle(title))

	if a.Source != "" {
		fmt.Fprintf(b, "%s%s\n", labels.SourcePrefix, a.Source)
	}
	if a.AISummary != "" {
		b.WriteString(a.AISummary + "\n")
	}
	if f.includeLinks && a.Link != "" {
		fmt.Fprintf(b, labels.ReadMore+"\n", a.Link)
	}

	b.WriteString("\n")
}

// executiveSummary lists up to three theme bullets describing what moved
// the market today, falling back to a generic bullet when nothing matched.
func (f *Formatter) executiveSummary(articles []article.Article) string {
	themes := f.engine.MarketThemes(articles)

	bullets := make([]string, 0, themeBullets)
	for _, theme := range f.engine.Lexicon.Themes {
		if len(bullets) == themeBullets {
			break
		}
		if themes[theme.Name] > 0 {
			bullets = append(bullets, theme.Bullet)
		}
	}

	if len(bullets) == 0 {
		bullets = append(bullets, f.engine.Lexicon.Labels.DefaultBullet)
	}
	return strings.Join(bullets, "\n")
}

// truncateTitle cuts over-long titles on a rune boundary, leaving room for
// the ellipsis within the display limit.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes-3]) + "..."
}

// countSources counts distinct source names, matching the header's claim of
// how many outlets contributed.
func countSources(articles []article.Article) int {
	seen := make(map[string]bool, len(articles))
	for _, a := range articles {
		seen[a.Source] = true
	}
	return len(seen)
}
