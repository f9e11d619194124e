package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

const (
	defaultTitleSelector   = "h1, h2, h3, .title, .headline"
	defaultLinkSelector    = `a[href*="/news/"], a[href*="/article/"]`
	defaultSummarySelector = "p, .summary, .excerpt"

	// Shorter link texts are "Read more" stubs, not headlines.
	minTitleRunes   = 10
	minSummaryRunes = 20
	parentClimb     = 3
)

// fetchListing scrapes a news listing page: every element matching the link
// selector becomes an article candidate, with the title and summary pulled
// from the link itself or its enclosing card.
func (f *Fetcher) fetchListing(ctx context.Context, src Source) ([]article.Article, error) {
	body, err := f.get(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing listing %s: %w", src.URL, err)
	}

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("bad source url %s: %w", src.URL, err)
	}

	sel := src.Selectors
	if sel.Title == "" {
		sel.Title = defaultTitleSelector
	}
	if sel.Link == "" {
		sel.Link = defaultLinkSelector
	}
	if sel.Summary == "" {
		sel.Summary = defaultSummarySelector
	}

	limit := f.sourceLimit(src)

	var articles []article.Article
	seen := make(map[string]bool)

	doc.Find(sel.Link).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		abs := resolveLink(base, href)
		if abs == "" || seen[abs] {
			return true
		}

		title := extractTitle(link, sel.Title)
		if utf8.RuneCountInString(title) < minTitleRunes {
			return true
		}

		seen[abs] = true
		articles = append(articles, article.Article{
			Title:   title,
			Summary: extractSummary(link, sel.Summary, title),
			Link:    abs,
			Source:  src.Name,
		})
		return len(articles) < limit
	})

	return articles, nil
}

// extractTitle prefers the link's own text, climbing to enclosing elements
// when the link is an image or a "read more" stub.
func extractTitle(link *goquery.Selection, titleSelector string) string {
	title := collapseSpace(link.Text())
	if utf8.RuneCountInString(title) >= minTitleRunes {
		return title
	}

	parent := link.Parent()
	for i := 0; i < parentClimb && parent.Length() > 0; i++ {
		if t := collapseSpace(parent.Find(titleSelector).First().Text()); utf8.RuneCountInString(t) >= minTitleRunes {
			return t
		}
		parent = parent.Parent()
	}
	return title
}

// extractSummary looks for descriptive text in the link's enclosing card,
// skipping the title itself and short navigation crumbs.
func extractSummary(link *goquery.Selection, summarySelector, title string) string {
	container := link.Closest("article, li, div, section")
	if container.Length() == 0 {
		return ""
	}

	var summary string
	container.Find(summarySelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseSpace(s.Text())
		if utf8.RuneCountInString(text) < minSummaryRunes || text == title {
			return true
		}
		summary = text
		return false
	})
	return summary
}

// resolveLink absolutizes href against the listing page, dropping anchors
// and non-HTTP schemes.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	u, err := base.Parse(href)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
