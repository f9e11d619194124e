package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

// fetchFeed downloads and maps one RSS/Atom feed.
func (f *Fetcher) fetchFeed(ctx context.Context, src Source) ([]article.Article, error) {
	feedURL := src.RSSURL
	if feedURL == "" {
		feedURL = src.URL
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if limit := f.sourceLimit(src); len(items) > limit {
		items = items[:limit]
	}

	articles := make([]article.Article, 0, len(items))
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}

		published := ""
		switch {
		case item.PublishedParsed != nil:
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		case item.Published != "":
			published = normalizePublished(item.Published)
		}

		summary := strings.TrimSpace(item.Description)
		if summary == "" {
			summary = strings.TrimSpace(item.Content)
		}

		articles = append(articles, article.Article{
			Title:     strings.TrimSpace(item.Title),
			Summary:   summary,
			Link:      strings.TrimSpace(item.Link),
			Published: published,
			Source:    src.Name,
		})
	}
	return articles, nil
}
