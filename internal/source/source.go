// Package source fetches raw articles from the configured news outlets:
// RSS feeds, listing pages scraped with CSS selectors, and (recognized but
// not yet fetched) Telegram channels.
package source

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Type tells the fetcher how to read a source.
type Type string

const (
	TypeRSS      Type = "rss"
	TypeScrape   Type = "scrape"
	TypeTelegram Type = "telegram"
)

// Selectors are the CSS selectors used to pull articles out of a listing
// page. Empty fields fall back to generic selectors that work on most news
// sites.
type Selectors struct {
	Title   string `yaml:"title,omitempty"`
	Link    string `yaml:"link,omitempty"`
	Summary string `yaml:"summary,omitempty"`
}

// Source is one configured news outlet.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	Type Type   `yaml:"type"`

	// RSSURL overrides URL for rss sources whose feed lives on a
	// different path than the site itself.
	RSSURL string `yaml:"rss_url,omitempty"`

	Selectors Selectors `yaml:"selectors,omitempty"`

	// Limit caps articles taken from this source; 0 uses the fetcher
	// default.
	Limit int `yaml:"limit,omitempty"`

	// Credibility orders sources before fetching; higher goes first.
	// Duplicate suppression keeps the first occurrence, so more credible
	// outlets win ties.
	Credibility int `yaml:"credibility,omitempty"`
}

// SourcesConfig is the YAML config structure
// sources:
//   - name: ...
//     url: https://...
//     type: rss | scrape | telegram
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing sources file %s: %w", path, err)
	}

	for i, src := range cfg.Sources {
		if err := src.validate(); err != nil {
			return nil, fmt.Errorf("sources file %s, entry %d: %w", path, i+1, err)
		}
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no sources", path)
	}

	sort.SliceStable(cfg.Sources, func(i, j int) bool {
		return cfg.Sources[i].Credibility > cfg.Sources[j].Credibility
	})
	return cfg.Sources, nil
}

func (s Source) validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("source %s: url is required", s.Name)
	}
	switch s.Type {
	case TypeRSS, TypeScrape, TypeTelegram:
		return nil
	default:
		return fmt.Errorf("source %s: unknown type %q", s.Name, s.Type)
	}
}

// DefaultSources is the built-in outlet list, used when no sources file is
// configured.
func DefaultSources() []Source {
	return []Source{
		{
			Name:        "Fastmarkets Agriculture",
			URL:         "https://www.fastmarkets.com/agriculture/grains-and-oilseeds/",
			Type:        TypeScrape,
			Credibility: 5,
			Selectors: Selectors{
				Title:   "h2, h3, .article-title, .headline",
				Link:    `a[href*="/news/"], a[href*="/analysis/"]`,
				Summary: "p, .article-summary, .excerpt",
			},
		},
		{
			Name:        "Margin.kz",
			URL:         "https://margin.kz/",
			Type:        TypeScrape,
			Credibility: 4,
			Selectors: Selectors{
				Title:   "h1, h2, h3, .title, .headline",
				Link:    `a[href*="/news/"], a[href*="/article/"]`,
				Summary: "p, .summary, .excerpt, .description",
			},
		},
		{
			Name:        "APK-Inform",
			URL:         "https://www.apk-inform.com/ru/news",
			Type:        TypeScrape,
			Credibility: 4,
			Selectors: Selectors{
				Title:   "h1, h2, h3, .news-title, .article-title",
				Link:    `a[href*="/news/"], a[href*="/ru/news/"]`,
				Summary: "p, .news-summary, .article-summary",
			},
		},
		{
			Name:        "APK News Kazakhstan",
			URL:         "https://apk-news.kz/",
			Type:        TypeScrape,
			Credibility: 4,
			Selectors: Selectors{
				Title:   "h1, h2, h3, .title, .headline",
				Link:    `a[href*="/news/"], a[href*="/article/"]`,
				Summary: "p, .summary, .excerpt",
			},
		},
		{
			Name:        "Eldala.kz",
			URL:         "https://eldala.kz/",
			Type:        TypeScrape,
			Credibility: 3,
			Selectors: Selectors{
				Title:   "h1, h2, h3, .title, .headline",
				Link:    `a[href*="/news/"], a[href*="/article/"]`,
				Summary: "p, .summary, .excerpt, .description",
			},
		},
		{
			Name:        "Andre Sizov Telegram",
			URL:         "https://t.me/andre_sizov",
			Type:        TypeTelegram,
			Credibility: 2,
		},
		{
			Name:        "AMIS Outlook",
			URL:         "https://www.amis-outlook.org/home",
			Type:        TypeScrape,
			Credibility: 3,
			Selectors: Selectors{
				Title:   "h1, h2, h3, .title, .headline",
				Link:    `a[href*="/news/"], a[href*="/article/"]`,
				Summary: "p, .summary, .excerpt, .description",
			},
		},
	}
}
