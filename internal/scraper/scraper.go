// Package scraper pulls the full readable text of a single article page.
// The digest pipeline uses it to give the summarizer something better than
// a one-line listing blurb.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Agriculture Digest Bot 1.0"

	// Extracted text is capped on a paragraph boundary: prompts do not
	// need the whole article.
	maxTextRunes   = 1800
	capTargetRunes = 1600

	minParagraphRunes = 20
)

// Extractor fetches article pages and extracts their body text, using
// per-site selectors for the outlets this bot follows and a generic
// readability pass for everything else.
type Extractor struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Extractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FullText downloads the article page and returns its cleaned body text.
func (e *Extractor) FullText(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", link, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("loading page %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, link)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading page %s: %w", link, err)
	}

	text := extractBySite(body, link)
	if text == "" {
		text = extractReadable(body, link)
	}

	text = cleanText(text)
	if text == "" {
		return "", fmt.Errorf("no readable content at %s", link)
	}
	return text, nil
}

// extractBySite runs the selector ladder for the outlet hosting the page.
func extractBySite(body []byte, link string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	switch {
	case strings.Contains(link, "apk-inform.com"):
		return paragraphs(doc, []string{".news-text p", ".article-body p", ".content p", "article p"})
	case strings.Contains(link, "margin.kz"):
		return paragraphs(doc, []string{".article-content p", ".post-content p", ".content p", "article p"})
	case strings.Contains(link, "eldala.kz"):
		return paragraphs(doc, []string{".article-body p", ".news-detail p", ".content p", "article p"})
	case strings.Contains(link, "fastmarkets.com"):
		return paragraphs(doc, []string{".article-body p", ".entry-content p", "article p", "main p"})
	default:
		return paragraphs(doc, []string{
			"article p", ".article p", ".content p",
			".post-content p", ".entry-content p", "main p",
		})
	}
}

// paragraphs walks the ladder and returns the first selector that yields
// real text.
func paragraphs(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var parts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := collapseSpace(s.Text())
			if utf8.RuneCountInString(text) >= minParagraphRunes {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	return ""
}

// extractReadable is the generic fallback for sites the ladder does not
// know.
func extractReadable(body []byte, link string) string {
	pageURL, err := url.Parse(link)
	if err != nil {
		pageURL = nil
	}

	art, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	// TextContent separates blocks with single newlines; cleanText works
	// on blank-line paragraphs.
	return strings.ReplaceAll(art.TextContent, "\n", "\n\n")
}

// junkPhrases are link stubs the followed outlets embed mid-paragraph;
// whole boilerplate paragraphs are caught by junkIndicators instead.
var junkPhrases = []string{
	"Читать далее", "Читать полностью", "Подробнее по ссылке",
	"Read more", "Continue reading",
}

var junkIndicators = []string{
	"cookie", "gdpr", "реклама", "подпишитесь", "подписывайтесь",
	"поделиться", "все права защищены", "advertisement", "subscribe",
	"related articles", "follow us",
}

// cleanText strips boilerplate, drops junk paragraphs and caps the result
// on a paragraph boundary.
func cleanText(text string) string {
	for _, phrase := range junkPhrases {
		text = strings.ReplaceAll(text, phrase, "")
	}

	var kept []string
	for _, p := range strings.Split(text, "\n\n") {
		p = collapseSpace(p)
		if utf8.RuneCountInString(p) < minParagraphRunes {
			continue
		}
		if isJunkParagraph(p) {
			continue
		}
		kept = append(kept, p)
	}

	return capText(strings.Join(kept, "\n\n"))
}

func isJunkParagraph(p string) bool {
	lower := strings.ToLower(p)
	for _, indicator := range junkIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// capText keeps whole paragraphs while they fit the target, falling back
// to a hard rune cut when even the first paragraph is too long.
func capText(text string) string {
	if utf8.RuneCountInString(text) <= maxTextRunes {
		return text
	}

	var kept []string
	total := 0
	for _, p := range strings.Split(text, "\n\n") {
		n := utf8.RuneCountInString(p)
		if total+n > capTargetRunes {
			break
		}
		kept = append(kept, p)
		total += n + 2
	}

	if len(kept) == 0 {
		runes := []rune(text)
		return string(runes[:capTargetRunes])
	}
	return strings.Join(kept, "\n\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
