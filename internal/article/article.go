// Package article defines the news item that flows through the digest
// pipeline. Fetchers produce articles, the relevance engine filters and
// scores them, and the formatter renders them into a Telegram digest.
package article

// Article is one news item. Title, Summary and Source come from the
// fetcher; Link and Published are optional and stay empty when a source
// does not provide them. Score and AISummary are filled in by later
// pipeline stages.
type Article struct {
	Title     string
	Summary   string
	Source    string
	Link      string
	Published string

	// Score is the heuristic importance score assigned during ranking.
	Score int

	// AISummary is the model-written summary. Empty means no summary was
	// produced; the formatter must never invent one.
	AISummary string
}
