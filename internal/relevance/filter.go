package relevance

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

// Engine runs the language-agnostic pipeline stages over articles using the
// keyword data of one Lexicon. It is stateless apart from its configuration
// and safe for concurrent use.
type Engine struct {
	Lexicon      Lexicon
	MaxArticles  int
	SourcePoints []SourcePoint
}

// NewEngine builds an engine with the default source credibility table.
// maxArticles caps the ranked output; zero yields empty rankings.
func NewEngine(lex Lexicon, maxArticles int) *Engine {
	return &Engine{
		Lexicon:      lex,
		MaxArticles:  maxArticles,
		SourcePoints: DefaultSourcePoints,
	}
}

// Filter keeps agriculture-related articles. An article passes when title
// and summary together contain at least two distinct domain keywords, or
// the title alone contains at least one: a title hit is a stronger signal,
// so it needs a lower threshold.
func (e *Engine) Filter(articles []article.Article) []article.Article {
	relevant := make([]article.Article, 0, len(articles))
	for _, a := range articles {
		if e.isRelevant(a) {
			relevant = append(relevant, a)
		}
	}
	return relevant
}

func (e *Engine) isRelevant(a article.Article) bool {
	combined := strings.ToLower(a.Title + " " + a.Summary)
	if CountKeywords(combined, e.Lexicon.AgricultureKeywords) >= 2 {
		return true
	}
	return CountKeywords(strings.ToLower(a.Title), e.Lexicon.AgricultureKeywords) >= 1
}

// CountKeywords returns how many distinct keywords occur in text. Text must
// already be lowercased.
func CountKeywords(text string, keywords []string) int {
	count := 0
	for _, k := range keywords {
		if matchesKeyword(text, strings.ToLower(k)) {
			count++
		}
	}
	return count
}

// matchesKeyword distinguishes phrases and short words: phrases and normal
// words match as substrings, while words of up to three runes ("ии", "ai")
// must appear standalone so they do not fire inside unrelated longer words.
func matchesKeyword(text, keyword string) bool {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return false
	}
	if strings.Contains(keyword, " ") || utf8.RuneCountInString(keyword) > 3 {
		return strings.Contains(text, keyword)
	}
	return containsWord(text, keyword)
}

// containsWord reports whether word occurs in text delimited by non-word
// runes. Works on any script, unlike \b regexps which only know ASCII.
func containsWord(text, word string) bool {
	for start := 0; start <= len(text)-len(word); {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start

		before, _ := utf8.DecodeLastRuneInString(text[:idx])
		after, _ := utf8.DecodeRuneInString(text[idx+len(word):])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		start = idx + len(word)
	}

	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
