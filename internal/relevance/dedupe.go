package relevance

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

const titleKeyWords = 6

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// stopWords are skipped when building title keys (Russian and English,
// matching the languages the sources publish in).
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "of": true, "in": true,
	"on": true, "for": true, "to": true, "at": true, "by": true, "from": true,
	"и": true, "в": true, "на": true, "с": true, "о": true, "по": true,
	"для": true, "от": true, "за": true, "из": true, "не": true, "как": true,
}

// Dedupe removes duplicate articles, keeping the first occurrence:
//
//   - exact link duplicates
//   - same content hash over lowercased title+summary
//   - with crossSource enabled, near-identical titles republished by
//     different outlets (compared on the first significant title words)
//
// The input order is preserved for survivors.
func Dedupe(articles []article.Article, crossSource bool) []article.Article {
	seenLink := make(map[string]bool)
	seenContent := make(map[string]bool)
	seenTitle := make(map[string]bool)

	unique := make([]article.Article, 0, len(articles))
	for _, a := range articles {
		if a.Link != "" {
			if seenLink[a.Link] {
				continue
			}
			seenLink[a.Link] = true
		}

		contentKey := ContentKey(a.Title, a.Summary)
		if seenContent[contentKey] {
			continue
		}
		seenContent[contentKey] = true

		if crossSource {
			if key := makeTitleKey(a.Title); key != "" {
				if seenTitle[key] {
					continue
				}
				seenTitle[key] = true
			}
		}

		unique = append(unique, a)
	}

	return unique
}

// ContentKey hashes title and summary for exact-duplicate detection. It is
// also the delivery-history key for articles without a link.
func ContentKey(title, summary string) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(title + summary)))
	return hex.EncodeToString(h.Sum(nil))
}

// makeTitleKey builds a lenient key from the first significant title words,
// so the same story from two outlets collapses even when punctuation or
// trailing qualifiers differ. An empty key means the title carries too
// little signal to dedupe on.
func makeTitleKey(title string) string {
	words := strings.Fields(normalizeText(title))

	significant := make([]string, 0, titleKeyWords)
	for _, w := range words {
		if len(significant) >= titleKeyWords {
			break
		}
		if stopWords[w] || utf8.RuneCountInString(w) <= 2 {
			continue
		}
		significant = append(significant, w)
	}

	if len(significant) == 0 {
		return ""
	}
	return strings.Join(significant, "_")
}

// normalizeText lowercases, strips HTML tags and keeps only letters, digits
// and spaces so word splitting is script-agnostic.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = htmlTagRe.ReplaceAllString(s, " ")

	runes := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, ' ')
		}
	}

	return strings.Join(strings.Fields(string(runes)), " ")
}
