package summarize

import (
	"regexp"
	"strings"
)

// Models decorate summaries with meta-text the digest must never show:
// parenthesized or bracketed disclaimers, whole "Note:" lines, and lead-ins
// like "Вот краткое резюме:". SanitizeAIText strips all of these.
var (
	inlineDisclaimerRe  = regexp.MustCompile(`(?i)\((?:note|примечание|disclaimer)[^)]*\)`)
	bracketDisclaimerRe = regexp.MustCompile(`(?i)\[(?:note|примечание|disclaimer)[^\]]*\]`)
	lineDisclaimerRe    = regexp.MustCompile(`(?i)^(?:note|примечание|disclaimer)\s*:`)
	leadInRe            = regexp.MustCompile(`(?i)^(?:вот\s+(?:краткое\s+)?резюме[^:]*:|here(?:'s| is)\s+(?:a\s+)?(?:brief\s+)?summary[^:]*:|резюме\s*:|summary\s*:)\s*`)
)

// SanitizeAIText cleans model output before it reaches the digest.
func SanitizeAIText(text string) string {
	text = inlineDisclaimerRe.ReplaceAllString(text, " ")
	text = bracketDisclaimerRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || lineDisclaimerRe.MatchString(line) {
			continue
		}

		line = leadInRe.ReplaceAllString(line, "")
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}

		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
