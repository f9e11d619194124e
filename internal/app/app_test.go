package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disamee/agriculture-digest-bot/internal/article"
	"github.com/disamee/agriculture-digest-bot/internal/config"
	"github.com/disamee/agriculture-digest-bot/internal/relevance"
	"github.com/disamee/agriculture-digest-bot/internal/summarize"
)

func testEngine(t *testing.T) *relevance.Engine {
	t.Helper()
	lex, err := relevance.ForLanguage("ru")
	require.NoError(t, err)
	return relevance.NewEngine(lex, 8)
}

func TestBuildRankerSkipsGeminiWithoutClient(t *testing.T) {
	cfg := &config.Config{
		Language:         "ru",
		MaxTotalArticles: 8,
		RankStrategies:   []string{"gemini", "heuristic"},
	}

	chain := buildRanker(cfg, testEngine(t), nil, nil)

	articles := []article.Article{
		{Title: "Казахстан собрал рекордный урожай пшеницы", Source: "a"},
		{Title: "Экспорт зерна вырос", Source: "b"},
	}
	ranked, strategy, err := chain.Rank(context.Background(), articles)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", strategy)
	assert.Len(t, ranked, 2)
}

func TestBuildRankerFallsBackWhenNothingUsable(t *testing.T) {
	cfg := &config.Config{
		Language:         "ru",
		MaxTotalArticles: 8,
		RankStrategies:   []string{"gemini"},
	}

	chain := buildRanker(cfg, testEngine(t), nil, nil)

	_, strategy, err := chain.Rank(context.Background(), []article.Article{{Title: "пшеница"}})
	require.NoError(t, err)
	assert.Equal(t, "heuristic", strategy)
}

func TestBuildSummarizerNilWithoutProviders(t *testing.T) {
	cfg := &config.Config{
		Language:          "ru",
		SummaryStrategies: []string{"gemini", "openai"},
	}

	assert.Nil(t, buildSummarizer(cfg, nil, nil))
}

func TestBuildSummarizerUsesOpenAIKey(t *testing.T) {
	cfg := &config.Config{
		Language:          "ru",
		SummaryStrategies: []string{"openai"},
		OpenAIAPIKey:      "sk-test",
		OpenAIModel:       "gpt-4o-mini",
		SummaryTimeout:    time.Second,
	}

	s := buildSummarizer(cfg, nil, nil)
	require.NotNil(t, s)
	assert.IsType(t, (*summarize.Chain)(nil), s)
}

func TestLoadSourcesFallsBackToDefaults(t *testing.T) {
	sources, err := loadSources(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, sources)
	assert.Equal(t, "Fastmarkets Agriculture", sources[0].Name)
}

func TestLoadSourcesReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	yaml := `sources:
  - name: Grain Wire
    url: https://example.com/feed.xml
    type: rss
    credibility: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	sources, err := loadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Grain Wire", sources[0].Name)
}

func TestLoadLexiconPrefersCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	yaml := `language: en
agriculture_keywords: [grain]
high_impact_keywords: [price]
commodity_keywords: [wheat]
categories:
  - label: Grains
    keywords: [wheat]
other_category: Other
labels:
  digest_title: Grain Digest
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	lex, err := loadLexicon(&config.Config{Language: "ru", LexiconPath: path})
	require.NoError(t, err)
	assert.Equal(t, "en", lex.Language)
	assert.Equal(t, "Grain Digest", lex.Labels.DigestTitle)
}

func TestLoadLexiconDefaultsToBuiltins(t *testing.T) {
	lex, err := loadLexicon(&config.Config{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", lex.Language)
	assert.NotEmpty(t, lex.AgricultureKeywords)
}

func TestLoadSourcesPropagatesParseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [broken"), 0o644))

	_, err := loadSources(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading sources")
}
