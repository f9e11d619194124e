package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

func TestDedupeDropsRepeatedLinks(t *testing.T) {
	articles := []article.Article{
		{Title: "Wheat harvest update", Link: "https://example.com/wheat", Source: "Eldala"},
		{Title: "Wheat harvest update (repost)", Link: "https://example.com/wheat", Source: "Aggregator"},
	}

	unique := Dedupe(articles, false)
	if assert.Len(t, unique, 1) {
		assert.Equal(t, "Eldala", unique[0].Source, "the first occurrence wins")
	}
}

func TestDedupeDropsIdenticalContent(t *testing.T) {
	articles := []article.Article{
		{Title: "Corn exports grow", Summary: "Volumes up 10%.", Link: "https://a.example/1"},
		{Title: "Corn exports grow", Summary: "Volumes up 10%.", Link: "https://b.example/2"},
	}

	unique := Dedupe(articles, false)
	assert.Len(t, unique, 1)
}

func TestDedupeCrossSourceTitles(t *testing.T) {
	articles := []article.Article{
		{Title: "Kazakhstan wheat harvest hits record high this season", Source: "Eldala", Link: "https://a.example/1"},
		{Title: "Kazakhstan wheat harvest hits record high — analysts", Source: "APK-Inform", Link: "https://b.example/2"},
	}

	strict := Dedupe(articles, true)
	assert.Len(t, strict, 1, "near-identical titles should collapse across sources")

	lenient := Dedupe(articles, false)
	assert.Len(t, lenient, 2, "cross-source suppression is opt-in")
}

func TestDedupePreservesOrder(t *testing.T) {
	articles := []article.Article{
		{Title: "First story about barley fields"},
		{Title: "Second story about dairy farms"},
		{Title: "First story about barley fields"},
		{Title: "Third story about grain exports"},
	}

	unique := Dedupe(articles, false)
	if assert.Len(t, unique, 3) {
		assert.Equal(t, "First story about barley fields", unique[0].Title)
		assert.Equal(t, "Second story about dairy farms", unique[1].Title)
		assert.Equal(t, "Third story about grain exports", unique[2].Title)
	}
}

func TestMakeTitleKeyNormalizes(t *testing.T) {
	a := makeTitleKey("Kazakhstan wheat harvest hits record high this season")
	b := makeTitleKey("Kazakhstan Wheat Harvest Hits Record High!!!")
	assert.Equal(t, a, b)

	assert.Empty(t, makeTitleKey(""), "empty titles carry no dedupe signal")
	assert.Empty(t, makeTitleKey("of in a"), "stopword-only titles carry no dedupe signal")
}
