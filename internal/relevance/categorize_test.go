package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

func TestCategorizeFirstMatchWins(t *testing.T) {
	engine := NewEngine(EnglishLexicon(), 8)

	// "wheat" hits Grains & Oilseeds before "price" could hit Market & Trade.
	buckets := engine.Categorize([]article.Article{
		{Title: "Wheat price rises on export demand"},
	})

	assert.Len(t, buckets["Grains & Oilseeds"], 1)
	assert.NotContains(t, buckets, "Market & Trade")
}

func TestCategorizeUsesCatchAll(t *testing.T) {
	engine := NewEngine(EnglishLexicon(), 8)

	buckets := engine.Categorize([]article.Article{
		{Title: "Village festival drew large crowds"},
	})

	assert.Len(t, buckets["Other"], 1)
}

func TestCategorizeOmitsEmptyBuckets(t *testing.T) {
	engine := NewEngine(EnglishLexicon(), 8)

	buckets := engine.Categorize([]article.Article{
		{Title: "Drone sensors cut fertilizer use"},
		{Title: "New subsidy program for farmers announced"},
	})

	assert.Len(t, buckets, 2)
	assert.Contains(t, buckets, "Technology & Innovation")
	assert.Contains(t, buckets, "Policy & Regulation")
}

func TestCategorizePartitionsInput(t *testing.T) {
	engine := NewEngine(EnglishLexicon(), 8)

	articles := []article.Article{
		{Title: "Wheat harvest outlook improves"},
		{Title: "Cattle prices steady"},
		{Title: "Drought hits southern regions"},
		{Title: "Village festival drew large crowds"},
	}

	buckets := engine.Categorize(articles)

	total := 0
	seen := make(map[string]int)
	for _, members := range buckets {
		total += len(members)
		for _, a := range members {
			seen[a.Title]++
		}
	}

	assert.Equal(t, len(articles), total)
	for _, a := range articles {
		assert.Equal(t, 1, seen[a.Title], "article %q must land in exactly one bucket", a.Title)
	}
}

func TestCategorizeRussianLabels(t *testing.T) {
	engine := NewEngine(RussianLexicon(), 8)

	buckets := engine.Categorize([]article.Article{
		{Title: "Новый дрон для мониторинга полей"},
	})

	assert.Len(t, buckets["Технологии"], 1)
}

func TestCategoryOrderEndsWithCatchAll(t *testing.T) {
	engine := NewEngine(EnglishLexicon(), 8)

	order := engine.CategoryOrder()
	assert.Equal(t, "Grains & Oilseeds", order[0])
	assert.Equal(t, "Other", order[len(order)-1])
}

func TestMarketThemes(t *testing.T) {
	engine := NewEngine(EnglishLexicon(), 8)

	themes := engine.MarketThemes([]article.Article{
		{Title: "Wheat price rises after drought"},
		{Title: "Export flows shift to new markets", Summary: "Trade volumes grew."},
	})

	assert.Equal(t, 1, themes["prices"])
	assert.Equal(t, 1, themes["weather"])
	assert.Equal(t, 1, themes["trade"])
	assert.Equal(t, 0, themes["technology"])
}
