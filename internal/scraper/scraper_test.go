package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Wheat quotas</title></head><body>
<nav><a href="/">Home</a></nav>
<article>
  <h1>Wheat export quotas tightened</h1>
  <div class="content">
    <p>The agriculture ministry confirmed new export quotas for wheat and meslin starting in September.</p>
    <p>Traders expect the measure to support domestic flour prices through the autumn season.</p>
    <p>Подписывайтесь на наш Telegram</p>
    <p>ok</p>
  </div>
</article>
</body></html>`

func articleServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestFullText(t *testing.T) {
	ts := articleServer(t, articleHTML)
	e := New(time.Second, "")

	text, err := e.FullText(context.Background(), ts.URL+"/news/wheat-quotas")
	require.NoError(t, err)

	assert.Contains(t, text, "new export quotas for wheat and meslin")
	assert.Contains(t, text, "support domestic flour prices")
	assert.NotContains(t, text, "Подписывайтесь", "boilerplate paragraphs are dropped")
	assert.NotContains(t, text, "Home", "navigation never leaks into the body")
}

func TestFullTextSendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	e := New(time.Second, "Agriculture Digest Bot 1.0")
	_, err := e.FullText(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "Agriculture Digest Bot 1.0", gotUA)
}

func TestFullTextHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	e := New(time.Second, "")
	_, err := e.FullText(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFullTextNoContent(t *testing.T) {
	ts := articleServer(t, `<html><body><div class="promo">Ad</div></body></html>`)

	e := New(time.Second, "")
	_, err := e.FullText(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no readable content")
}

func TestFullTextCancelledContext(t *testing.T) {
	ts := articleServer(t, articleHTML)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(time.Second, "")
	_, err := e.FullText(ctx, ts.URL)
	assert.Error(t, err)
}

func TestParagraphsLadder(t *testing.T) {
	html := `<html><body>
<div class="content"><p>Ladder stops at the first selector with substantial text in it.</p></div>
<main><p>Never reached because the ladder already matched above.</p></main>
</body></html>`

	ts := articleServer(t, html)
	e := New(time.Second, "")

	text, err := e.FullText(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "Ladder stops")
	assert.NotContains(t, text, "Never reached")
}

func TestCleanTextDropsJunkAndShortLines(t *testing.T) {
	in := strings.Join([]string{
		"A solid paragraph about grain markets and export logistics.",
		"ok",
		"Поделиться в соцсетях",
		"Advertisement: buy a tractor today with zero percent financing.",
		"Another meaningful paragraph describing harvest progress in the north.",
	}, "\n\n")

	out := cleanText(in)
	assert.Contains(t, out, "grain markets")
	assert.Contains(t, out, "harvest progress")
	assert.NotContains(t, out, "ok")
	assert.NotContains(t, out, "Поделиться")
	assert.NotContains(t, out, "tractor")
}

func TestCapTextKeepsParagraphBoundaries(t *testing.T) {
	paragraph := strings.TrimSpace(strings.Repeat("зерно и рынок ", 20)) // ~280 runes
	long := strings.Join([]string{paragraph, paragraph, paragraph, paragraph,
		paragraph, paragraph, paragraph, paragraph}, "\n\n")

	out := capText(long)
	assert.LessOrEqual(t, len([]rune(out)), capTargetRunes)
	assert.NotContains(t, out, "\n\n\n")
	assert.True(t, strings.HasSuffix(out, paragraph),
		"the cut lands between paragraphs, not inside one")
}

func TestCapTextHardCutsOversizedParagraph(t *testing.T) {
	long := strings.Repeat("w", maxTextRunes+100)
	out := capText(long)
	assert.Len(t, []rune(out), capTargetRunes)
}
