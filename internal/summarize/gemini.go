package summarize

import (
	"context"

	"github.com/disamee/agriculture-digest-bot/internal/gemini"
)

// Gemini adapts the Gemini client to the Summarizer interface.
type Gemini struct {
	client   *gemini.Client
	language string
}

func NewGemini(client *gemini.Client, language string) *Gemini {
	return &Gemini{client: client, language: language}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Summarize(ctx context.Context, title, content string) (string, error) {
	return g.client.Summarize(ctx, title, content, g.language)
}
