package summarize

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI summarizes through the chat completions API. It is the secondary
// strategy for deployments that configure an OpenAI key.
type OpenAI struct {
	client   *openai.Client
	model    string
	language string
}

func NewOpenAI(apiKey, model, language string) *OpenAI {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAI{
		client:   openai.NewClient(apiKey),
		model:    model,
		language: language,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Summarize(ctx context.Context, title, content string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.3,
		MaxTokens:   220,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: o.systemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: o.userPrompt(title, content),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) systemPrompt() string {
	if o.language == "ru" {
		return "Ты - эксперт по сельскохозяйственным рынкам. Создавай краткие резюме статей в 2-3 предложения на русском языке, профессионально, для трейдеров и аналитиков. Без вводных фраз и примечаний."
	}
	return "You are an expert agriculture market analyst. Produce brief 2-3 sentence article summaries in English for traders and analysts. No preambles or disclaimers."
}

func (o *OpenAI) userPrompt(title, content string) string {
	if o.language == "ru" {
		return fmt.Sprintf("Заголовок: %s\n\nСодержание: %s", title, content)
	}
	return fmt.Sprintf("Title: %s\n\nContent: %s", title, content)
}
