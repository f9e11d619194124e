// Package gemini wraps the Google generative AI client with the two calls
// the digest pipeline makes: ranking a batch of articles and summarizing a
// single article. Prompt text lives here; callers never build prompts.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/disamee/agriculture-digest-bot/internal/article"
)

const defaultModel = "gemini-1.5-flash"

// promptContentLimit bounds article content sent to the model, in runes.
const promptContentLimit = 6000

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
	}

	return &Client{client: client, model: model}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// RankResult is the JSON shape the ranking prompt asks the model for.
// Indices refer to the 1-based article numbers used in the prompt.
type RankResult struct {
	RankedArticles []int  `json:"ranked_articles"`
	Reasoning      string `json:"reasoning"`
	MarketImpact   string `json:"market_impact"`
}

// RankArticles asks the model to order articles by market importance.
func (c *Client) RankArticles(ctx context.Context, articles []article.Article, language string) (*RankResult, error) {
	raw, err := c.generate(ctx, rankingPrompt(articles, language))
	if err != nil {
		return nil, err
	}

	raw = stripCodeFence(raw)

	var result RankResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parsing ranking response: %w", err)
	}
	if len(result.RankedArticles) == 0 {
		return nil, fmt.Errorf("ranking response contains no article indices")
	}

	return &result, nil
}

// Summarize produces a 2-3 sentence digest-language summary of one article.
func (c *Client) Summarize(ctx context.Context, title, content, language string) (string, error) {
	content = trimForPrompt(content)

	raw, err := c.generate(ctx, summaryPrompt(title, content, language))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(raw), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

func rankingPrompt(articles []article.Article, language string) string {
	var b strings.Builder
	for i, a := range articles {
		fmt.Fprintf(&b, "Статья %d:\n", i+1)
		fmt.Fprintf(&b, "Заголовок: %s\n", a.Title)
		fmt.Fprintf(&b, "Содержание: %s\n", trimForPrompt(a.Summary))
		fmt.Fprintf(&b, "Источник: %s\n", a.Source)
		if a.Link != "" {
			fmt.Fprintf(&b, "Ссылка: %s\n", a.Link)
		}
		b.WriteString("\n")
	}
	list := b.String()

	if language == "ru" {
		return fmt.Sprintf(`Ты - эксперт по сельскохозяйственным рынкам. Проанализируй следующие статьи и ранжируй их по важности для рынка:

%s
Верни JSON с ранжированием (номера статей начинаются с 1):
{
    "ranked_articles": [номера статей в порядке важности],
    "reasoning": "Краткое объяснение критериев ранжирования",
    "market_impact": "Общая оценка влияния на рынок"
}

Критерии важности:
1. Влияние на цены товаров
2. Значимость для торговли
3. Региональная важность
4. Временная актуальность
5. Источник и достоверность`, list)
	}

	return fmt.Sprintf(`You are an expert agriculture market analyst. Analyze these articles and rank them by market importance:

%s
Return JSON with the ranking (article numbers start at 1):
{
    "ranked_articles": [article numbers in order of importance],
    "reasoning": "Brief explanation of ranking criteria",
    "market_impact": "Overall market impact assessment"
}

Importance criteria:
1. Impact on commodity prices
2. Trade significance
3. Regional importance
4. Timeliness
5. Source credibility`, list)
}

func summaryPrompt(title, content, language string) string {
	if language == "ru" {
		return fmt.Sprintf(`Ты - эксперт по сельскохозяйственным рынкам. Создай краткое резюме статьи в 2-3 предложения на русском языке.

Статья:
Заголовок: %s

Содержание: %s

Требования:
- Резюме должно быть в 2-3 предложения
- Пиши профессионально, как для трейдеров и аналитиков
- Выдели ключевые факты и их влияние на рынок
- Используй терминологию сельскохозяйственного рынка
- Фокусируйся на практической значимости информации
- Не добавляй вводных фраз и примечаний

Резюме:`, title, content)
	}

	return fmt.Sprintf(`You are an expert agriculture market analyst. Create a brief article summary in 2-3 sentences in English.

Article:
Title: %s

Content: %s

Requirements:
- Summary should be 2-3 sentences
- Write professionally for traders and analysts
- Highlight key facts and their market impact
- Use agricultural market terminology
- Focus on practical significance of information
- Do not add preambles or disclaimers

Summary:`, title, content)
}

// trimForPrompt collapses whitespace and cuts content on a rune boundary,
// preferring to end at a sentence, so prompts stay a predictable size.
func trimForPrompt(content string) string {
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.Join(strings.Fields(content), " ")

	if utf8.RuneCountInString(content) <= promptContentLimit {
		return content
	}

	runes := []rune(content)
	trimmed := string(runes[:promptContentLimit])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed + "\n[TRUNCATED]"
}

// stripCodeFence unwraps ```json ... ``` fences models like to add around
// JSON answers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
