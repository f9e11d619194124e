// Package telegram runs the bot: command handling over long polling and
// digest delivery to the configured channel.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
	"github.com/disamee/agriculture-digest-bot/internal/retry"
)

// Telegram caps messages at 4096 characters. Stay under it with margin
// for characters outside the Basic Multilingual Plane.
const maxMessageRunes = 4000

const defaultRetries = 3

const (
	processingText   = "🔄 Generating agriculture digest..."
	digestFailedText = "❌ Failed to generate digest. Please try again later."
)

const welcomeText = `🌾 **Welcome to Agriculture Digest Bot!**

This bot provides daily agriculture market news and insights.

**Available Commands:**
/start - Show this welcome message
/digest - Generate and send current digest
/help - Show help information
/status - Show bot status

**Features:**
• Daily automated digest delivery
• Curated agriculture news from multiple sources
• Topic-based organization
• Direct links to full articles

The bot will automatically send daily digests to the configured channel.`

const helpText = `📖 **Agriculture Digest Bot Help**

**Commands:**
• /start - Welcome message and bot introduction
• /digest - Manually generate and send current digest
• /help - Show this help message
• /status - Show bot status and configuration

**How it works:**
1. Bot fetches agriculture news from configured sources
2. Filters and ranks articles by relevance
3. Generates formatted digest with summaries and links
4. Sends digest to Telegram channel

**Schedule:** Daily digests are sent automatically at the configured time.

For support or suggestions, contact the bot administrator.`

// Digester produces a digest on demand. *digest.Runner satisfies it.
type Digester interface {
	Run(ctx context.Context) (*digest.Digest, error)
}

// api is the slice of tgbotapi.BotAPI the bot uses, split out so tests can
// stub the Telegram backend.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Options configures delivery and the /status report.
type Options struct {
	// ChannelID is where scheduled digests go: an @channelname or a
	// numeric chat id.
	ChannelID string
	// Schedule and Timezone are informational, shown by /status.
	Schedule string
	Timezone string
	// MaxArticles is informational, shown by /status.
	MaxArticles int
	// Retries is how many times a channel send is attempted. Defaults
	// to 3.
	Retries int
}

// Bot answers commands and delivers digests.
type Bot struct {
	api        api
	self       tgbotapi.User
	digester   Digester
	opts       Options
	retryDelay time.Duration
}

// New authenticates against the Bot API and returns a ready bot.
func New(token string, digester Digester, opts Options) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return newBot(tg, tg.Self, digester, opts), nil
}

func newBot(api api, self tgbotapi.User, digester Digester, opts Options) *Bot {
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	return &Bot{
		api:        api,
		self:       self,
		digester:   digester,
		opts:       opts,
		retryDelay: 2 * time.Second,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	slog.Info("telegram bot listening", "username", b.self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	slog.Debug("command received", "command", msg.Command(), "chat_id", chatID)

	switch msg.Command() {
	case "start":
		b.reply(chatID, welcomeText)
	case "help":
		b.reply(chatID, helpText)
	case "status":
		b.reply(chatID, b.statusText())
	case "digest":
		// Digest generation takes a while; keep the update loop free.
		go b.handleDigest(ctx, chatID)
	}
}

// handleDigest runs the pipeline for a /digest command and replies into
// the requesting chat.
func (b *Bot) handleDigest(ctx context.Context, chatID int64) {
	processing, err := b.api.Send(tgbotapi.NewMessage(chatID, processingText))
	if err != nil {
		slog.Warn("sending processing notice", "error", err)
	}

	dig, err := b.digester.Run(ctx)
	if err != nil {
		slog.Error("on-demand digest failed", "error", err)
		b.resolveProcessing(chatID, processing, digestFailedText)
		return
	}

	if processing.MessageID != 0 {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, processing.MessageID)); err != nil {
			slog.Debug("deleting processing notice", "error", err)
		}
	}
	if err := b.sendText(chatID, dig.Text); err != nil {
		slog.Error("sending digest reply", "error", err)
	}
}

// resolveProcessing turns the processing notice into a failure note, or
// sends a fresh message when the notice never went out.
func (b *Bot) resolveProcessing(chatID int64, processing tgbotapi.Message, text string) {
	if processing.MessageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, processing.MessageID, text)
		if _, err := b.api.Request(edit); err == nil {
			return
		}
	}
	b.reply(chatID, text)
}

func (b *Bot) statusText() string {
	schedule := b.opts.Schedule
	if schedule == "" {
		schedule = "Not set"
	}
	timezone := b.opts.Timezone
	if timezone == "" {
		timezone = "Not set"
	}

	return fmt.Sprintf(`🤖 **Bot Status**

**Bot Information:**
• Name: %s
• Username: @%s
• ID: %d

**Configuration:**
• Channel: %s
• Schedule: %s
• Max Articles: %d
• Timezone: %s

**Last Update:** %s

**Status:** ✅ Active and monitoring agriculture news sources`,
		b.self.FirstName, b.self.UserName, b.self.ID,
		b.opts.ChannelID, schedule, b.opts.MaxArticles, timezone,
		time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
}

// Deliver sends the digest text to the configured channel, splitting it
// when it exceeds the Telegram message limit and retrying each part with
// backoff.
func (b *Bot) Deliver(ctx context.Context, text string) error {
	if b.opts.ChannelID == "" {
		return fmt.Errorf("no channel configured")
	}

	parts := splitMessage(text, maxMessageRunes)
	for i, part := range parts {
		msg := b.channelMessage(part)
		if err := b.sendWithRetry(ctx, msg); err != nil {
			return fmt.Errorf("delivering digest part %d/%d: %w", i+1, len(parts), err)
		}
	}

	slog.Info("digest delivered", "channel", b.opts.ChannelID, "parts", len(parts))
	return nil
}

func (b *Bot) channelMessage(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(b.opts.ChannelID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(b.opts.ChannelID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	return msg
}

func (b *Bot) sendWithRetry(ctx context.Context, msg tgbotapi.MessageConfig) error {
	cfg := retry.Config{MaxAttempts: b.opts.Retries, Delay: b.retryDelay, Backoff: true}
	return retry.WithRetry(ctx, cfg, func() error {
		_, err := b.api.Send(msg)
		return err
	})
}

// sendText replies into a chat, splitting oversized texts. Single attempt;
// command replies are not worth a retry queue.
func (b *Bot) sendText(chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageRunes) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := b.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.sendText(chatID, text); err != nil {
		slog.Warn("sending command reply", "error", err)
	}
}

// splitMessage cuts text into parts of at most limit runes, preferring
// blank-line boundaries so digest entries stay intact.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var (
		parts    []string
		cur      strings.Builder
		curRunes int
	)
	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curRunes = 0
		}
	}

	for _, block := range strings.Split(text, "\n\n") {
		n := utf8.RuneCountInString(block)
		if n > limit {
			flush()
			parts = append(parts, chunkRunes(block, limit)...)
			continue
		}
		sep := 0
		if curRunes > 0 {
			sep = 2
		}
		if curRunes+sep+n > limit {
			flush()
			sep = 0
		}
		if sep > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(block)
		curRunes += sep + n
	}
	flush()
	return parts
}

func chunkRunes(s string, limit int) []string {
	runes := []rune(s)
	var chunks []string
	for len(runes) > limit {
		chunks = append(chunks, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
