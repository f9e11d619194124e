package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	failures int // fail this many Sends before succeeding
	nextID   int
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Sent() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tgbotapi.MessageConfig, len(f.sent))
	copy(out, f.sent)
	return out
}

type stubDigester struct {
	dig *digest.Digest
	err error
}

func (d *stubDigester) Run(context.Context) (*digest.Digest, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.dig, nil
}

func botSelf() tgbotapi.User {
	return tgbotapi.User{ID: 7, FirstName: "AgroDigest", UserName: "agro_digest_bot"}
}

func testOptions() Options {
	return Options{
		ChannelID:   "@agriculture_digest",
		Schedule:    "08:00",
		Timezone:    "UTC",
		MaxArticles: 10,
	}
}

func newTestBot(f *fakeAPI, d Digester) *Bot {
	b := newBot(f, botSelf(), d, testOptions())
	b.retryDelay = time.Millisecond
	return b
}

func commandUpdate(text string, chatID int64) tgbotapi.Update {
	cmd := text
	if i := strings.IndexByte(cmd, ' '); i != -1 {
		cmd = cmd[:i]
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Chat: &tgbotapi.Chat{ID: chatID},
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(cmd)},
			},
		},
	}
}

func TestStartCommandSendsWelcome(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})

	b.handleUpdate(context.Background(), commandUpdate("/start", 42))

	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Welcome to Agriculture Digest Bot")
	assert.Contains(t, sent[0].Text, "/digest - Generate and send current digest")
	assert.Equal(t, tgbotapi.ModeMarkdown, sent[0].ParseMode)
}

func TestHelpCommandSendsHelp(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})

	b.handleUpdate(context.Background(), commandUpdate("/help", 42))

	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "Agriculture Digest Bot Help")
	assert.Contains(t, sent[0].Text, "Sends digest to Telegram channel")
}

func TestStatusCommandReportsConfiguration(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})

	b.handleUpdate(context.Background(), commandUpdate("/status", 42))

	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "Username: @agro_digest_bot")
	assert.Contains(t, sent[0].Text, "Channel: @agriculture_digest")
	assert.Contains(t, sent[0].Text, "Schedule: 08:00")
	assert.Contains(t, sent[0].Text, "Max Articles: 10")
	assert.Contains(t, sent[0].Text, "Timezone: UTC")
}

func TestStatusCommandFallsBackWhenUnconfigured(t *testing.T) {
	f := newFakeAPI()
	b := newBot(f, botSelf(), &stubDigester{}, Options{})

	b.handleUpdate(context.Background(), commandUpdate("/status", 42))

	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "Schedule: Not set")
	assert.Contains(t, sent[0].Text, "Timezone: Not set")
}

func TestNonCommandsAreIgnored(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})
	ctx := context.Background()

	b.handleUpdate(ctx, tgbotapi.Update{})
	b.handleUpdate(ctx, tgbotapi.Update{
		Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 42}},
	})
	b.handleUpdate(ctx, commandUpdate("/unknown", 42))

	assert.Empty(t, f.Sent())
}

func TestDigestCommandRepliesWithDigest(t *testing.T) {
	f := newFakeAPI()
	d := &stubDigester{dig: &digest.Digest{Text: "🌾 **Agriculture Market Digest**\n\nbody"}}
	b := newTestBot(f, d)

	b.handleDigest(context.Background(), 42)

	sent := f.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, processingText, sent[0].Text)
	assert.Contains(t, sent[1].Text, "Agriculture Market Digest")
	assert.Equal(t, tgbotapi.ModeMarkdown, sent[1].ParseMode)
	assert.True(t, sent[1].DisableWebPagePreview)

	// The processing notice is deleted once the digest goes out.
	require.Len(t, f.requests, 1)
	del, ok := f.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, 1, del.MessageID)
}

func TestDigestCommandFailureEditsNotice(t *testing.T) {
	f := newFakeAPI()
	d := &stubDigester{err: errors.New("all sources down")}
	b := newTestBot(f, d)

	b.handleDigest(context.Background(), 42)

	sent := f.Sent()
	require.Len(t, sent, 1, "only the processing notice should be sent")

	require.Len(t, f.requests, 1)
	edit, ok := f.requests[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, digestFailedText, edit.Text)
}

func TestDeliverSendsToChannel(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})

	err := b.Deliver(context.Background(), "🌾 digest body")
	require.NoError(t, err)

	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "@agriculture_digest", sent[0].ChannelUsername)
	assert.Equal(t, tgbotapi.ModeMarkdown, sent[0].ParseMode)
	assert.True(t, sent[0].DisableWebPagePreview)
}

func TestDeliverNumericChannelID(t *testing.T) {
	f := newFakeAPI()
	b := newBot(f, botSelf(), &stubDigester{}, Options{ChannelID: "-1001234567890"})
	b.retryDelay = time.Millisecond

	err := b.Deliver(context.Background(), "digest body")
	require.NoError(t, err)

	sent := f.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(-1001234567890), sent[0].ChatID)
	assert.Empty(t, sent[0].ChannelUsername)
}

func TestDeliverRetriesTransientFailures(t *testing.T) {
	f := newFakeAPI()
	f.failures = 2
	b := newTestBot(f, &stubDigester{})

	err := b.Deliver(context.Background(), "digest body")
	require.NoError(t, err)
	assert.Len(t, f.Sent(), 1)
}

func TestDeliverGivesUpAfterRetries(t *testing.T) {
	f := newFakeAPI()
	f.failures = 10
	b := newTestBot(f, &stubDigester{})

	err := b.Deliver(context.Background(), "digest body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivering digest part 1/1")
}

func TestDeliverRequiresChannel(t *testing.T) {
	f := newFakeAPI()
	b := newBot(f, botSelf(), &stubDigester{}, Options{})

	err := b.Deliver(context.Background(), "digest body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channel configured")
}

func TestDeliverSplitsOversizedDigest(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})

	entry := strings.TrimSpace(strings.Repeat("зерновой рынок ", 100))
	text := strings.Join([]string{entry, entry, entry, entry}, "\n\n")
	require.Greater(t, utf8.RuneCountInString(text), maxMessageRunes)

	err := b.Deliver(context.Background(), text)
	require.NoError(t, err)

	sent := f.Sent()
	require.Greater(t, len(sent), 1)
	for _, msg := range sent {
		assert.LessOrEqual(t, utf8.RuneCountInString(msg.Text), maxMessageRunes)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newFakeAPI()
	b := newTestBot(f, &stubDigester{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	f.updates <- commandUpdate("/start", 42)
	assert.Eventually(t, func() bool { return len(f.Sent()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	f.mu.Lock()
	stopped := f.stopped
	f.mu.Unlock()
	assert.True(t, stopped)
}

func TestSplitMessageKeepsShortTextWhole(t *testing.T) {
	parts := splitMessage("short digest", maxMessageRunes)
	require.Len(t, parts, 1)
	assert.Equal(t, "short digest", parts[0])
}

func TestSplitMessagePrefersBlockBoundaries(t *testing.T) {
	text := "alpha block\n\nbeta block\n\ngamma block"

	parts := splitMessage(text, 25)

	require.Len(t, parts, 2)
	assert.Equal(t, "alpha block\n\nbeta block", parts[0])
	assert.Equal(t, "gamma block", parts[1])
	assert.Equal(t, text, strings.Join(parts, "\n\n"))
}

func TestSplitMessageHardCutsOversizedBlock(t *testing.T) {
	block := strings.Repeat("ж", 55)

	parts := splitMessage(block, 20)

	require.Len(t, parts, 3)
	for i, part := range parts[:2] {
		assert.Equal(t, 20, utf8.RuneCountInString(part), "part %d", i)
	}
	assert.Equal(t, 15, utf8.RuneCountInString(parts[2]))
	assert.Equal(t, block, strings.Join(parts, ""))
}
