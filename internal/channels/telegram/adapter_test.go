package telegram

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"hisho/internal/channels"
	"hisho/pkg/protocol"
)

// fakeBot implements botAPI for tests
type fakeBot struct {
	sent      []*bot.SendMessageParams
	failUntil int // fail the first N SendMessage calls with a parse error
	calls     int
}

func (f *fakeBot) Start(ctx context.Context) {}

func (f *fakeBot) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, fmt.Errorf("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: f.calls}, nil
}

func (f *fakeBot) GetMe(ctx context.Context) (*models.User, error) {
	return &models.User{ID: 1, Username: "hisho_bot"}, nil
}

func (f *fakeBot) SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error) {
	return true, nil
}

func newTestAdapter(fake *fakeBot) *Adapter {
	return &Adapter{
		id:       "telegram",
		bot:      fake,
		config:   Config{BotToken: "test-token"},
		status:   channels.StatusOnline,
		incoming: make(chan *protocol.IncomingMessage, 10),
		ctx:      context.Background(),
	}
}

func TestSendMessage(t *testing.T) {
	fake := &fakeBot{}
	a := newTestAdapter(fake)

	err := a.SendMessage(&protocol.OutgoingMessage{UserID: "12345", Text: "hello **world**"})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(fake.sent))
	}
	if fake.sent[0].ChatID != int64(12345) {
		t.Errorf("ChatID = %v, want 12345", fake.sent[0].ChatID)
	}
	// Double-asterisk bold converted to Telegram's single asterisk.
	if fake.sent[0].Text != "hello *world*" {
		t.Errorf("Text = %q, want converted markdown", fake.sent[0].Text)
	}
}

func TestSendMessagePlainTextFallback(t *testing.T) {
	fake := &fakeBot{failUntil: 1}
	a := newTestAdapter(fake)

	err := a.SendMessage(&protocol.OutgoingMessage{UserID: "12345", Text: "broken *markdown"})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(fake.sent) != 1 {
		t.Fatalf("expected fallback send, got %d sends", len(fake.sent))
	}
	if fake.sent[0].ParseMode != "" {
		t.Errorf("fallback should drop the parse mode, got %q", fake.sent[0].ParseMode)
	}
}

func TestSendMessageInvalidChatID(t *testing.T) {
	a := newTestAdapter(&fakeBot{})

	if err := a.SendMessage(&protocol.OutgoingMessage{UserID: "not-a-number", Text: "x"}); err == nil {
		t.Error("expected error for non-numeric chat ID")
	}
}

func TestChatAllowed(t *testing.T) {
	a := newTestAdapter(&fakeBot{})
	if !a.chatAllowed(99) {
		t.Error("empty allow-list should allow any chat")
	}

	a.config.AllowedChatIDs = []int64{1, 2}
	if !a.chatAllowed(1) || a.chatAllowed(99) {
		t.Error("allow-list not enforced")
	}
}

func TestConvertToTelegramMarkdown(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"# Title\nbody", "*Title*\nbody"},
		{"**bold** text", "*bold* text"},
		{"[link](https://example.com)", "link (https://example.com)"},
		{"a\n\n\n\nb", "a\n\nb"},
	}
	for _, tc := range cases {
		if got := convertToTelegramMarkdown(tc.in); got != tc.want {
			t.Errorf("convertToTelegramMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaxMessageLen(t *testing.T) {
	a := newTestAdapter(&fakeBot{})
	if a.MaxMessageLen() != 4096 {
		t.Errorf("MaxMessageLen = %d, want 4096", a.MaxMessageLen())
	}
}
