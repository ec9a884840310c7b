// Package telegram implements the Telegram channel adapter on top of the
// go-telegram/bot SDK, using long polling.
package telegram

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"hisho/internal/channels"
	"hisho/pkg/protocol"
)

// MaxMessageLen is Telegram's per-message length limit. Replies longer than
// this are rejected by the API, which is what motivates reply chunking in
// the dispatcher.
const MaxMessageLen = 4096

// botAPI abstracts the Telegram bot methods used by the adapter, enabling
// testing with mocks.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	GetMe(ctx context.Context) (*models.User, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// Config contains Telegram-specific configuration
type Config struct {
	BotToken string
	// AllowedChatIDs restricts the bot to specific chats; empty allows all.
	AllowedChatIDs []int64
	Debug          bool
	// LogMessageContent enables logging of message text (privacy risk!)
	LogMessageContent bool
}

// Adapter implements the ChannelAdapter interface for Telegram
type Adapter struct {
	id        string
	bot       botAPI
	config    Config
	status    channels.StatusCode
	statusMsg string
	incoming  chan *protocol.IncomingMessage
	ctx       context.Context
	cancel    context.CancelFunc
	mutex     sync.RWMutex
	startTime time.Time
	msgCount  int64
}

// NewAdapter creates a new Telegram adapter
func NewAdapter(id string, config Config) (*Adapter, error) {
	if config.BotToken == "" {
		return nil, fmt.Errorf("bot_token is required for Telegram adapter")
	}

	return &Adapter{
		id:       id,
		config:   config,
		status:   channels.StatusInitializing,
		incoming: make(chan *protocol.IncomingMessage, 100),
	}, nil
}

// ID returns the adapter's unique identifier
func (a *Adapter) ID() string {
	return a.id
}

// Type returns the adapter type
func (a *Adapter) Type() string {
	return "telegram"
}

// MaxMessageLen returns Telegram's per-message length limit
func (a *Adapter) MaxMessageLen() int {
	return MaxMessageLen
}

// Start initializes and starts the Telegram bot in polling mode
func (a *Adapter) Start(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.ctx, a.cancel = context.WithCancel(ctx)
	a.status = channels.StatusInitializing
	a.statusMsg = "Starting Telegram bot"
	a.startTime = time.Now()

	opts := []bot.Option{
		bot.WithDefaultHandler(a.handleUpdate),
	}
	if a.config.Debug {
		opts = append(opts, bot.WithDebug())
	}

	telegramBot, err := bot.New(a.config.BotToken, opts...)
	if err != nil {
		a.status = channels.StatusError
		a.statusMsg = fmt.Sprintf("Failed to create bot: %v", err)
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	a.bot = telegramBot

	go func() {
		defer func() {
			a.mutex.Lock()
			a.status = channels.StatusOffline
			a.statusMsg = "Bot stopped"
			a.mutex.Unlock()
		}()

		a.mutex.Lock()
		a.status = channels.StatusOnline
		a.statusMsg = "Bot is running"
		a.mutex.Unlock()

		log.Printf("[Telegram] Starting polling mode...")
		a.bot.Start(a.ctx)
	}()

	return nil
}

// Stop gracefully shuts down the adapter
func (a *Adapter) Stop() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.cancel != nil {
		a.cancel()
	}

	a.status = channels.StatusOffline
	a.statusMsg = "Adapter stopped"

	close(a.incoming)

	log.Printf("[Telegram] Adapter stopped: %s", a.id)
	return nil
}

// Regex patterns for Telegram markdown conversion
var (
	// Headers: # Header -> *Header* (bold with single asterisk)
	headerRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	// Standard **bold** -> *bold* (Telegram uses single asterisk)
	doubleBoldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	// Links [text](url) -> text (url) - Telegram markdown doesn't support links
	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	// Collapse excessive newlines
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// convertToTelegramMarkdown converts standard markdown to Telegram's limited
// subset: *bold/italic* (single asterisk), `code`, ```code blocks```
func convertToTelegramMarkdown(text string) string {
	result := doubleBoldRe.ReplaceAllString(text, "*$1*")
	result = headerRe.ReplaceAllString(result, "*$1*")
	result = linkRe.ReplaceAllString(result, "$1 ($2)")
	result = multiNewlineRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// SendMessage sends an outgoing message through Telegram
func (a *Adapter) SendMessage(msg *protocol.OutgoingMessage) error {
	if a.bot == nil {
		return fmt.Errorf("bot not initialized")
	}

	chatID, err := strconv.ParseInt(msg.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %s", msg.UserID)
	}

	telegramText := convertToTelegramMarkdown(msg.Text)

	// Legacy Markdown parse mode is more lenient than MarkdownV2.
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      telegramText,
		ParseMode: models.ParseModeMarkdownV1,
	}

	if replyToStr, ok := msg.Metadata["reply_to_message_id"]; ok {
		if replyToInt, err := strconv.Atoi(replyToStr); err == nil {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID: replyToInt,
			}
		}
	}

	_, err = a.bot.SendMessage(a.ctx, params)
	if err != nil {
		// If markdown parsing fails, retry without formatting
		if strings.Contains(err.Error(), "can't parse entities") {
			log.Printf("[Telegram] Markdown parsing failed, retrying as plain text: %v", err)
			params.ParseMode = ""
			params.Text = msg.Text
			_, err = a.bot.SendMessage(a.ctx, params)
			if err != nil {
				return fmt.Errorf("failed to send message (plain text fallback): %w", err)
			}
		} else {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	log.Printf("[Telegram] Message sent to chat %d (%d chars)", chatID, len(msg.Text))

	a.mutex.Lock()
	a.msgCount++
	a.mutex.Unlock()

	return nil
}

// SendTypingIndicator sends a "typing" chat action to show the bot is working
func (a *Adapter) SendTypingIndicator(userID string) error {
	if a.bot == nil {
		return fmt.Errorf("bot not initialized")
	}

	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %s", userID)
	}

	_, err = a.bot.SendChatAction(a.ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: models.ChatActionTyping,
	})
	return err
}

// ReceiveMessages returns the channel for incoming messages
func (a *Adapter) ReceiveMessages() <-chan *protocol.IncomingMessage {
	return a.incoming
}

// Status returns the current adapter status
func (a *Adapter) Status() channels.ChannelStatus {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	details := map[string]interface{}{
		"uptime_seconds": time.Since(a.startTime).Seconds(),
		"message_count":  a.msgCount,
	}

	if a.bot != nil {
		if me, err := a.bot.GetMe(context.Background()); err == nil {
			details["bot_id"] = me.ID
			details["bot_username"] = me.Username
		}
	}

	return channels.ChannelStatus{
		Status:    a.status,
		Message:   a.statusMsg,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// IsHealthy returns whether the adapter is functioning properly
func (a *Adapter) IsHealthy() bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.status == channels.StatusOnline && a.bot != nil
}

// chatAllowed checks the configured allow-list
func (a *Adapter) chatAllowed(chatID int64) bool {
	if len(a.config.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range a.config.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// handleUpdate processes incoming Telegram updates
func (a *Adapter) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	if !a.chatAllowed(chatID) {
		log.Printf("[Telegram] Chat %d is not on the allow-list, message blocked", chatID)
		return
	}

	incomingMsg := &protocol.IncomingMessage{
		ID:        a.generateMessageID(),
		ChannelID: a.id,
		UserID:    strconv.FormatInt(chatID, 10),
		Text:      update.Message.Text,
		Timestamp: time.Now(),
		Metadata: map[string]string{
			"message_id":      strconv.Itoa(update.Message.ID),
			"chat_type":       string(update.Message.Chat.Type),
			"from_first_name": update.Message.From.FirstName,
			"from_username":   update.Message.From.Username,
		},
	}

	// Send to incoming channel (non-blocking)
	select {
	case a.incoming <- incomingMsg:
		a.mutex.Lock()
		a.msgCount++
		a.mutex.Unlock()

		if a.config.LogMessageContent {
			log.Printf("[Telegram] Received from chat %d: %s", chatID, update.Message.Text)
		} else {
			// Privacy-safe logging - no message content or user names
			log.Printf("[Telegram] Received message from chat %d (%d chars)",
				chatID, len(update.Message.Text))
		}
	default:
		log.Printf("[Telegram] Warning: incoming message channel is full, dropping message")
	}
}

// generateMessageID creates a unique message ID
func (a *Adapter) generateMessageID() string {
	return fmt.Sprintf("telegram_%s_%s", a.id, uuid.New().String()[:8])
}
