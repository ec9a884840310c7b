package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"hisho/internal/ai"
	"hisho/internal/channels"
	"hisho/internal/store"
	"hisho/internal/text"
	"hisho/pkg/protocol"
)

const systemPrompt = `You are a personal secretary assistant. You help your user keep track of
tasks, ideas and journal entries, and you answer questions conversationally.
Be concise and practical. Answer in the language the user writes in.`

const helpText = `I can help you with:

*Tasks*
- "add task buy milk tomorrow" / タスク追加
- "task list" / タスク一覧
- "task done 2" / タスク完了 2

*Ideas*
- "idea: a bot that waters plants" / アイデア

*Journal*
- "journal today was a good day" / 日記

*Digest*
- "digest" / まとめて - summary of the last 24 hours

Anything else is treated as normal conversation.`

// Dispatcher consumes inbound messages from a channel adapter, persists them,
// routes them by intent and produces replies. One message is handled at a
// time.
type Dispatcher struct {
	store        *store.Store
	provider     ai.Provider
	adapter      channels.ChannelAdapter
	keywords     Keywords
	location     *time.Location
	historyLimit int
	maxReplyLen  int

	// now is swappable for tests.
	now func() time.Time
}

// Options carries the tunables the dispatcher needs from config.
type Options struct {
	Keywords     Keywords
	Location     *time.Location
	HistoryLimit int
	MaxReplyLen  int
}

// NewDispatcher wires a dispatcher to its store, provider and adapter. The
// store handle is owned by the caller; the dispatcher never opens or closes
// it.
func NewDispatcher(s *store.Store, p ai.Provider, a channels.ChannelAdapter, opts Options) *Dispatcher {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Dispatcher{
		store:        s,
		provider:     p,
		adapter:      a,
		keywords:     opts.Keywords,
		location:     loc,
		historyLimit: historyLimit,
		maxReplyLen:  opts.MaxReplyLen,
		now:          time.Now,
	}
}

// Run processes inbound messages until the context is cancelled or the
// adapter closes its channel. A failure while handling one message is logged
// and never stops the loop.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Printf("[Dispatcher] Started, channel=%s", d.adapter.ID())

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Dispatcher] Stopping: %v", ctx.Err())
			return
		case msg, ok := <-d.adapter.ReceiveMessages():
			if !ok {
				log.Printf("[Dispatcher] Inbound channel closed")
				return
			}
			d.HandleMessage(ctx, msg.UserID, msg.Text)
		}
	}
}

// HandleMessage persists one inbound message and produces a reply for it.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}

	// Persistence is best-effort: a dead disk should not mute the bot.
	if _, err := d.store.AppendMessage(userID, "user", body); err != nil {
		log.Printf("[Dispatcher] Failed to persist message from %s: %v", userID, err)
	}

	intent := d.detectIntent(body)
	log.Printf("[Dispatcher] user=%s intent=%s", userID, intent)

	if ti, ok := d.adapter.(channels.TypingIndicator); ok {
		if err := ti.SendTypingIndicator(userID); err != nil {
			log.Printf("[Dispatcher] Typing indicator failed: %v", err)
		}
	}

	switch intent {
	case IntentTaskAdd:
		d.handleTaskAdd(ctx, userID, body)
	case IntentTaskList:
		d.handleTaskList(ctx, userID)
	case IntentTaskDone:
		d.handleTaskDone(ctx, userID, body)
	case IntentIdea:
		d.handleIdea(ctx, userID, body)
	case IntentJournal:
		d.handleJournal(ctx, userID, body)
	case IntentDigest:
		d.handleDigest(ctx, userID)
	case IntentHelp:
		d.reply(ctx, userID, helpText)
	default:
		d.handleChat(ctx, userID, body)
	}
}

func (d *Dispatcher) detectIntent(body string) Intent {
	lower := strings.ToLower(body)

	has := func(words []string) bool {
		for _, w := range words {
			if strings.Contains(lower, strings.ToLower(w)) {
				return true
			}
		}
		return false
	}

	switch {
	case has(d.keywords.Help):
		return IntentHelp
	case has(d.keywords.Digest):
		return IntentDigest
	case has(d.keywords.TaskList):
		return IntentTaskList
	case has(d.keywords.TaskDone):
		return IntentTaskDone
	case has(d.keywords.TaskAdd):
		return IntentTaskAdd
	case has(d.keywords.Idea):
		return IntentIdea
	case has(d.keywords.Journal):
		return IntentJournal
	default:
		return IntentChat
	}
}

func (d *Dispatcher) handleTaskAdd(ctx context.Context, userID, body string) {
	extracted, err := ai.ExtractTasks(ctx, d.provider, body)
	if err != nil {
		if errors.Is(err, ai.ErrMalformedResponse) {
			// The model produced unusable output, not a transport failure.
			// Treat it as "no tasks found" rather than an error.
			log.Printf("[Dispatcher] Task extraction returned malformed output: %v", err)
			d.reply(ctx, userID, "I couldn't find any tasks in that. Try something like \"add task buy milk tomorrow\".")
			return
		}
		log.Printf("[Dispatcher] Task extraction failed: %v", err)
		d.replyError(ctx, userID, true)
		return
	}
	if len(extracted) == 0 {
		d.reply(ctx, userID, "I couldn't find any tasks in that. Try something like \"add task buy milk tomorrow\".")
		return
	}

	// A date mentioned in the message becomes the due date. The first one
	// wins when several are present.
	var due string
	if dates := text.ExtractDatesAt(body, d.now().In(d.location)); len(dates) > 0 {
		due = dates[0]
	}

	var lines []string
	for _, title := range extracted {
		task, err := d.store.CreateTask(userID, title, due)
		if err != nil {
			log.Printf("[Dispatcher] Failed to save task %q: %v", title, err)
			d.replyError(ctx, userID, true)
			return
		}
		lines = append(lines, "- "+task.Title)
	}

	msg := fmt.Sprintf("Added %d task(s):\n%s", len(lines), strings.Join(lines, "\n"))
	if due != "" {
		msg += "\nDue: " + due
	}
	d.reply(ctx, userID, msg)
}

func (d *Dispatcher) handleTaskList(ctx context.Context, userID string) {
	tasks, err := d.store.ListTasks(userID, false)
	if err != nil {
		log.Printf("[Dispatcher] Failed to list tasks: %v", err)
		d.replyError(ctx, userID, true)
		return
	}
	if len(tasks) == 0 {
		d.reply(ctx, userID, "No open tasks. Nice.")
		return
	}

	var b strings.Builder
	b.WriteString("Open tasks:\n")
	for i, t := range tasks {
		fmt.Fprintf(&b, "%d. %s", i+1, t.Title)
		if t.DueDate != "" {
			fmt.Fprintf(&b, " (due %s)", t.DueDate)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nSay \"task done N\" to complete one.")
	d.reply(ctx, userID, b.String())
}

func (d *Dispatcher) handleTaskDone(ctx context.Context, userID, body string) {
	n, ok := firstNumber(body)
	if !ok {
		d.reply(ctx, userID, "Which task? Say \"task done 2\" with the number from the task list.")
		return
	}

	tasks, err := d.store.ListTasks(userID, false)
	if err != nil {
		log.Printf("[Dispatcher] Failed to list tasks: %v", err)
		d.replyError(ctx, userID, true)
		return
	}
	if n < 1 || n > len(tasks) {
		d.reply(ctx, userID, fmt.Sprintf("There is no task %d. You have %d open task(s).", n, len(tasks)))
		return
	}

	t := tasks[n-1]
	if err := d.store.CompleteTask(userID, t.ID); err != nil {
		log.Printf("[Dispatcher] Failed to complete task %s: %v", t.ID, err)
		d.replyError(ctx, userID, true)
		return
	}
	d.reply(ctx, userID, fmt.Sprintf("Done: %s", t.Title))
}

func (d *Dispatcher) handleIdea(ctx context.Context, userID, body string) {
	if _, err := d.store.CreateIdea(userID, strings.TrimSpace(body)); err != nil {
		log.Printf("[Dispatcher] Failed to save idea: %v", err)
		d.replyError(ctx, userID, true)
		return
	}
	d.reply(ctx, userID, "Idea saved.")
}

func (d *Dispatcher) handleJournal(ctx context.Context, userID, body string) {
	mood := text.ClassifyMood(body)
	now := d.now().In(d.location)

	// A date in the message backdates the entry; otherwise it is for today.
	entryDate := now.Format("2006-01-02")
	if dates := text.ExtractDatesAt(body, now); len(dates) > 0 {
		entryDate = dates[0]
	}

	if _, err := d.store.CreateJournalEntry(userID, body, string(mood), entryDate); err != nil {
		log.Printf("[Dispatcher] Failed to save journal entry: %v", err)
		d.replyError(ctx, userID, true)
		return
	}

	msg := fmt.Sprintf("Journal entry saved for %s (mood: %s).", entryDate, mood)

	// A summary is a nicety; the entry is already stored either way.
	if summary, err := ai.SummarizeJournal(ctx, d.provider, body); err != nil {
		log.Printf("[Dispatcher] Journal summary failed: %v", err)
		d.replyError(ctx, userID, false)
	} else if summary != "" {
		msg += "\n" + summary
	}

	d.reply(ctx, userID, msg)
}

func (d *Dispatcher) handleDigest(ctx context.Context, userID string) {
	if err := d.RunDigest(ctx, userID, true); err != nil {
		log.Printf("[Dispatcher] On-demand digest failed: %v", err)
		d.replyError(ctx, userID, true)
	}
}

func (d *Dispatcher) handleChat(ctx context.Context, userID, body string) {
	history, err := d.store.RecentMessages(userID, d.historyLimit)
	if err != nil {
		log.Printf("[Dispatcher] Failed to load history: %v", err)
		history = nil
	}

	msgs := []ai.ChatMessage{{Role: "system", Content: systemPrompt}}
	for _, m := range history {
		msgs = append(msgs, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	// The current message is normally the tail of history. If persisting it
	// failed it will be missing, so patch it in.
	if len(history) == 0 || history[len(history)-1].Content != body {
		msgs = append(msgs, ai.ChatMessage{Role: "user", Content: body})
	}

	resp, err := d.provider.GenerateResponse(ctx, &ai.GenerateRequest{Messages: msgs})
	if err != nil {
		log.Printf("[Dispatcher] Provider error: %v", err)
		d.replyError(ctx, userID, true)
		return
	}

	d.reply(ctx, userID, resp.Content)
}

// reply persists the assistant message and sends it, split into chunks that
// fit the channel.
func (d *Dispatcher) reply(ctx context.Context, userID, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}

	if _, err := d.store.AppendMessage(userID, "assistant", body); err != nil {
		log.Printf("[Dispatcher] Failed to persist reply to %s: %v", userID, err)
	}

	limit := d.adapter.MaxMessageLen()
	if d.maxReplyLen > 0 && d.maxReplyLen < limit {
		limit = d.maxReplyLen
	}

	for _, chunk := range text.Split(body, limit) {
		out := &protocol.OutgoingMessage{
			ChannelID: d.adapter.ID(),
			UserID:    userID,
			Text:      chunk,
		}
		if err := d.adapter.SendMessage(out); err != nil {
			log.Printf("[Dispatcher] Failed to send to %s: %v", userID, err)
			return
		}
	}
}

// replyError tells the user something went wrong, without details. Callers
// that should stay silent on failure pass reportToUser=false.
func (d *Dispatcher) replyError(ctx context.Context, userID string, reportToUser bool) {
	if !reportToUser {
		return
	}
	d.reply(ctx, userID, "Sorry, something went wrong. Please try again.")
}

func firstNumber(s string) (int, bool) {
	for _, field := range strings.Fields(s) {
		trimmed := strings.TrimFunc(field, func(r rune) bool {
			return r < '0' || r > '9'
		})
		if trimmed == "" {
			continue
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			return n, true
		}
	}
	return 0, false
}
