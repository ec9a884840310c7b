// Package digest aggregates a user's recent activity into a daily summary.
// The deterministic rendering doubles as the fallback text when the LLM
// provider is unavailable.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hisho/internal/ai"
	"hisho/internal/store"
)

// Activity is a structured snapshot of one user's activity since a cutoff.
type Activity struct {
	UserID         string               `json:"user_id"`
	Since          time.Time            `json:"since"`
	MessageCount   int                  `json:"message_count"`
	TasksCreated   []store.Task         `json:"tasks_created,omitempty"`
	TasksCompleted []store.Task         `json:"tasks_completed,omitempty"`
	TasksDueToday  []store.Task         `json:"tasks_due_today,omitempty"`
	Ideas          []store.Idea         `json:"ideas,omitempty"`
	JournalEntries []store.JournalEntry `json:"journal_entries,omitempty"`
}

// Collect gathers a user's activity since the cutoff. today is the current
// date as YYYY-MM-DD in the bot's timezone, used for the due-task lookup.
func Collect(s *store.Store, userID string, since time.Time, today string) (*Activity, error) {
	a := &Activity{UserID: userID, Since: since}

	var err error
	if a.MessageCount, err = s.CountMessagesSince(userID, since); err != nil {
		return nil, fmt.Errorf("failed to collect message count: %w", err)
	}
	if a.TasksCreated, err = s.TasksCreatedSince(userID, since); err != nil {
		return nil, fmt.Errorf("failed to collect created tasks: %w", err)
	}
	if a.TasksCompleted, err = s.TasksCompletedSince(userID, since); err != nil {
		return nil, fmt.Errorf("failed to collect completed tasks: %w", err)
	}
	if a.TasksDueToday, err = s.TasksDueOn(userID, today); err != nil {
		return nil, fmt.Errorf("failed to collect due tasks: %w", err)
	}
	if a.Ideas, err = s.IdeasCreatedSince(userID, since); err != nil {
		return nil, fmt.Errorf("failed to collect ideas: %w", err)
	}
	if a.JournalEntries, err = s.JournalEntriesSince(userID, since); err != nil {
		return nil, fmt.Errorf("failed to collect journal entries: %w", err)
	}

	return a, nil
}

// HasActivity reports whether there is anything worth digesting.
func (a *Activity) HasActivity() bool {
	return a.MessageCount > 0 ||
		len(a.TasksCreated) > 0 ||
		len(a.TasksCompleted) > 0 ||
		len(a.TasksDueToday) > 0 ||
		len(a.Ideas) > 0 ||
		len(a.JournalEntries) > 0
}

// Render builds the deterministic plain-text digest. It is both the LLM
// prompt context and the user-facing fallback when the provider fails.
func (a *Activity) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Activity since %s:\n", a.Since.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- %d messages exchanged\n", a.MessageCount)

	if len(a.TasksCreated) > 0 {
		b.WriteString("\nNew tasks:\n")
		for _, t := range a.TasksCreated {
			if t.DueDate != "" {
				fmt.Fprintf(&b, "- %s (due %s)\n", t.Title, t.DueDate)
			} else {
				fmt.Fprintf(&b, "- %s\n", t.Title)
			}
		}
	}

	if len(a.TasksCompleted) > 0 {
		b.WriteString("\nCompleted tasks:\n")
		for _, t := range a.TasksCompleted {
			fmt.Fprintf(&b, "- %s\n", t.Title)
		}
	}

	if len(a.TasksDueToday) > 0 {
		b.WriteString("\nDue today:\n")
		for _, t := range a.TasksDueToday {
			fmt.Fprintf(&b, "- %s\n", t.Title)
		}
	}

	if len(a.Ideas) > 0 {
		b.WriteString("\nIdeas captured:\n")
		for _, i := range a.Ideas {
			fmt.Fprintf(&b, "- %s\n", i.Content)
		}
	}

	if len(a.JournalEntries) > 0 {
		b.WriteString("\nJournal:\n")
		for _, e := range a.JournalEntries {
			fmt.Fprintf(&b, "- [%s] %s\n", e.Mood, firstLine(e.Content))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

const digestPrompt = `You are a personal secretary writing a short end-of-day digest.
Given the activity report below, write a friendly 3-6 sentence summary for the user.
Mention open tasks due today if any. Reply in the language the user's entries are written in.`

// Summarize asks the provider for a natural-language digest of the activity.
// Callers fall back to Render() when this fails.
func Summarize(ctx context.Context, p ai.Provider, a *Activity) (string, error) {
	resp, err := p.GenerateResponse(ctx, &ai.GenerateRequest{
		Messages: []ai.ChatMessage{
			{Role: "system", Content: digestPrompt},
			{Role: "user", Content: a.Render()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("digest summary failed: %w", err)
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return "", fmt.Errorf("digest summary failed: provider returned empty content")
	}
	return summary, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
