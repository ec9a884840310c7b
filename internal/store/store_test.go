package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("Database file was not created")
	}
	return s
}

func TestAppendAndRecentMessages(t *testing.T) {
	s := newTestStore(t)

	userID := "user123"
	for _, content := range []string{"first", "second", "third"} {
		if _, err := s.AppendMessage(userID, "user", content); err != nil {
			t.Fatalf("Failed to append message: %v", err)
		}
	}
	if _, err := s.AppendMessage("otherUser", "user", "not mine"); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	messages, err := s.RecentMessages(userID, 10)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}

	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	// Chronological order.
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Content != want {
			t.Errorf("message %d = %q, want %q", i, messages[i].Content, want)
		}
	}
}

func TestRecentMessagesHonorsLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.AppendMessage("u", "user", "msg"); err != nil {
			t.Fatalf("Failed to append message: %v", err)
		}
	}

	messages, err := s.RecentMessages("u", 2)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(messages))
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	userID := "user123"

	task, err := s.CreateTask(userID, "write report", "2025-04-23")
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if task.Done {
		t.Error("New task should not be done")
	}

	if _, err := s.CreateTask(userID, "buy milk", ""); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	open, err := s.ListTasks(userID, false)
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("Expected 2 open tasks, got %d", len(open))
	}

	if err := s.CompleteTask(userID, task.ID); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}

	open, err = s.ListTasks(userID, false)
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(open) != 1 {
		t.Errorf("Expected 1 open task after completion, got %d", len(open))
	}

	all, err := s.ListTasks(userID, true)
	if err != nil {
		t.Fatalf("Failed to list all tasks: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 tasks total, got %d", len(all))
	}

	// Completing an already-done or missing task is an error.
	if err := s.CompleteTask(userID, task.ID); err == nil {
		t.Error("Expected error completing an already-done task")
	}
	if err := s.CompleteTask(userID, "no-such-id"); err == nil {
		t.Error("Expected error completing a missing task")
	}
}

func TestTasksDueOn(t *testing.T) {
	s := newTestStore(t)
	userID := "user123"

	if _, err := s.CreateTask(userID, "due today", "2025-04-20"); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if _, err := s.CreateTask(userID, "due later", "2025-05-01"); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	due, err := s.TasksDueOn(userID, "2025-04-20")
	if err != nil {
		t.Fatalf("Failed to query due tasks: %v", err)
	}
	if len(due) != 1 || due[0].Title != "due today" {
		t.Errorf("TasksDueOn = %v, want the one task due today", due)
	}
}

func TestIdeas(t *testing.T) {
	s := newTestStore(t)
	userID := "user123"

	if _, err := s.CreateIdea(userID, "a chat bot that files taxes"); err != nil {
		t.Fatalf("Failed to create idea: %v", err)
	}
	if _, err := s.CreateIdea(userID, "self-watering plant pot"); err != nil {
		t.Fatalf("Failed to create idea: %v", err)
	}

	ideas, err := s.ListIdeas(userID, 10)
	if err != nil {
		t.Fatalf("Failed to list ideas: %v", err)
	}
	if len(ideas) != 2 {
		t.Errorf("Expected 2 ideas, got %d", len(ideas))
	}
}

func TestJournalEntries(t *testing.T) {
	s := newTestStore(t)
	userID := "user123"

	entry, err := s.CreateJournalEntry(userID, "良い一日だった", "positive", "2025-04-20")
	if err != nil {
		t.Fatalf("Failed to create journal entry: %v", err)
	}
	if entry.Mood != "positive" {
		t.Errorf("Mood = %q, want positive", entry.Mood)
	}

	entries, err := s.ListJournalEntries(userID, 10)
	if err != nil {
		t.Fatalf("Failed to list journal entries: %v", err)
	}
	if len(entries) != 1 || entries[0].EntryDate != "2025-04-20" {
		t.Errorf("ListJournalEntries = %v, want the one created entry", entries)
	}
}

func TestSinceQueries(t *testing.T) {
	s := newTestStore(t)
	userID := "user123"
	cutoff := time.Now().Add(-time.Hour)

	if _, err := s.AppendMessage(userID, "user", "hello"); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}
	task, err := s.CreateTask(userID, "recent task", "")
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if err := s.CompleteTask(userID, task.ID); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}
	if _, err := s.CreateIdea(userID, "recent idea"); err != nil {
		t.Fatalf("Failed to create idea: %v", err)
	}
	if _, err := s.CreateJournalEntry(userID, "entry", "neutral", "2025-04-20"); err != nil {
		t.Fatalf("Failed to create journal entry: %v", err)
	}

	count, err := s.CountMessagesSince(userID, cutoff)
	if err != nil || count != 1 {
		t.Errorf("CountMessagesSince = %d, %v; want 1, nil", count, err)
	}

	created, err := s.TasksCreatedSince(userID, cutoff)
	if err != nil || len(created) != 1 {
		t.Errorf("TasksCreatedSince = %v, %v; want 1 task", created, err)
	}

	completed, err := s.TasksCompletedSince(userID, cutoff)
	if err != nil || len(completed) != 1 {
		t.Errorf("TasksCompletedSince = %v, %v; want 1 task", completed, err)
	}

	ideas, err := s.IdeasCreatedSince(userID, cutoff)
	if err != nil || len(ideas) != 1 {
		t.Errorf("IdeasCreatedSince = %v, %v; want 1 idea", ideas, err)
	}

	entries, err := s.JournalEntriesSince(userID, cutoff)
	if err != nil || len(entries) != 1 {
		t.Errorf("JournalEntriesSince = %v, %v; want 1 entry", entries, err)
	}

	users, err := s.ActiveUserIDs(cutoff)
	if err != nil || len(users) != 1 || users[0] != userID {
		t.Errorf("ActiveUserIDs = %v, %v; want [%s]", users, err, userID)
	}
}
