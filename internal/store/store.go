// Package store persists conversation history, tasks, ideas, and journal
// entries in a single sqlite file. All rows are keyed by the opaque
// per-platform user ID; users' data is independent.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hisho/internal/database"
)

// Store manages all persistent bot state. Construct with NewStore and inject
// into consumers; Close on shutdown.
type Store struct {
	db *sql.DB
}

// Message is one persisted conversation message.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a to-do item extracted from or dictated in chat.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	DueDate     string     `json:"due_date,omitempty"` // YYYY-MM-DD, empty if none
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Idea is a captured project idea.
type Idea struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry is one journal record with its classified mood.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood"`
	EntryDate string    `json:"entry_date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

// NewStore opens (or creates) the sqlite database at dbPath and runs
// migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.ConfigureDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for shared use
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- messages ---

// AppendMessage records one conversation message for a user.
func (s *Store) AppendMessage(userID, role, content string) (*Message, error) {
	msg := &Message{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO messages (id, user_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.UserID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	return msg, nil
}

// RecentMessages returns a user's last limit messages in chronological order.
func (s *Store) RecentMessages(userID string, limit int) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, role, content, created_at
		FROM messages
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	// The query returns newest-first; callers want chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// CountMessagesSince returns how many messages a user exchanged since the
// given time.
func (s *Store) CountMessagesSince(userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM messages WHERE user_id = ? AND created_at >= ?
	`, userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// ActiveUserIDs returns the IDs of users with at least one message since the
// given time. Used by the digest job to decide who gets a digest.
func (s *Store) ActiveUserIDs(since time.Time) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT user_id FROM messages WHERE created_at >= ?
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// --- tasks ---

// CreateTask records a new open task. dueDate may be empty.
func (s *Store) CreateTask(userID, title, dueDate string) (*Task, error) {
	task := &Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		DueDate:   dueDate,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, user_id, title, due_date, done, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, task.ID, task.UserID, task.Title, task.DueDate, task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// ListTasks returns a user's tasks oldest-first. With includeDone false only
// open tasks are returned.
func (s *Store) ListTasks(userID string, includeDone bool) ([]Task, error) {
	query := `
		SELECT id, user_id, title, due_date, done, created_at, completed_at
		FROM tasks
		WHERE user_id = ?
	`
	if !includeDone {
		query += " AND done = 0"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// CompleteTask marks a task as done.
func (s *Store) CompleteTask(userID, taskID string) error {
	result, err := s.db.Exec(`
		UPDATE tasks SET done = 1, completed_at = ?
		WHERE id = ? AND user_id = ? AND done = 0
	`, time.Now(), taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check completed task: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}
	return nil
}

// TasksDueOn returns a user's open tasks due on the given YYYY-MM-DD date.
func (s *Store) TasksDueOn(userID, date string) ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, due_date, done, created_at, completed_at
		FROM tasks
		WHERE user_id = ? AND due_date = ? AND done = 0
		ORDER BY created_at ASC
	`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// TasksCreatedSince returns tasks a user created since the given time.
func (s *Store) TasksCreatedSince(userID string, since time.Time) ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, due_date, done, created_at, completed_at
		FROM tasks
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query created tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// TasksCompletedSince returns tasks a user completed since the given time.
func (s *Store) TasksCompletedSince(userID string, since time.Time) ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, due_date, done, created_at, completed_at
		FROM tasks
		WHERE user_id = ? AND done = 1 AND completed_at >= ?
		ORDER BY completed_at ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		var t Task
		var completedAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.DueDate, &t.Done, &t.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if completedAt.Valid {
			t.CompletedAt = &completedAt.Time
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// --- ideas ---

// CreateIdea records a new project idea.
func (s *Store) CreateIdea(userID, content string) (*Idea, error) {
	idea := &Idea{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO ideas (id, user_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, idea.ID, idea.UserID, idea.Content, idea.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create idea: %w", err)
	}

	return idea, nil
}

// ListIdeas returns a user's most recent ideas, newest first.
func (s *Store) ListIdeas(userID string, limit int) ([]Idea, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, content, created_at
		FROM ideas
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		var i Idea
		if err := rows.Scan(&i.ID, &i.UserID, &i.Content, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}

// IdeasCreatedSince returns ideas a user captured since the given time.
func (s *Store) IdeasCreatedSince(userID string, since time.Time) ([]Idea, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, content, created_at
		FROM ideas
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		var i Idea
		if err := rows.Scan(&i.ID, &i.UserID, &i.Content, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}

// --- journal entries ---

// CreateJournalEntry records a journal entry with its classified mood.
func (s *Store) CreateJournalEntry(userID, content, mood, entryDate string) (*JournalEntry, error) {
	entry := &JournalEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		Mood:      mood,
		EntryDate: entryDate,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO journal_entries (id, user_id, content, mood, entry_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Content, entry.Mood, entry.EntryDate, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	return entry, nil
}

// ListJournalEntries returns a user's most recent journal entries, newest
// first.
func (s *Store) ListJournalEntries(userID string, limit int) ([]JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, content, mood, entry_date, created_at
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	return scanJournalEntries(rows)
}

// JournalEntriesSince returns journal entries a user wrote since the given
// time.
func (s *Store) JournalEntriesSince(userID string, since time.Time) ([]JournalEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, content, mood, entry_date, created_at
		FROM journal_entries
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent journal entries: %w", err)
	}
	defer rows.Close()

	return scanJournalEntries(rows)
}

func scanJournalEntries(rows *sql.Rows) ([]JournalEntry, error) {
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &e.Mood, &e.EntryDate, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return entries, nil
}
