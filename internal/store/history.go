package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ChatEntry is one chatbot exchange.
type ChatEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Score     float64   `json:"score"`
	Matched   string    `json:"matched,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryRepository stores chatbot exchanges.
type ChatHistoryRepository struct {
	db *sql.DB
}

// ChatHistory returns the chat history repository for this store.
func (s *Store) ChatHistory() *ChatHistoryRepository {
	return &ChatHistoryRepository{db: s.db}
}

// Append records e, assigning ID and timestamp.
func (r *ChatHistoryRepository) Append(e *ChatEntry) error {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO chat_history (id, question, answer, score, matched, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Question, e.Answer, e.Score, e.Matched, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit exchanges in chronological order.
func (r *ChatHistoryRepository) Recent(limit int) ([]ChatEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, question, answer, score, matched, created_at FROM (
			SELECT rowid AS seq, * FROM chat_history ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatEntry
	for rows.Next() {
		var e ChatEntry
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.Score, &e.Matched, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear removes every exchange.
func (r *ChatHistoryRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM chat_history`)
	return err
}

// AssistantEntry is one handled voice command.
type AssistantEntry struct {
	ID        string    `json:"id"`
	Heard     string    `json:"heard"`
	Intent    string    `json:"intent"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// AssistantHistoryRepository stores handled commands.
type AssistantHistoryRepository struct {
	db *sql.DB
}

// AssistantHistory returns the assistant history repository for this store.
func (s *Store) AssistantHistory() *AssistantHistoryRepository {
	return &AssistantHistoryRepository{db: s.db}
}

// Append records e, assigning ID and timestamp.
func (r *AssistantHistoryRepository) Append(e *AssistantEntry) error {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO assistant_history (id, heard, intent, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Heard, e.Intent, e.Result, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit commands, newest first.
func (r *AssistantHistoryRepository) Recent(limit int) ([]AssistantEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, heard, intent, result, created_at FROM assistant_history
		 ORDER BY rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssistantEntry
	for rows.Next() {
		var e AssistantEntry
		if err := rows.Scan(&e.ID, &e.Heard, &e.Intent, &e.Result, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
