package quizdrill

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryDB stores every answer submission in a sqlite database
type HistoryDB struct {
	db *sql.DB
}

// OpenHistory opens the history database and creates its tables
func OpenHistory(dbPath string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h := &HistoryDB{db: db}
	if err := h.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id INTEGER NOT NULL,
			given TEXT NOT NULL,
			expected TEXT NOT NULL,
			correct INTEGER NOT NULL,
			mode TEXT NOT NULL,
			answered_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_question ON attempts(question_id)`,
	}

	for _, query := range queries {
		if _, err := h.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// RecordAttempt stores one submission
func (h *HistoryDB) RecordAttempt(ctx context.Context, a Attempt) error {
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now()
	}
	_, err := h.db.ExecContext(ctx,
		"INSERT INTO attempts (question_id, given, expected, correct, mode, answered_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.QuestionID, a.Given, a.Expected, a.Correct, string(a.Mode), a.AnsweredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns the latest submissions, newest first
func (h *HistoryDB) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	query := "SELECT id, question_id, given, expected, correct, mode, answered_at FROM attempts ORDER BY answered_at DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return h.queryAttempts(ctx, query)
}

// QuestionAttempts returns all submissions for one question, oldest first
func (h *HistoryDB) QuestionAttempts(ctx context.Context, questionID int) ([]Attempt, error) {
	return h.queryAttempts(ctx,
		"SELECT id, question_id, given, expected, correct, mode, answered_at FROM attempts WHERE question_id = ? ORDER BY answered_at, id",
		questionID)
}

func (h *HistoryDB) queryAttempts(ctx context.Context, query string, args ...interface{}) ([]Attempt, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a    Attempt
			mode string
		)
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Given, &a.Expected, &a.Correct, &mode, &a.AnsweredAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Mode = Mode(mode)
		attempts = append(attempts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}
	return attempts, nil
}

// DailyAccuracy groups submissions by UTC day, newest day first
func (h *HistoryDB) DailyAccuracy(ctx context.Context, days int) ([]DailyAccuracy, error) {
	query := `SELECT substr(answered_at, 1, 10) AS day, COUNT(*), COALESCE(SUM(correct), 0)
		FROM attempts GROUP BY day ORDER BY day DESC`
	if days > 0 {
		query += fmt.Sprintf(" LIMIT %d", days)
	}

	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily accuracy: %w", err)
	}
	defer rows.Close()

	var result []DailyAccuracy
	for rows.Next() {
		var d DailyAccuracy
		if err := rows.Scan(&d.Day, &d.Answered, &d.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan daily accuracy: %w", err)
		}
		result = append(result, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily accuracy: %w", err)
	}
	return result, nil
}

// Clear removes all recorded attempts
func (h *HistoryDB) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, "DELETE FROM attempts"); err != nil {
		return fmt.Errorf("failed to clear attempts: %w", err)
	}
	return nil
}
