// Package sqlite persists evaluation history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dkelsey/agent-check/internal/domain"
	"github.com/dkelsey/agent-check/internal/usecase/classify"
)

// Store implements the classify.Store port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per classified pull request or branch
	CREATE TABLE IF NOT EXISTS evaluations (
		evaluation_id INTEGER PRIMARY KEY AUTOINCREMENT,
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		is_human_like INTEGER NOT NULL,
		confidence INTEGER NOT NULL,
		reasoning TEXT,
		indicators TEXT
	);

	-- Per-file judgments belonging to an evaluation
	CREATE TABLE IF NOT EXISTS file_judgments (
		judgment_id INTEGER PRIMARY KEY AUTOINCREMENT,
		evaluation_id INTEGER NOT NULL,
		filename TEXT NOT NULL,
		is_human_like INTEGER NOT NULL,
		confidence INTEGER NOT NULL,
		reasoning TEXT,
		indicators TEXT,
		FOREIGN KEY (evaluation_id) REFERENCES evaluations(evaluation_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_repo ON evaluations(repository, pull_number);
	CREATE INDEX IF NOT EXISTS idx_evaluations_created ON evaluations(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_file_judgments_eval ON file_judgments(evaluation_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveEvaluation stores a verdict and its per-file judgments in one
// transaction.
func (s *Store) SaveEvaluation(ctx context.Context, record classify.EvaluationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO evaluations (repository, pull_number, created_at, is_human_like, confidence, reasoning, indicators)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Repository,
		record.PullNumber,
		record.CreatedAt.Unix(),
		boolToInt(record.Verdict.IsHumanLike),
		record.Verdict.Confidence,
		record.Verdict.Reasoning,
		strings.Join(record.Verdict.Indicators, ","),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}

	evaluationID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("evaluation id: %w", err)
	}

	for _, file := range record.Files {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO file_judgments (evaluation_id, filename, is_human_like, confidence, reasoning, indicators)
			VALUES (?, ?, ?, ?, ?, ?)`,
			evaluationID,
			file.Filename,
			boolToInt(file.Judgment.IsHumanLike),
			file.Judgment.Confidence,
			file.Judgment.Reasoning,
			strings.Join(file.Judgment.Indicators, ","),
		)
		if err != nil {
			return fmt.Errorf("insert file judgment %s: %w", file.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Evaluation is an evaluation row read back from the store.
type Evaluation struct {
	Repository string
	PullNumber int
	CreatedAt  time.Time
	Verdict    domain.Judgment
}

// ListEvaluations returns the most recent evaluations for a repository,
// newest first.
func (s *Store) ListEvaluations(ctx context.Context, repository string, limit int) ([]Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT repository, pull_number, created_at, is_human_like, confidence, reasoning, indicators
		FROM evaluations
		WHERE repository = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		repository, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []Evaluation
	for rows.Next() {
		var (
			e          Evaluation
			createdAt  int64
			humanLike  int
			indicators string
		)
		if err := rows.Scan(&e.Repository, &e.PullNumber, &createdAt, &humanLike, &e.Verdict.Confidence, &e.Verdict.Reasoning, &indicators); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		e.Verdict.IsHumanLike = humanLike != 0
		if indicators != "" {
			e.Verdict.Indicators = strings.Split(indicators, ",")
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
