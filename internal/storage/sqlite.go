package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/sirupsen/logrus"
)

// SQLiteStore implements storage using SQLite (for local use)
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.StorageError(err, "connect to sqlite")
	}

	// Enable foreign keys and WAL mode for better concurrency
	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		preset TEXT NOT NULL,
		feature_name TEXT NOT NULL,
		provider TEXT,
		model TEXT,
		output_dir TEXT,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		result TEXT,
		error TEXT,
		prompt_tokens INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_tasks (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		agent TEXT NOT NULL,
		output TEXT,
		output_file TEXT,
		duration_ms INTEGER,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record
func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs
		(id, preset, feature_name, provider, model, output_dir, status, started_at,
		 result, error, prompt_tokens, completion_tokens)
		VALUES (:id, :preset, :feature_name, :provider, :model, :output_dir, :status, :started_at,
		 :result, :error, :prompt_tokens, :completion_tokens)
	`
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	s.logger.WithField("run_id", run.ID).Debug("run created")
	return nil
}

// SaveTask stores one task output. Saving the same position twice replaces it.
func (s *SQLiteStore) SaveTask(ctx context.Context, task *models.TaskRecord) error {
	query := `
		INSERT OR REPLACE INTO run_tasks
		(run_id, position, name, agent, output, output_file, duration_ms, created_at)
		VALUES (:run_id, :position, :name, :agent, :output, :output_file, :duration_ms, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, task); err != nil {
		return errors.StorageErrorf(err, "save task %s", task.Name)
	}
	return nil
}

// FinishRun records the final status, result and token usage
func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE runs SET status = :status, finished_at = :finished_at, result = :result,
			error = :error, prompt_tokens = :prompt_tokens, completion_tokens = :completion_tokens
		WHERE id = :id
	`
	res, err := s.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRun returns a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	var runs []*models.Run
	query := `SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetTasks returns the task outputs of a run in execution order
func (s *SQLiteStore) GetTasks(ctx context.Context, runID string) ([]*models.TaskRecord, error) {
	var tasks []*models.TaskRecord
	query := `SELECT * FROM run_tasks WHERE run_id = ? ORDER BY position`
	if err := s.db.SelectContext(ctx, &tasks, query, runID); err != nil {
		return nil, err
	}
	return tasks, nil
}
