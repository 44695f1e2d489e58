package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/sirupsen/logrus"
)

// PostgresStore implements storage using PostgreSQL, for teams sharing run
// history
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPostgresStore creates a new PostgreSQL storage
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, errors.StorageError(err, "connect to postgres")
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{
		db:     db,
		logger: logger,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		preset TEXT NOT NULL,
		feature_name TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		output_dir TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		result TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		prompt_tokens BIGINT NOT NULL DEFAULT 0,
		completion_tokens BIGINT NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_tasks (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		agent TEXT NOT NULL,
		output TEXT NOT NULL DEFAULT '',
		output_file TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record
func (s *PostgresStore) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, preset, feature_name, provider, model, output_dir, status,
			started_at, result, error, prompt_tokens, completion_tokens)
		VALUES (:id, :preset, :feature_name, :provider, :model, :output_dir, :status,
			:started_at, :result, :error, :prompt_tokens, :completion_tokens)
	`

	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	s.logger.WithField("run_id", run.ID).Debug("run created")
	return nil
}

// SaveTask stores one task output. Saving the same position twice replaces it.
func (s *PostgresStore) SaveTask(ctx context.Context, task *models.TaskRecord) error {
	query := `
		INSERT INTO run_tasks (run_id, position, name, agent, output, output_file,
			duration_ms, created_at)
		VALUES (:run_id, :position, :name, :agent, :output, :output_file,
			:duration_ms, :created_at)
		ON CONFLICT (run_id, position) DO UPDATE SET
			name = EXCLUDED.name,
			agent = EXCLUDED.agent,
			output = EXCLUDED.output,
			output_file = EXCLUDED.output_file,
			duration_ms = EXCLUDED.duration_ms,
			created_at = EXCLUDED.created_at
	`

	if _, err := s.db.NamedExecContext(ctx, query, task); err != nil {
		return errors.StorageErrorf(err, "save task %s", task.Name)
	}
	return nil
}

// FinishRun records the final status, result and token usage
func (s *PostgresStore) FinishRun(ctx context.Context, run *models.Run) error {
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
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	var runs []*models.Run
	query := `SELECT * FROM runs ORDER BY started_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &runs, query, lim); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetTasks returns the task outputs of a run in execution order
func (s *PostgresStore) GetTasks(ctx context.Context, runID string) ([]*models.TaskRecord, error) {
	var tasks []*models.TaskRecord
	query := `SELECT * FROM run_tasks WHERE run_id = $1 ORDER BY position`
	if err := s.db.SelectContext(ctx, &tasks, query, runID); err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	return tasks, nil
}
