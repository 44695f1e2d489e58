package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rohankatakam/crewforge/internal/config"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/sirupsen/logrus"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// RunStore persists crew runs and the output of each task
type RunStore interface {
	CreateRun(ctx context.Context, run *models.Run) error
	SaveTask(ctx context.Context, task *models.TaskRecord) error
	FinishRun(ctx context.Context, run *models.Run) error

	GetRun(ctx context.Context, id string) (*models.Run, error)
	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	GetTasks(ctx context.Context, runID string) ([]*models.TaskRecord, error)

	// Close connection
	Close() error
}

// Open creates the store selected by cfg.Type. It returns a nil store and no
// error when run history is disabled.
func Open(cfg config.StorageConfig, logger *logrus.Logger) (RunStore, error) {
	switch cfg.Type {
	case "sqlite":
		store, err := NewSQLiteStore(cfg.LocalPath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := NewPostgresStore(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
