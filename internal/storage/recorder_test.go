package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/llm"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubCompleter(failAt int) llm.CompleterFunc {
	n := 0
	return func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		n++
		if n == failAt {
			return nil, stderrors.New("upstream unavailable")
		}
		return &llm.Response{Content: fmt.Sprintf("answer-%d", n), PromptTokens: 4, CompletionTokens: 2}, nil
	}
}

func kickoffRecorded(t *testing.T, store RunStore, runID string, completer llm.Completer) (*crew.CrewOutput, error) {
	t.Helper()
	agents, err := crew.LoadAgentsConfig("")
	require.NoError(t, err)
	tasks, err := crew.LoadTasksConfig("")
	require.NoError(t, err)

	rec := NewRecorder(store, &models.Run{ID: runID, Preset: "ticketing", FeatureName: "jiro"}, nil)
	team, err := crew.NewEngineeringTeam(agents, tasks, completer,
		crew.WithOutputDir(t.TempDir()), crew.WithObserver(rec))
	require.NoError(t, err)

	return team.Kickoff(context.Background(), crew.Inputs{
		crew.InputRequirements: "A ticketing system.",
		crew.InputFeatureName:  "jiro",
	})
}

func TestRecorder_Success(t *testing.T) {
	store := newSQLite(t)
	out, err := kickoffRecorded(t, store, "run-ok", stubCompleter(0))
	require.NoError(t, err)

	ctx := context.Background()
	run, err := store.GetRun(ctx, "run-ok")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSucceeded, run.Status)
	assert.Equal(t, out.Raw, run.Result)
	assert.Equal(t, "answer-5", run.Result)
	assert.Equal(t, int64(20), run.PromptTokens)
	assert.Equal(t, int64(10), run.CompletionTokens)
	assert.NotNil(t, run.FinishedAt)
	assert.Empty(t, run.Error)

	tasks, err := store.GetTasks(ctx, "run-ok")
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	for i, name := range crew.EngineeringTasks {
		assert.Equal(t, name, tasks[i].Name)
		assert.Equal(t, i, tasks[i].Position)
		assert.Equal(t, fmt.Sprintf("answer-%d", i+1), tasks[i].Output)
	}
	assert.NotEmpty(t, tasks[2].OutputFile, "integration task writes the controllers file")
}

func TestRecorder_Failure(t *testing.T) {
	store := newSQLite(t)
	_, err := kickoffRecorded(t, store, "run-bad", stubCompleter(3))
	require.Error(t, err)

	ctx := context.Background()
	run, err := store.GetRun(ctx, "run-bad")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "upstream unavailable")
	assert.Empty(t, run.Result)

	tasks, err := store.GetTasks(ctx, "run-bad")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

type failingStore struct {
	RunStore
	calls int
}

func (f *failingStore) CreateRun(ctx context.Context, run *models.Run) error {
	f.calls++
	return stderrors.New("disk full")
}

func (f *failingStore) SaveTask(ctx context.Context, task *models.TaskRecord) error {
	f.calls++
	return stderrors.New("disk full")
}

func (f *failingStore) FinishRun(ctx context.Context, run *models.Run) error {
	f.calls++
	return stderrors.New("disk full")
}

func TestRecorder_StoreErrorsDoNotFailRun(t *testing.T) {
	store := &failingStore{}
	out, err := kickoffRecorded(t, store, "run-x", stubCompleter(0))
	require.NoError(t, err)
	assert.Equal(t, "answer-5", out.Raw)
	assert.Equal(t, 7, store.calls)
}
