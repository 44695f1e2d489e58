package storage

import (
	"context"
	"time"

	"github.com/rohankatakam/crewforge/internal/crew"
	"github.com/rohankatakam/crewforge/internal/models"
	"github.com/sirupsen/logrus"
)

// Recorder persists crew lifecycle events as a run history. Storage errors
// are logged and never fail the run being recorded.
type Recorder struct {
	store  RunStore
	run    *models.Run
	logger *logrus.Logger
}

// NewRecorder returns an observer that records events into run. run.ID must
// be set; StartedAt and Status are filled in when the crew starts.
func NewRecorder(store RunStore, run *models.Run, logger *logrus.Logger) *Recorder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Recorder{store: store, run: run, logger: logger}
}

// Run returns the run being recorded
func (r *Recorder) Run() *models.Run {
	return r.run
}

// OnEvent implements crew.Observer
func (r *Recorder) OnEvent(ctx context.Context, e crew.Event) {
	// A cancelled kickoff still gets its failure written
	ctx = context.WithoutCancel(ctx)
	log := r.logger.WithFields(logrus.Fields{"run_id": r.run.ID, "event": e.Type})

	switch e.Type {
	case crew.EventCrewStarted:
		r.run.Status = models.RunStatusRunning
		r.run.StartedAt = e.Time
		if err := r.store.CreateRun(ctx, r.run); err != nil {
			log.WithError(err).Warn("failed to record run start")
		}

	case crew.EventTaskFinished:
		if e.Output == nil {
			return
		}
		rec := &models.TaskRecord{
			RunID:      r.run.ID,
			Position:   e.Position,
			Name:       e.Output.Name,
			Agent:      e.Output.Agent,
			Output:     e.Output.Raw,
			OutputFile: e.Output.OutputFile,
			DurationMS: e.Output.Duration.Milliseconds(),
			CreatedAt:  e.Time,
		}
		if err := r.store.SaveTask(ctx, rec); err != nil {
			log.WithError(err).WithField("task", e.Task).Warn("failed to record task output")
		}

	case crew.EventCrewFinished:
		r.run.Status = models.RunStatusSucceeded
		if e.Result != nil {
			r.run.Result = e.Result.Raw
			r.run.PromptTokens = e.Result.TokenUsage.PromptTokens
			r.run.CompletionTokens = e.Result.TokenUsage.CompletionTokens
		}
		r.finish(ctx, e.Time, log)

	case crew.EventCrewFailed:
		r.run.Status = models.RunStatusFailed
		if e.Err != nil {
			r.run.Error = e.Err.Error()
		}
		r.finish(ctx, e.Time, log)
	}
}

func (r *Recorder) finish(ctx context.Context, at time.Time, log *logrus.Entry) {
	r.run.FinishedAt = &at
	if err := r.store.FinishRun(ctx, r.run); err != nil {
		log.WithError(err).Warn("failed to record run result")
		return
	}
	log.WithField("status", r.run.Status).Debug("run recorded")
}
