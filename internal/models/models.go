package models

import (
	"time"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Run is one kickoff of the engineering crew
type Run struct {
	ID               string     `json:"id" db:"id"`
	Preset           string     `json:"preset" db:"preset"`
	FeatureName      string     `json:"feature_name" db:"feature_name"`
	Provider         string     `json:"provider" db:"provider"`
	Model            string     `json:"model" db:"model"`
	OutputDir        string     `json:"output_dir" db:"output_dir"`
	Status           string     `json:"status" db:"status"`
	StartedAt        time.Time  `json:"started_at" db:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Result           string     `json:"result,omitempty" db:"result"`
	Error            string     `json:"error,omitempty" db:"error"`
	PromptTokens     int64      `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int64      `json:"completion_tokens" db:"completion_tokens"`
}

// Duration returns how long the run took, or has been running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TaskRecord is the persisted output of one task within a run
type TaskRecord struct {
	RunID      string    `json:"run_id" db:"run_id"`
	Position   int       `json:"position" db:"position"`
	Name       string    `json:"name" db:"name"`
	Agent      string    `json:"agent" db:"agent"`
	Output     string    `json:"output" db:"output"`
	OutputFile string    `json:"output_file,omitempty" db:"output_file"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
