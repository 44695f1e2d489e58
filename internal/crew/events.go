package crew

import (
	"context"
	"time"
)

// EventType identifies a point in the crew lifecycle
type EventType string

const (
	EventCrewStarted  EventType = "crew_started"
	EventTaskStarted  EventType = "task_started"
	EventTaskFinished EventType = "task_finished"
	EventTaskFailed   EventType = "task_failed"
	EventCrewFinished EventType = "crew_finished"
	EventCrewFailed   EventType = "crew_failed"
)

// Event is delivered to observers synchronously, in order
type Event struct {
	Type     EventType
	Time     time.Time
	Task     string
	Agent    string
	Position int // zero-based index of the task
	Total    int
	Output   *TaskOutput // EventTaskFinished
	Result   *CrewOutput // EventCrewFinished
	Inputs   Inputs      // EventCrewStarted
	Err      error       // EventTaskFailed, EventCrewFailed
}

// Observer receives lifecycle events. Observers must not block for long;
// Kickoff waits for each call to return.
type Observer interface {
	OnEvent(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(ctx context.Context, e Event)

// OnEvent calls f(ctx, e)
func (f ObserverFunc) OnEvent(ctx context.Context, e Event) {
	f(ctx, e)
}
