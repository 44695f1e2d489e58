// Package crew runs a fixed roster of LLM agents through a sequential task
// pipeline. Agents and tasks are described in YAML, templated with {name}
// placeholders, and each task sees the outputs of the tasks before it.
package crew

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rohankatakam/crewforge/internal/errors"
	"github.com/rohankatakam/crewforge/internal/llm"
)

// Process is how tasks are scheduled. Only sequential is supported.
type Process string

const ProcessSequential Process = "sequential"

// Crew is an assembled pipeline ready for Kickoff
type Crew struct {
	agents    []*Agent
	tasks     []*Task
	llm       llm.Completer
	process   Process
	outputDir string
	required  []string
	verbose   bool
	observers []Observer
	logger    *slog.Logger
}

// Option configures a Crew
type Option func(*Crew)

// WithOutputDir sets the directory relative output files are written to
func WithOutputDir(dir string) Option {
	return func(c *Crew) { c.outputDir = dir }
}

// WithObserver adds a lifecycle observer
func WithObserver(o Observer) Option {
	return func(c *Crew) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithVerbose logs each task at info level instead of debug
func WithVerbose(v bool) Option {
	return func(c *Crew) { c.verbose = v }
}

// WithRequiredInputs replaces the input keys that must always be present
func WithRequiredInputs(keys ...string) Option {
	return func(c *Crew) { c.required = keys }
}

// New assembles a crew from agents and tasks in the given order. Every task
// must reference an agent in the roster and its context may only name tasks
// that run before it.
func New(agents []*Agent, tasks []*Task, completer llm.Completer, opts ...Option) (*Crew, error) {
	if completer == nil {
		return nil, errors.InternalError("crew requires an llm completer")
	}
	if len(tasks) == 0 {
		return nil, errors.ConfigError("crew has no tasks")
	}

	roster := make(map[string]bool, len(agents))
	for _, a := range agents {
		roster[a.Key] = true
	}

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.Name] {
			return nil, errors.ConfigErrorf("task %q is declared twice", t.Name)
		}
		if t.Agent == nil || !roster[t.Agent.Key] {
			return nil, errors.ConfigErrorf("task %q is assigned to an agent outside the crew", t.Name)
		}
		for _, ref := range t.Context {
			if !seen[ref] {
				return nil, errors.ConfigErrorf("task %q uses context from %q, which does not run before it", t.Name, ref)
			}
		}
		seen[t.Name] = true
	}

	c := &Crew{
		agents:   agents,
		tasks:    tasks,
		llm:      completer,
		process:  ProcessSequential,
		required: []string{InputRequirements, InputFeatureName},
		logger:   slog.Default().With("component", "crew"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Assemble binds the named agents and tasks from config, in the order given.
// A name missing from its config file is a config error.
func Assemble(agentsCfg *AgentsConfig, tasksCfg *TasksConfig, agentKeys, taskKeys []string, completer llm.Completer, opts ...Option) (*Crew, error) {
	agents := make([]*Agent, 0, len(agentKeys))
	byKey := make(map[string]*Agent, len(agentKeys))
	for _, key := range agentKeys {
		cfg, err := agentsCfg.Agent(key)
		if err != nil {
			return nil, err
		}
		a := NewAgent(key, cfg)
		agents = append(agents, a)
		byKey[key] = a
	}

	tasks := make([]*Task, 0, len(taskKeys))
	for _, key := range taskKeys {
		cfg, err := tasksCfg.Task(key)
		if err != nil {
			return nil, err
		}
		agent, ok := byKey[cfg.Agent]
		if !ok {
			return nil, errors.ConfigErrorf("task %q references agent %q, which is not in the crew", key, cfg.Agent)
		}
		tasks = append(tasks, NewTask(key, cfg, agent))
	}

	return New(agents, tasks, completer, opts...)
}

// Agents returns the roster in declaration order
func (c *Crew) Agents() []*Agent {
	return append([]*Agent(nil), c.agents...)
}

// Tasks returns the pipeline in execution order
func (c *Crew) Tasks() []*Task {
	return append([]*Task(nil), c.tasks...)
}

// OutputDir returns the directory output files are written under
func (c *Crew) OutputDir() string {
	return c.outputDir
}

// RequiredInputs lists every input key Kickoff needs: the always-required
// keys plus every placeholder used by an agent or task template.
func (c *Crew) RequiredInputs() []string {
	return MissingInputs(Inputs{}, c.required, c.templates()...)
}

func (c *Crew) templates() []string {
	var out []string
	for _, a := range c.agents {
		out = append(out, a.templates()...)
	}
	for _, t := range c.tasks {
		out = append(out, t.templates()...)
	}
	return out
}

// Kickoff runs every task once, in order, and returns the final task's
// result. Inputs are checked before any task runs. The first failing task
// stops the run.
func (c *Crew) Kickoff(ctx context.Context, inputs Inputs) (*CrewOutput, error) {
	if err := EnsureOutputDir(c.outputDir); err != nil {
		return nil, err
	}

	if missing := MissingInputs(inputs, c.required, c.templates()...); len(missing) > 0 {
		return nil, errors.ValidationErrorf("missing required inputs: %s", strings.Join(missing, ", ")).
			WithContext("missing", missing)
	}

	agents := make(map[string]*Agent, len(c.agents))
	for _, a := range c.agents {
		agents[a.Key] = a.interpolate(inputs)
	}
	tasks := make([]*Task, len(c.tasks))
	for i, t := range c.tasks {
		tasks[i] = t.interpolate(inputs, agents[t.Agent.Key])
	}

	c.emit(ctx, Event{Type: EventCrewStarted, Total: len(tasks), Inputs: inputs})
	c.logger.Info("crew kickoff", "process", c.process, "tasks", len(tasks), "agents", len(agents))

	tracker := llm.NewTokenTracker()
	outputs := make([]TaskOutput, 0, len(tasks))

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(ctx, i, len(tasks), task, fmt.Errorf("crew cancelled before task %s: %w", task.Name, err))
		}

		out, err := c.execute(ctx, i, len(tasks), task, outputs, tracker)
		if err != nil {
			return nil, c.fail(ctx, i, len(tasks), task, fmt.Errorf("task %s (%s): %w", task.Name, task.Agent.Key, err))
		}
		outputs = append(outputs, *out)
	}

	result := &CrewOutput{
		Raw:         outputs[len(outputs)-1].Raw,
		TasksOutput: outputs,
		TokenUsage:  tracker.Usage(),
	}
	c.emit(ctx, Event{Type: EventCrewFinished, Total: len(tasks), Result: result})
	c.logger.Info("crew finished",
		"tasks", len(outputs),
		"total_tokens", result.TokenUsage.TotalTokens,
		"cached_requests", result.TokenUsage.CachedRequests,
	)
	return result, nil
}

func (c *Crew) execute(ctx context.Context, pos, total int, task *Task, prior []TaskOutput, tracker *llm.TokenTracker) (*TaskOutput, error) {
	c.emit(ctx, Event{Type: EventTaskStarted, Task: task.Name, Agent: task.Agent.Key, Position: pos, Total: total})
	c.taskLog("task started", "task", task.Name, "agent", task.Agent.Role, "position", pos+1, "total", total)

	start := time.Now()
	resp, err := c.llm.Complete(ctx, llm.Request{
		Model:        task.Agent.Model,
		SystemPrompt: task.Agent.SystemPrompt(),
		UserPrompt:   task.Prompt(contextFor(task, prior)),
		MaxTokens:    task.Agent.MaxTokens,
		Temperature:  task.Agent.Temperature,
	})
	if err != nil {
		return nil, err
	}
	tracker.Record(resp)

	out := &TaskOutput{
		Name:        task.Name,
		Agent:       task.Agent.Key,
		Description: task.Description,
		Raw:         resp.Content,
		Duration:    time.Since(start),
	}

	if task.OutputFile != "" {
		path := resolveOutputPath(c.outputDir, task.OutputFile)
		if err := writeOutputFile(path, resp.Content); err != nil {
			return nil, err
		}
		out.OutputFile = path
	}

	c.emit(ctx, Event{Type: EventTaskFinished, Task: task.Name, Agent: task.Agent.Key, Position: pos, Total: total, Output: out})
	c.taskLog("task finished",
		"task", task.Name,
		"duration_ms", out.Duration.Milliseconds(),
		"output_length", len(out.Raw),
		"output_file", out.OutputFile,
		"cached", resp.Cached,
	)
	return out, nil
}

// contextFor returns the outputs named in task.Context, or all prior outputs
func contextFor(task *Task, prior []TaskOutput) []TaskOutput {
	if len(task.Context) == 0 {
		return prior
	}
	byName := make(map[string]TaskOutput, len(prior))
	for _, o := range prior {
		byName[o.Name] = o
	}
	out := make([]TaskOutput, 0, len(task.Context))
	for _, name := range task.Context {
		if o, ok := byName[name]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (c *Crew) fail(ctx context.Context, pos, total int, task *Task, err error) error {
	c.logger.Error("task failed", "task", task.Name, "error", err)
	c.emit(ctx, Event{Type: EventTaskFailed, Task: task.Name, Agent: task.Agent.Key, Position: pos, Total: total, Err: err})
	c.emit(ctx, Event{Type: EventCrewFailed, Total: total, Err: err})
	return err
}

func (c *Crew) emit(ctx context.Context, e Event) {
	e.Time = time.Now()
	for _, o := range c.observers {
		o.OnEvent(ctx, e)
	}
}

func (c *Crew) taskLog(msg string, args ...any) {
	if c.verbose {
		c.logger.Info(msg, args...)
		return
	}
	c.logger.Debug(msg, args...)
}
